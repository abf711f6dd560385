package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/chxlky/trello-agent/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJournal(t *testing.T) *Journal {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return NewJournal(db)
}

func TestJournalRunLifecycle(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	run := &models.BacklogRun{BoardID: "b1", BoardName: "Agentika", ListID: "l9", ListName: "Website Backlog"}
	require.NoError(t, j.StartRun(ctx, run, []string{"Update homepage", "Add blog", "Test"}))
	require.NotEmpty(t, run.ID)

	require.NoError(t, j.RecordStep(ctx, run.ID, 0, models.StepCreated, "c1", ""))
	require.NoError(t, j.RecordStep(ctx, run.ID, 1, models.StepFailed, "", "rate limited"))
	require.NoError(t, j.FinishRun(ctx, run.ID, models.RunFailed))

	got, err := j.Run(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RunFailed, got.Status)
	require.Len(t, got.Steps, 3)

	assert.Equal(t, models.StepCreated, got.Steps[0].Status)
	assert.Equal(t, "c1", got.Steps[0].CardID)
	assert.Equal(t, models.StepFailed, got.Steps[1].Status)
	assert.Equal(t, "rate limited", got.Steps[1].Error)
	assert.Equal(t, models.StepSkipped, got.Steps[2].Status)
	assert.Equal(t, "Test", got.Steps[2].Task)
}

func TestJournalUnknownRun(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	_, err := j.Run(ctx, "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)

	err = j.RecordStep(ctx, "missing", 0, models.StepCreated, "c1", "")
	assert.ErrorIs(t, err, ErrRunNotFound)

	assert.ErrorIs(t, j.FinishRun(ctx, "missing", models.RunCompleted), ErrRunNotFound)
}
