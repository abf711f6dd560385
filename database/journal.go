package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/chxlky/trello-agent/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrRunNotFound = errors.New("backlog run not found")

// Journal records backlog runs step by step so a partially applied run can
// be inspected after the fact.
type Journal struct {
	db *gorm.DB
}

func NewJournal(db *gorm.DB) *Journal {
	return &Journal{db: db}
}

// StartRun stores a new run with one pending step per task.
func (j *Journal) StartRun(ctx context.Context, run *models.BacklogRun, tasks []string) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	run.Status = models.RunPending
	run.Steps = make([]models.BacklogStep, 0, len(tasks))
	for i, task := range tasks {
		run.Steps = append(run.Steps, models.BacklogStep{
			RunID:    run.ID,
			Position: i,
			Task:     task,
			Status:   models.StepPending,
		})
	}

	if err := j.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to save backlog run: %w", err)
	}
	return nil
}

// RecordStep updates the status of the step at position.
func (j *Journal) RecordStep(ctx context.Context, runID string, position int, status models.StepStatus, cardID, errMsg string) error {
	result := j.db.WithContext(ctx).
		Model(&models.BacklogStep{}).
		Where("run_id = ? AND position = ?", runID, position).
		Updates(map[string]any{"status": status, "card_id": cardID, "error": errMsg})
	if result.Error != nil {
		return fmt.Errorf("failed to update backlog step: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("backlog step %s/%d: %w", runID, position, ErrRunNotFound)
	}
	return nil
}

// FinishRun sets the final run status and marks every still-pending step
// as skipped.
func (j *Journal) FinishRun(ctx context.Context, runID string, status models.RunStatus) error {
	return j.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.BacklogStep{}).
			Where("run_id = ? AND status = ?", runID, models.StepPending).
			Update("status", models.StepSkipped).Error; err != nil {
			return fmt.Errorf("failed to skip pending steps: %w", err)
		}

		result := tx.Model(&models.BacklogRun{}).Where("id = ?", runID).Update("status", status)
		if result.Error != nil {
			return fmt.Errorf("failed to update backlog run: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrRunNotFound
		}
		return nil
	})
}

func (j *Journal) Run(ctx context.Context, runID string) (*models.BacklogRun, error) {
	var run models.BacklogRun
	err := j.db.WithContext(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		First(&run, "id = ?", runID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load backlog run: %w", err)
	}
	return &run, nil
}
