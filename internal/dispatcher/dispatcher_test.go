package dispatcher

import (
	"context"
	"errors"
	"testing"

	"github.com/chxlky/trello-agent/internal/errs"
	"github.com/chxlky/trello-agent/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type call struct {
	method string
	args   []string
}

type fakeWriter struct {
	calls []call
	err   error
}

func (f *fakeWriter) CreateList(_ context.Context, boardID, name string) (*models.List, error) {
	f.calls = append(f.calls, call{"CreateList", []string{boardID, name}})
	if f.err != nil {
		return nil, f.err
	}
	return &models.List{ID: "l-new", Name: name, BoardID: boardID}, nil
}

func (f *fakeWriter) CreateCard(_ context.Context, listID, name, due string) (*models.Card, error) {
	f.calls = append(f.calls, call{"CreateCard", []string{listID, name, due}})
	if f.err != nil {
		return nil, f.err
	}
	return &models.Card{ID: "c-new", Name: name, ListID: listID, Due: due, URL: "https://trello.com/c/new"}, nil
}

func (f *fakeWriter) UpdateCard(_ context.Context, cardID string, update models.CardUpdate) (*models.Card, error) {
	f.calls = append(f.calls, call{"UpdateCard", []string{cardID, update.ListID, update.Due}})
	if f.err != nil {
		return nil, f.err
	}
	return &models.Card{ID: cardID, Name: "Card", ListID: update.ListID, Due: update.Due}, nil
}

func (f *fakeWriter) AddMemberToCard(_ context.Context, cardID, memberID string) ([]string, error) {
	f.calls = append(f.calls, call{"AddMemberToCard", []string{cardID, memberID}})
	if f.err != nil {
		return nil, f.err
	}
	return []string{memberID}, nil
}

func TestApplyOperations(t *testing.T) {
	tests := []struct {
		name     string
		op       Operation
		ids      []string
		payload  Payload
		wantCall call
		wantID   string
	}{
		{
			name:     "create list",
			op:       OpCreateList,
			ids:      []string{"b1"},
			payload:  Payload{Name: "Backlog"},
			wantCall: call{"CreateList", []string{"b1", "Backlog"}},
			wantID:   "l-new",
		},
		{
			name:     "create card with due",
			op:       OpCreateCard,
			ids:      []string{"l1"},
			payload:  Payload{Name: "Finish documentation", Due: "2024-11-20"},
			wantCall: call{"CreateCard", []string{"l1", "Finish documentation", "2024-11-20"}},
			wantID:   "c-new",
		},
		{
			name:     "move card",
			op:       OpMoveCard,
			ids:      []string{"c1", "l2"},
			wantCall: call{"UpdateCard", []string{"c1", "l2", ""}},
			wantID:   "c1",
		},
		{
			name:     "set due date",
			op:       OpSetDueDate,
			ids:      []string{"c1"},
			payload:  Payload{Due: "2024-11-20T17:00:00Z"},
			wantCall: call{"UpdateCard", []string{"c1", "", "2024-11-20T17:00:00Z"}},
			wantID:   "c1",
		},
		{
			name:     "assign member",
			op:       OpAssignMember,
			ids:      []string{"c1", "m1"},
			wantCall: call{"AddMemberToCard", []string{"c1", "m1"}},
			wantID:   "c1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &fakeWriter{}
			d := New(w, zaptest.NewLogger(t))

			out, err := d.Apply(context.Background(), tt.op, tt.ids, tt.payload)
			require.NoError(t, err)
			require.Len(t, w.calls, 1)
			assert.Equal(t, tt.wantCall, w.calls[0])
			assert.Equal(t, tt.wantID, out.ID)
			assert.Equal(t, tt.op, out.Operation)
		})
	}
}

func TestApplyValidatesBeforeWriting(t *testing.T) {
	tests := []struct {
		name    string
		op      Operation
		ids     []string
		payload Payload
	}{
		{name: "unknown op", op: Operation("delete-board"), ids: []string{"b1"}},
		{name: "wrong arity", op: OpMoveCard, ids: []string{"c1"}},
		{name: "empty id", op: OpAssignMember, ids: []string{"c1", ""}},
		{name: "missing name", op: OpCreateCard, ids: []string{"l1"}},
		{name: "missing due", op: OpSetDueDate, ids: []string{"c1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &fakeWriter{}
			_, err := New(w, zaptest.NewLogger(t)).Apply(context.Background(), tt.op, tt.ids, tt.payload)
			assert.Equal(t, errs.KindValidation, errs.KindOf(err))
			assert.Empty(t, w.calls)
		})
	}
}

func TestApplyWrapsRemoteFailure(t *testing.T) {
	cause := errors.New("rate limited")
	w := &fakeWriter{err: cause}
	d := New(w, zaptest.NewLogger(t))

	_, err := d.CreateCard(context.Background(), "l1", "Task", "")
	require.Error(t, err)

	e, ok := errs.From(err)
	require.True(t, ok)
	assert.Equal(t, errs.KindRemoteFailure, e.Kind)
	assert.Equal(t, string(OpCreateCard), e.Op)
	assert.Equal(t, "rate limited", e.Detail)
	assert.ErrorIs(t, err, cause)
	assert.Len(t, w.calls, 1)
}

func TestConvenienceMethods(t *testing.T) {
	w := &fakeWriter{}
	d := New(w, zaptest.NewLogger(t))
	ctx := context.Background()

	_, err := d.CreateList(ctx, "b1", "To-Do")
	require.NoError(t, err)
	_, err = d.MoveCard(ctx, "c1", "l2")
	require.NoError(t, err)
	_, err = d.SetDueDate(ctx, "c1", "2024-11-20")
	require.NoError(t, err)
	out, err := d.AssignMember(ctx, "c1", "m1")
	require.NoError(t, err)
	assert.Equal(t, []string{"m1"}, out.MemberIDs)

	assert.Len(t, w.calls, 4)
}
