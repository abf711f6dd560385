// Package dispatcher issues the single remote write that ends every
// mutating operation.
package dispatcher

import (
	"context"

	"github.com/chxlky/trello-agent/internal/errs"
	"github.com/chxlky/trello-agent/internal/models"
	"go.uber.org/zap"
)

// Writer is the write side of the Trello API.
type Writer interface {
	CreateList(ctx context.Context, boardID, name string) (*models.List, error)
	CreateCard(ctx context.Context, listID, name, due string) (*models.Card, error)
	UpdateCard(ctx context.Context, cardID string, update models.CardUpdate) (*models.Card, error)
	AddMemberToCard(ctx context.Context, cardID, memberID string) ([]string, error)
}

type Operation string

const (
	OpCreateList   Operation = "create-list"
	OpCreateCard   Operation = "create-card"
	OpMoveCard     Operation = "move-card"
	OpSetDueDate   Operation = "set-due-date"
	OpAssignMember Operation = "assign-member"
)

// arity is the number of resolved ids each operation consumes:
//
//	create-list   [boardID]
//	create-card   [listID]
//	move-card     [cardID, targetListID]
//	set-due-date  [cardID]
//	assign-member [cardID, memberID]
var arity = map[Operation]int{
	OpCreateList:   1,
	OpCreateCard:   1,
	OpMoveCard:     2,
	OpSetDueDate:   1,
	OpAssignMember: 2,
}

// Payload carries the non-id inputs of a mutation.
type Payload struct {
	Name string
	Due  string
}

// Outcome is the remote representation of the mutated or created entity.
type Outcome struct {
	Operation Operation
	ID        string
	Name      string
	URL       string
	ListID    string
	Due       string
	MemberIDs []string
}

type Dispatcher struct {
	writer Writer
	logger *zap.Logger
}

func New(writer Writer, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.L()
	}
	return &Dispatcher{writer: writer, logger: logger}
}

// Apply performs exactly one remote write. It never retries and never
// compensates earlier writes.
func (d *Dispatcher) Apply(ctx context.Context, op Operation, ids []string, payload Payload) (*Outcome, error) {
	want, ok := arity[op]
	if !ok {
		return nil, errs.Validation("unknown operation %q", op)
	}
	if len(ids) != want {
		return nil, errs.Validation("%s needs %d resolved ids, got %d", op, want, len(ids))
	}
	for i, id := range ids {
		if id == "" {
			return nil, errs.Validation("%s: resolved id %d is empty", op, i)
		}
	}
	switch {
	case (op == OpCreateList || op == OpCreateCard) && payload.Name == "":
		return nil, errs.Validation("%s needs a name", op)
	case op == OpSetDueDate && payload.Due == "":
		return nil, errs.Validation("%s needs a due date", op)
	}

	out, err := d.apply(ctx, op, ids, payload)
	if err != nil {
		remote := errs.Remote(string(op), entityOf(op), payload.Name, err)
		d.logger.Error("Mutation failed",
			zap.String("operation", string(op)),
			zap.Strings("ids", ids),
			zap.String("upstream", remote.Detail),
			zap.Error(err),
		)
		return nil, remote
	}

	d.logger.Info("Mutation applied", zap.String("operation", string(op)), zap.String("id", out.ID))
	return out, nil
}

func (d *Dispatcher) apply(ctx context.Context, op Operation, ids []string, payload Payload) (*Outcome, error) {
	switch op {
	case OpCreateList:
		list, err := d.writer.CreateList(ctx, ids[0], payload.Name)
		if err != nil {
			return nil, err
		}
		return &Outcome{Operation: op, ID: list.ID, Name: list.Name}, nil

	case OpCreateCard:
		card, err := d.writer.CreateCard(ctx, ids[0], payload.Name, payload.Due)
		if err != nil {
			return nil, err
		}
		return cardOutcome(op, card), nil

	case OpMoveCard:
		card, err := d.writer.UpdateCard(ctx, ids[0], models.CardUpdate{ListID: ids[1]})
		if err != nil {
			return nil, err
		}
		return cardOutcome(op, card), nil

	case OpSetDueDate:
		card, err := d.writer.UpdateCard(ctx, ids[0], models.CardUpdate{Due: payload.Due})
		if err != nil {
			return nil, err
		}
		return cardOutcome(op, card), nil

	default: // OpAssignMember
		memberIDs, err := d.writer.AddMemberToCard(ctx, ids[0], ids[1])
		if err != nil {
			return nil, err
		}
		return &Outcome{Operation: op, ID: ids[0], MemberIDs: memberIDs}, nil
	}
}

func cardOutcome(op Operation, card *models.Card) *Outcome {
	return &Outcome{
		Operation: op,
		ID:        card.ID,
		Name:      card.Name,
		URL:       card.URL,
		ListID:    card.ListID,
		Due:       card.Due,
		MemberIDs: card.MemberIDs,
	}
}

func entityOf(op Operation) string {
	if op == OpCreateList {
		return errs.EntityList
	}
	return errs.EntityCard
}

func (d *Dispatcher) CreateList(ctx context.Context, boardID, name string) (*Outcome, error) {
	return d.Apply(ctx, OpCreateList, []string{boardID}, Payload{Name: name})
}

func (d *Dispatcher) CreateCard(ctx context.Context, listID, name, due string) (*Outcome, error) {
	return d.Apply(ctx, OpCreateCard, []string{listID}, Payload{Name: name, Due: due})
}

func (d *Dispatcher) MoveCard(ctx context.Context, cardID, targetListID string) (*Outcome, error) {
	return d.Apply(ctx, OpMoveCard, []string{cardID, targetListID}, Payload{})
}

func (d *Dispatcher) SetDueDate(ctx context.Context, cardID, due string) (*Outcome, error) {
	return d.Apply(ctx, OpSetDueDate, []string{cardID}, Payload{Due: due})
}

func (d *Dispatcher) AssignMember(ctx context.Context, cardID, memberID string) (*Outcome, error) {
	return d.Apply(ctx, OpAssignMember, []string{cardID, memberID}, Payload{})
}
