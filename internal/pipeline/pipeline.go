// Package pipeline composes name resolution, task extraction and mutation
// dispatch into the user-facing actions. Every action ends in exactly one
// Result carrying a one-sentence narrative.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/chxlky/trello-agent/internal/dispatcher"
	"github.com/chxlky/trello-agent/internal/errs"
	"github.com/chxlky/trello-agent/internal/models"
	"github.com/chxlky/trello-agent/internal/resolver"
	"github.com/chxlky/trello-agent/internal/tasks"
	"go.uber.org/zap"
)

const opCreateEvent = "create-event"

// Scheduler creates calendar events and returns a link to the new event.
type Scheduler interface {
	CreateEvent(ctx context.Context, ev models.CalendarEvent) (string, error)
}

// Journal records backlog runs. Journal errors are logged and never fail the
// action.
type Journal interface {
	StartRun(ctx context.Context, run *models.BacklogRun, tasks []string) error
	RecordStep(ctx context.Context, runID string, position int, status models.StepStatus, cardID, errMsg string) error
	FinishRun(ctx context.Context, runID string, status models.RunStatus) error
}

// Result is the terminal outcome of one action invocation.
type Result struct {
	Action    string `json:"action"`
	Success   bool   `json:"success"`
	Narrative string `json:"narrative"`
	Stage     string `json:"stage,omitempty"`
	RunID     string `json:"runId,omitempty"`
	Err       error  `json:"-"`
}

type Config struct {
	Resolver   *resolver.Resolver
	Dispatcher *dispatcher.Dispatcher
	Extractor  tasks.Extractor
	Scheduler  Scheduler
	Journal    Journal
	Logger     *zap.Logger
}

type Pipeline struct {
	resolver   *resolver.Resolver
	dispatcher *dispatcher.Dispatcher
	extractor  tasks.Extractor
	scheduler  Scheduler
	journal    Journal
	logger     *zap.Logger
}

func New(cfg Config) *Pipeline {
	extractor := cfg.Extractor
	if extractor == nil {
		extractor = tasks.SentenceSplitter{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.L()
	}
	return &Pipeline{
		resolver:   cfg.Resolver,
		dispatcher: cfg.Dispatcher,
		extractor:  extractor,
		scheduler:  cfg.Scheduler,
		journal:    cfg.Journal,
		logger:     logger,
	}
}

// Resolver exposes the underlying resolver so callers can refresh or
// invalidate its board cache.
func (p *Pipeline) Resolver() *resolver.Resolver {
	return p.resolver
}

func success(action, narrative string) Result {
	return Result{Action: action, Success: true, Narrative: narrative}
}

func (p *Pipeline) failure(action string, err error, sc scope) Result {
	p.logFailure(action, err)
	return Result{
		Action:    action,
		Narrative: narrate(err, sc),
		Stage:     stageOf(err),
		Err:       err,
	}
}

func (p *Pipeline) ListBoards(ctx context.Context) Result {
	const action = "fetchBoards"

	boards, err := p.resolver.Boards(ctx)
	if err != nil {
		return p.failure(action, err, scope{})
	}
	if len(boards) == 0 {
		return success(action, "It seems you have no ongoing projects at the moment.")
	}

	var b strings.Builder
	b.WriteString("Here are your ongoing projects:\n\n")
	for i, board := range boards {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d. %s - [Link](%s)", i+1, board.Name, board.URL)
	}
	return success(action, b.String())
}

type CreateListArgs struct {
	BoardName string `json:"boardName" binding:"required"`
	ListName  string `json:"listName" binding:"required"`
}

func (p *Pipeline) CreateList(ctx context.Context, args CreateListArgs) Result {
	const action = "createList"
	sc := scope{Board: args.BoardName, List: args.ListName}

	boardID, err := p.resolver.ResolveBoard(ctx, args.BoardName)
	if err != nil {
		return p.failure(action, err, sc)
	}
	if _, err := p.dispatcher.CreateList(ctx, boardID, args.ListName); err != nil {
		return p.failure(action, err, sc)
	}

	return success(action, fmt.Sprintf("Successfully created the list \"%s\" in the \"%s\" board!", args.ListName, args.BoardName))
}

type FetchCardsArgs struct {
	BoardName string `json:"boardName" binding:"required"`
	ListName  string `json:"listName" binding:"required"`
}

func (p *Pipeline) FetchCardsInList(ctx context.Context, args FetchCardsArgs) Result {
	const action = "fetchCardsInList"
	sc := scope{Board: args.BoardName, List: args.ListName}

	ids, err := p.resolver.Resolve(ctx, []resolver.Step{
		{Level: resolver.LevelBoard, Name: args.BoardName},
		{Level: resolver.LevelList, Name: args.ListName},
	})
	if err != nil {
		return p.failure(action, err, sc)
	}

	cards, err := p.resolver.Cards(ctx, ids[1])
	if err != nil {
		return p.failure(action, err, sc)
	}
	if len(cards) == 0 {
		return success(action, fmt.Sprintf("The list \"%s\" is currently empty.", args.ListName))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Here are the tasks in the \"%s\" list:\n\n", args.ListName)
	for i, card := range cards {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d. %s - [Link](%s)", i+1, card.Name, card.URL)
	}
	return success(action, b.String())
}

type CreateCardArgs struct {
	BoardName string `json:"boardName" binding:"required"`
	ListName  string `json:"listName" binding:"required"`
	CardName  string `json:"cardName" binding:"required"`
	DueDate   string `json:"dueDate,omitempty"`
}

func (p *Pipeline) CreateCard(ctx context.Context, args CreateCardArgs) Result {
	const action = "createCard"
	sc := scope{Board: args.BoardName, List: args.ListName, Card: args.CardName}

	ids, err := p.resolver.Resolve(ctx, []resolver.Step{
		{Level: resolver.LevelBoard, Name: args.BoardName},
		{Level: resolver.LevelList, Name: args.ListName},
	})
	if err != nil {
		return p.failure(action, err, sc)
	}
	if _, err := p.dispatcher.CreateCard(ctx, ids[1], args.CardName, args.DueDate); err != nil {
		return p.failure(action, err, sc)
	}

	narrative := fmt.Sprintf("Successfully created the card \"%s\" in the \"%s\" list of the \"%s\" board!",
		args.CardName, args.ListName, args.BoardName)
	if args.DueDate != "" {
		narrative += fmt.Sprintf(" It is due %s.", args.DueDate)
	}
	return success(action, narrative)
}

type MoveCardArgs struct {
	BoardName      string `json:"boardName" binding:"required"`
	SourceListName string `json:"sourceListName" binding:"required"`
	TargetListName string `json:"targetListName" binding:"required"`
	CardName       string `json:"cardName" binding:"required"`
}

// MoveCard resolves both lists from one listing of the board, then looks the
// card up within the source list.
func (p *Pipeline) MoveCard(ctx context.Context, args MoveCardArgs) Result {
	const action = "moveCard"
	sc := scope{Board: args.BoardName, List: args.SourceListName, Card: args.CardName}

	boardID, err := p.resolver.ResolveBoard(ctx, args.BoardName)
	if err != nil {
		return p.failure(action, err, sc)
	}

	lists, err := p.resolver.Lists(ctx, boardID)
	if err != nil {
		return p.failure(action, err, sc)
	}
	sourceID, err := resolver.Lookup(lists, errs.EntityList, args.SourceListName)
	if err != nil {
		return p.failure(action, err, sc)
	}
	targetID, err := resolver.Lookup(lists, errs.EntityList, args.TargetListName)
	if err != nil {
		return p.failure(action, err, sc)
	}

	cardID, err := p.resolver.ResolveCard(ctx, sourceID, args.CardName)
	if err != nil {
		return p.failure(action, err, sc)
	}

	if _, err := p.dispatcher.MoveCard(ctx, cardID, targetID); err != nil {
		return p.failure(action, err, sc)
	}

	return success(action, fmt.Sprintf("Successfully moved the card \"%s\" from \"%s\" to \"%s\" in the \"%s\" board!",
		args.CardName, args.SourceListName, args.TargetListName, args.BoardName))
}

type AssignMemberArgs struct {
	BoardName  string `json:"boardName" binding:"required"`
	ListName   string `json:"listName" binding:"required"`
	CardName   string `json:"cardName" binding:"required"`
	MemberName string `json:"memberName" binding:"required"`
}

func (p *Pipeline) AssignMember(ctx context.Context, args AssignMemberArgs) Result {
	const action = "assignMemberToCard"
	sc := scope{Board: args.BoardName, List: args.ListName, Card: args.CardName, Member: args.MemberName}

	ids, err := p.resolver.Resolve(ctx, []resolver.Step{
		{Level: resolver.LevelBoard, Name: args.BoardName},
		{Level: resolver.LevelList, Name: args.ListName},
		{Level: resolver.LevelCard, Name: args.CardName},
	})
	if err != nil {
		return p.failure(action, err, sc)
	}

	member, err := p.resolver.ResolveMember(ctx, ids[0], args.MemberName)
	if err != nil {
		return p.failure(action, err, sc)
	}

	if _, err := p.dispatcher.AssignMember(ctx, ids[2], member.ID); err != nil {
		return p.failure(action, err, sc)
	}

	return success(action, fmt.Sprintf("Successfully assigned %s to the card \"%s\" in the \"%s\" list!",
		member.FullName, args.CardName, args.ListName))
}

type SetDueDateArgs struct {
	BoardName string `json:"boardName" binding:"required"`
	ListName  string `json:"listName" binding:"required"`
	CardName  string `json:"cardName" binding:"required"`
	DueDate   string `json:"dueDate" binding:"required"`
}

// SetDueDate passes the date through to Trello without interpreting it.
func (p *Pipeline) SetDueDate(ctx context.Context, args SetDueDateArgs) Result {
	const action = "setCardDueDate"
	sc := scope{Board: args.BoardName, List: args.ListName, Card: args.CardName}

	ids, err := p.resolver.Resolve(ctx, []resolver.Step{
		{Level: resolver.LevelBoard, Name: args.BoardName},
		{Level: resolver.LevelList, Name: args.ListName},
		{Level: resolver.LevelCard, Name: args.CardName},
	})
	if err != nil {
		return p.failure(action, err, sc)
	}

	if _, err := p.dispatcher.SetDueDate(ctx, ids[2], args.DueDate); err != nil {
		return p.failure(action, err, sc)
	}

	return success(action, fmt.Sprintf("Successfully set the due date of the card \"%s\" to %s!", args.CardName, args.DueDate))
}
