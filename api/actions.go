package api

import (
	"bytes"
	"context"
	"errors"
	"sort"

	"github.com/chxlky/trello-agent/internal/errs"
	"github.com/chxlky/trello-agent/internal/pipeline"
	"github.com/gin-gonic/gin/binding"
)

var ErrUnknownAction = errors.New("unknown action")

// Action is one named capability exposed to the hosting agent.
type Action struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Examples    []string `json:"examples"`

	run func(ctx context.Context, p *pipeline.Pipeline, raw []byte) (pipeline.Result, error)
}

// ActionResponse is what every invocation returns. Committed is false only
// when the arguments were rejected before any step ran.
type ActionResponse struct {
	Action    string `json:"action"`
	Narrative string `json:"narrative"`
	Success   bool   `json:"success"`
	Committed bool   `json:"committed"`
	Stage     string `json:"stage,omitempty"`
	RunID     string `json:"runId,omitempty"`
	Error     string `json:"error,omitempty"`
}

func define[T any](name, description string, examples []string, call func(*pipeline.Pipeline, context.Context, T) pipeline.Result) Action {
	return Action{
		Name:        name,
		Description: description,
		Examples:    examples,
		run: func(ctx context.Context, p *pipeline.Pipeline, raw []byte) (pipeline.Result, error) {
			var args T
			if len(bytes.TrimSpace(raw)) == 0 {
				raw = []byte("{}")
			}
			if err := binding.JSON.BindBody(raw, &args); err != nil {
				return pipeline.Result{}, errs.Validation("invalid arguments for %s: %w", name, err)
			}
			return call(p, ctx, args), nil
		},
	}
}

type noArgs struct{}

var catalogue = map[string]Action{}

func register(a Action) {
	catalogue[a.Name] = a
}

func init() {
	register(define("fetchBoards",
		"List the user's boards with links.",
		[]string{`{}`},
		func(p *pipeline.Pipeline, ctx context.Context, _ noArgs) pipeline.Result { return p.ListBoards(ctx) }))

	register(define("createList",
		"Create a list on a board.",
		[]string{`{"boardName": "Agentika", "listName": "Backlog"}`},
		(*pipeline.Pipeline).CreateList))

	register(define("fetchCardsInList",
		"List the cards in a list of a board.",
		[]string{`{"boardName": "Agentika", "listName": "To-Do"}`},
		(*pipeline.Pipeline).FetchCardsInList))

	register(define("createCard",
		"Create a card in a list, optionally with a due date.",
		[]string{
			`{"boardName": "Agentika", "listName": "To-Do", "cardName": "Finish documentation"}`,
			`{"boardName": "Agentika", "listName": "To-Do", "cardName": "Prepare demo", "dueDate": "2024-11-20"}`,
		},
		(*pipeline.Pipeline).CreateCard))

	register(define("moveCard",
		"Move a card from one list to another on the same board.",
		[]string{`{"boardName": "Agentika", "sourceListName": "To-Do", "targetListName": "Done", "cardName": "Finish documentation"}`},
		(*pipeline.Pipeline).MoveCard))

	register(define("assignMemberToCard",
		"Assign a board member to a card. Partial names match first or last names.",
		[]string{`{"boardName": "Agentika", "listName": "To-Do", "cardName": "Update designs", "memberName": "John"}`},
		(*pipeline.Pipeline).AssignMember))

	register(define("setCardDueDate",
		"Set the due date of a card.",
		[]string{`{"boardName": "Agentika", "listName": "To-Do", "cardName": "Update designs", "dueDate": "2024-11-20"}`},
		(*pipeline.Pipeline).SetDueDate))

	register(define("createProjectBacklog",
		"Create a \"<project> Backlog\" list and one card per sentence of the description.",
		[]string{`{"boardName": "Agentika", "projectName": "Website Redesign", "description": "Update homepage. Add blog. Test.", "dueDate": "2024-11-20"}`},
		(*pipeline.Pipeline).BuildBacklog))

	register(define("scheduleMeeting",
		"Schedule a calendar meeting. Times are RFC 3339.",
		[]string{`{"summary": "Team Sync", "startDateTime": "2024-11-20T10:00:00Z", "endDateTime": "2024-11-20T11:00:00Z", "description": "Discuss project updates."}`},
		(*pipeline.Pipeline).ScheduleMeeting))
}

// Actions returns the catalogue sorted by name.
func Actions() []Action {
	out := make([]Action, 0, len(catalogue))
	for _, a := range catalogue {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Lookup returns the catalogue entry for name.
func Lookup(name string) (Action, bool) {
	a, ok := catalogue[name]
	return a, ok
}

// Invoke runs the named action with JSON arguments. It returns
// ErrUnknownAction for names outside the catalogue and a validation error
// when the arguments do not bind; both happen before any remote call.
func Invoke(ctx context.Context, p *pipeline.Pipeline, name string, raw []byte) (ActionResponse, error) {
	a, ok := catalogue[name]
	if !ok {
		return ActionResponse{Action: name}, ErrUnknownAction
	}

	res, err := a.run(ctx, p, raw)
	if err != nil {
		return ActionResponse{
			Action:    name,
			Narrative: "I couldn't process that request because some details were missing or invalid.",
			Stage:     "validate",
			Error:     err.Error(),
		}, err
	}

	return ActionResponse{
		Action:    res.Action,
		Narrative: res.Narrative,
		Success:   res.Success,
		Committed: true,
		Stage:     res.Stage,
		RunID:     res.RunID,
	}, nil
}
