package pipeline

import (
	"fmt"
	"strings"

	"github.com/chxlky/trello-agent/internal/dispatcher"
	"github.com/chxlky/trello-agent/internal/errs"
	"go.uber.org/zap"
)

// scope names what the user asked for, so failures can be narrated with
// the user's own wording.
type scope struct {
	Board  string
	List   string
	Card   string
	Member string
}

const checkName = "Please check the name and try again."

// narrate renders err as the single sentence shown to the user. Upstream
// detail is never included.
func narrate(err error, sc scope) string {
	e, ok := errs.From(err)
	if !ok {
		return "Something went wrong while handling your request. Please try again later."
	}

	switch e.Kind {
	case errs.KindNotFound:
		switch e.Entity {
		case errs.EntityBoard:
			return fmt.Sprintf("I couldn't find a board named \"%s\". %s", e.Term, checkName)
		case errs.EntityList:
			return fmt.Sprintf("I couldn't find a list named \"%s\" in the \"%s\" board. %s", e.Term, sc.Board, checkName)
		case errs.EntityCard:
			return fmt.Sprintf("I couldn't find a card named \"%s\" in the \"%s\" list. %s", e.Term, sc.List, checkName)
		case errs.EntityMember:
			return fmt.Sprintf("I couldn't find a member matching \"%s\" on the \"%s\" board. %s", e.Term, sc.Board, checkName)
		}

	case errs.KindAmbiguous:
		return fmt.Sprintf("More than one member of the \"%s\" board matches \"%s\" (%s). Which one did you mean? Please give their full name.",
			sc.Board, e.Term, strings.Join(e.Candidates, ", "))

	case errs.KindRemoteFailure:
		return narrateRemote(e, sc)

	case errs.KindValidation:
		return "I couldn't process that request because some details were missing or invalid."
	}

	return "Something went wrong while handling your request. Please try again later."
}

func narrateRemote(e *errs.Error, sc scope) string {
	switch e.Op {
	case "list-boards":
		return "There was an error fetching your Trello boards. Please try again later."
	case "list-lists":
		return fmt.Sprintf("There was an error retrieving lists for the \"%s\" board. Please try again.", sc.Board)
	case "list-cards":
		return fmt.Sprintf("There was an error retrieving tasks in the \"%s\" list. Please try again.", sc.List)
	case "list-members":
		return fmt.Sprintf("There was an error retrieving members of the \"%s\" board. Please try again.", sc.Board)
	case string(dispatcher.OpCreateList):
		return "There was an error creating the list. Please try again."
	case string(dispatcher.OpCreateCard):
		return "There was an error creating the card. Please try again."
	case string(dispatcher.OpMoveCard):
		return "There was an error moving the card. Please try again."
	case string(dispatcher.OpSetDueDate):
		return "There was an error setting the due date. Please try again."
	case string(dispatcher.OpAssignMember):
		return "There was an error assigning the member to the card. Please try again."
	case opCreateEvent:
		return "Failed to schedule the meeting. Please try again later."
	}
	return "There was an error talking to Trello. Please try again later."
}

// stageOf names the step a failure happened in.
func stageOf(err error) string {
	e, ok := errs.From(err)
	if !ok {
		return "unknown"
	}
	if e.Kind == errs.KindRemoteFailure && e.Op != "" {
		return e.Op
	}
	if e.Entity != "" {
		return "resolve-" + e.Entity
	}
	return e.Kind.String()
}

// logFailure logs expected user-side misses at info and remote failures at
// error with their upstream detail.
func (p *Pipeline) logFailure(action string, err error) {
	fields := []zap.Field{zap.String("action", action), zap.String("stage", stageOf(err)), zap.Error(err)}

	e, ok := errs.From(err)
	if !ok || e.Kind == errs.KindRemoteFailure {
		if ok && e.Detail != "" {
			fields = append(fields, zap.String("upstream", e.Detail))
		}
		p.logger.Error("Action failed", fields...)
		return
	}
	p.logger.Info("Action could not be resolved", fields...)
}
