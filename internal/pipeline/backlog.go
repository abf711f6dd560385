package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/chxlky/trello-agent/internal/errs"
	"github.com/chxlky/trello-agent/internal/models"
	"go.uber.org/zap"
)

type BacklogArgs struct {
	BoardName   string `json:"boardName" binding:"required"`
	ProjectName string `json:"projectName" binding:"required"`
	Description string `json:"description" binding:"required"`
	DueDate     string `json:"dueDate,omitempty"`
}

// BacklogListName is the name of the list a backlog build creates.
func BacklogListName(projectName string) string {
	return projectName + " Backlog"
}

// BuildBacklog resolves the board, creates the backlog list, splits the
// description into tasks and creates one card per task. Cards created before
// a failure stay in place; the narrative reports which tasks made it.
func (p *Pipeline) BuildBacklog(ctx context.Context, args BacklogArgs) Result {
	const action = "createProjectBacklog"
	listName := BacklogListName(args.ProjectName)
	sc := scope{Board: args.BoardName, List: listName}

	boardID, err := p.resolver.ResolveBoard(ctx, args.BoardName)
	if err != nil {
		return p.failure(action, err, sc)
	}

	list, err := p.dispatcher.CreateList(ctx, boardID, listName)
	if err != nil {
		return p.failure(action, err, sc)
	}

	taskNames := p.extractor.Extract(args.Description)
	if len(taskNames) == 0 {
		return Result{
			Action:    action,
			Narrative: "I couldn't find any tasks in the provided description. Please provide a detailed description.",
			Stage:     "extract-tasks",
		}
	}

	run := &models.BacklogRun{
		BoardID:   boardID,
		BoardName: args.BoardName,
		ListID:    list.ID,
		ListName:  listName,
		DueDate:   args.DueDate,
	}
	p.startRun(ctx, run, taskNames)

	for i, task := range taskNames {
		card, err := p.dispatcher.CreateCard(ctx, list.ID, task, args.DueDate)
		if err != nil {
			p.recordStep(ctx, run.ID, i, models.StepFailed, "", err)
			p.finishRun(ctx, run.ID, models.RunFailed)

			res := p.failure(action, err, sc)
			res.Narrative = partialNarrative(listName, args.BoardName, taskNames, i)
			res.RunID = run.ID
			return res
		}
		p.recordStep(ctx, run.ID, i, models.StepCreated, card.ID, nil)
	}
	p.finishRun(ctx, run.ID, models.RunCompleted)

	res := success(action, fmt.Sprintf("I successfully created a backlog list named \"%s\" in the \"%s\" board and added %d tasks!",
		listName, args.BoardName, len(taskNames)))
	res.RunID = run.ID
	return res
}

// partialNarrative reports the exact created / failed / not attempted split
// of a backlog build that failed at task index failed.
func partialNarrative(listName, boardName string, taskNames []string, failed int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "I created the backlog list \"%s\" in the \"%s\" board, but adding the task \"%s\" failed.",
		listName, boardName, taskNames[failed])

	if failed == 0 {
		b.WriteString(" No tasks were added.")
	} else {
		fmt.Fprintf(&b, " Added %d of %d tasks: %s.", failed, len(taskNames), quoteAll(taskNames[:failed]))
	}
	if rest := taskNames[failed+1:]; len(rest) > 0 {
		fmt.Fprintf(&b, " Not attempted: %s.", quoteAll(rest))
	}
	b.WriteString(" Please try again for the remaining tasks.")
	return b.String()
}

func quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "\"" + n + "\""
	}
	return strings.Join(quoted, ", ")
}

func (p *Pipeline) startRun(ctx context.Context, run *models.BacklogRun, taskNames []string) {
	if p.journal == nil {
		return
	}
	if err := p.journal.StartRun(ctx, run, taskNames); err != nil {
		p.logger.Warn("Failed to journal backlog run", zap.String("list", run.ListName), zap.Error(err))
	}
}

func (p *Pipeline) recordStep(ctx context.Context, runID string, position int, status models.StepStatus, cardID string, stepErr error) {
	if p.journal == nil || runID == "" {
		return
	}
	// the journal is served over the API, so only the failure category is
	// stored; the upstream detail is already logged
	var msg string
	if e, ok := errs.From(stepErr); ok {
		msg = e.Summary()
	} else if stepErr != nil {
		msg = "unexpected failure"
	}
	if err := p.journal.RecordStep(ctx, runID, position, status, cardID, msg); err != nil {
		p.logger.Warn("Failed to journal backlog step", zap.String("runID", runID), zap.Int("position", position), zap.Error(err))
	}
}

func (p *Pipeline) finishRun(ctx context.Context, runID string, status models.RunStatus) {
	if p.journal == nil || runID == "" {
		return
	}
	if err := p.journal.FinishRun(ctx, runID, status); err != nil {
		p.logger.Warn("Failed to finish backlog run", zap.String("runID", runID), zap.Error(err))
	}
}
