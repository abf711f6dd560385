package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/chxlky/trello-agent/internal/errs"
	"github.com/chxlky/trello-agent/internal/models"
)

type MeetingArgs struct {
	Summary       string    `json:"summary" binding:"required"`
	StartDateTime time.Time `json:"startDateTime" binding:"required"`
	EndDateTime   time.Time `json:"endDateTime" binding:"required,gtfield=StartDateTime"`
	Description   string    `json:"description,omitempty"`
}

// ScheduleMeeting creates a calendar event. It touches no Trello state.
func (p *Pipeline) ScheduleMeeting(ctx context.Context, args MeetingArgs) Result {
	const action = "scheduleMeeting"

	if p.scheduler == nil {
		return Result{
			Action:    action,
			Narrative: "Meeting scheduling is not configured. Please set up the calendar integration first.",
			Stage:     opCreateEvent,
		}
	}

	link, err := p.scheduler.CreateEvent(ctx, models.CalendarEvent{
		Summary:     args.Summary,
		Description: args.Description,
		Start:       args.StartDateTime,
		End:         args.EndDateTime,
	})
	if err != nil {
		return p.failure(action, errs.Remote(opCreateEvent, errs.EntityEvent, args.Summary, err), scope{})
	}

	return success(action, fmt.Sprintf("Meeting scheduled successfully! Here is the link: %s", link))
}
