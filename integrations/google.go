package integrations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chxlky/trello-agent/internal/models"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

type CalendarClient struct {
	service    *calendar.Service
	calendarID string
}

// NewCalendarClient authenticates with the service account stored under
// google.service_account. The signed-assertion exchange for a bearer token is
// performed by the oauth2 JWT config on first use and refreshed on expiry.
func NewCalendarClient(ctx context.Context) (*CalendarClient, error) {
	settings := viper.Get("google.service_account")
	if settings == nil {
		return nil, fmt.Errorf("google.service_account is not configured")
	}

	jsonBytes, err := json.Marshal(settings)
	if err != nil {
		return nil, fmt.Errorf("unable to marshal service account settings to JSON: %w", err)
	}

	// create credentials from JSON data
	config, err := google.JWTConfigFromJSON(jsonBytes, calendar.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse service account credentials from JSON: %w", err)
	}

	calendarID := viper.GetString("google.calendar.calendar_id")
	if calendarID == "" {
		return nil, fmt.Errorf("google calendar ID is not configured")
	}

	return NewCalendarClientWithOptions(ctx, calendarID, option.WithHTTPClient(config.Client(ctx)))
}

// NewCalendarClientWithOptions builds a client over an explicitly configured
// calendar service.
func NewCalendarClientWithOptions(ctx context.Context, calendarID string, opts ...option.ClientOption) (*CalendarClient, error) {
	srv, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Calendar client: %w", err)
	}

	return &CalendarClient{service: srv, calendarID: calendarID}, nil
}

// CreateEvent inserts a timed event and returns its HTML link.
func (c *CalendarClient) CreateEvent(ctx context.Context, ev models.CalendarEvent) (string, error) {
	if !ev.End.After(ev.Start) {
		return "", fmt.Errorf("event end %s is not after start %s", ev.End.Format(time.RFC3339), ev.Start.Format(time.RFC3339))
	}

	event := &calendar.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
		Start: &calendar.EventDateTime{
			DateTime: ev.Start.Format(time.RFC3339),
		},
		End: &calendar.EventDateTime{
			DateTime: ev.End.Format(time.RFC3339),
		},
	}

	createdEvent, err := c.service.Events.Insert(c.calendarID, event).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to create event in Google Calendar: %w", &CalendarError{err: err})
	}

	zap.L().Debug("Created calendar event", zap.String("eventID", createdEvent.Id), zap.String("summary", createdEvent.Summary))

	return createdEvent.HtmlLink, nil
}

// CalendarError exposes the googleapi error body for logging.
type CalendarError struct {
	err error
}

func (e *CalendarError) Error() string { return e.err.Error() }

func (e *CalendarError) Unwrap() error { return e.err }

func (e *CalendarError) UpstreamDetail() string {
	var gerr *googleapi.Error
	if errors.As(e.err, &gerr) {
		return fmt.Sprintf("status=%d body=%s", gerr.Code, gerr.Body)
	}
	return e.err.Error()
}
