package models

import "time"

type CalendarEvent struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
}
