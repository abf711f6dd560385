package models

import "time"

type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

type StepStatus string

const (
	StepPending StepStatus = "pending"
	StepCreated StepStatus = "created"
	StepFailed  StepStatus = "failed"
	StepSkipped StepStatus = "skipped"
)

// BacklogRun is the journal entry for one createProjectBacklog invocation.
type BacklogRun struct {
	ID        string        `gorm:"primaryKey" json:"id"`
	BoardID   string        `json:"boardId"`
	BoardName string        `json:"boardName"`
	ListID    string        `json:"listId"`
	ListName  string        `json:"listName"`
	DueDate   string        `json:"dueDate,omitempty"`
	Status    RunStatus     `gorm:"default:pending" json:"status"`
	Steps     []BacklogStep `gorm:"foreignKey:RunID" json:"steps"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// BacklogStep records the fate of a single extracted task.
type BacklogStep struct {
	ID        uint       `gorm:"primaryKey" json:"-"`
	RunID     string     `gorm:"index" json:"-"`
	Position  int        `json:"position"`
	Task      string     `json:"task"`
	CardID    string     `json:"cardId,omitempty"`
	Status    StepStatus `gorm:"default:pending" json:"status"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"-"`
	UpdatedAt time.Time  `json:"updatedAt"`
}
