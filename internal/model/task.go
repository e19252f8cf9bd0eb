package model

import (
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
)

// Task names dispatched by the scheduler runner.
const (
	TaskEvaluateInitiative = "initiative.evaluate"
	TaskStartInitiative    = "initiative.start"
	TaskCompleteInitiative = "initiative.complete"
)

// ScheduledTask is a unit of work to run at or after RunAt. Execution is
// at-least-once: a crashed worker leaves the row pending and another picks
// it up, so handlers must tolerate duplicate delivery.
type ScheduledTask struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	InitiativeID uuid.UUID  `json:"initiative_id" db:"initiative_id"`
	RunAt        time.Time  `json:"run_at" db:"run_at"`
	Status       TaskStatus `json:"status" db:"status"`
	Attempts     int        `json:"attempts" db:"attempts"`
	LastError    *string    `json:"last_error,omitempty" db:"last_error"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}
