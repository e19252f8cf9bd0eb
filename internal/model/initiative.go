package model

import (
	"time"

	"github.com/google/uuid"
)

type InitiativeStatus string

const (
	InitiativeStatusUnderReview  InitiativeStatus = "under_review"
	InitiativeStatusUpcoming     InitiativeStatus = "upcoming"
	InitiativeStatusOngoing      InitiativeStatus = "ongoing"
	InitiativeStatusCompleted    InitiativeStatus = "completed"
	InitiativeStatusReviewFailed InitiativeStatus = "review_failed"
	InitiativeStatusCancelled    InitiativeStatus = "cancelled"
)

// Initiative is a volunteer-proposed civic action anchored to a point.
// Status starts at under_review and is mutated only by the lifecycle
// service afterwards.
type Initiative struct {
	ID                 uuid.UUID        `json:"id" db:"id"`
	Status             InitiativeStatus `json:"status" db:"status"`
	Info               string           `json:"info" db:"info"`
	CityID             *uuid.UUID       `json:"city_id,omitempty" db:"city_id"`
	Longitude          float64          `json:"longitude" db:"longitude"`
	Latitude           float64          `json:"latitude" db:"latitude"`
	RequiredVolunteers int              `json:"required_volunteers" db:"required_volunteers"`
	ScheduledAt        time.Time        `json:"scheduled_at" db:"scheduled_at"`
	DurationDays       int              `json:"duration_days" db:"duration_days"`
	EndsAt             *time.Time       `json:"ends_at,omitempty" db:"ends_at"`
	CreatedBy          uuid.UUID        `json:"created_by" db:"created_by"`
	CreatedAt          time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at" db:"updated_at"`
}

// EndTime returns the explicit end time, or one derived from the scheduled
// start plus the duration in days.
func (i *Initiative) EndTime() time.Time {
	if i.EndsAt != nil {
		return *i.EndsAt
	}
	return i.ScheduledAt.Add(time.Duration(i.DurationDays) * 24 * time.Hour)
}

// IsTerminal reports whether the status admits no further transitions.
func (i *Initiative) IsTerminal() bool {
	switch i.Status {
	case InitiativeStatusCompleted, InitiativeStatusReviewFailed, InitiativeStatusCancelled:
		return true
	}
	return false
}

type CreateInitiativeRequest struct {
	Info               string    `json:"info" binding:"max=2000"`
	Longitude          float64   `json:"longitude" binding:"required,min=-180,max=180"`
	Latitude           float64   `json:"latitude" binding:"required,min=-90,max=90"`
	RequiredVolunteers int       `json:"required_volunteers" binding:"required,min=1"`
	ScheduledAt        time.Time `json:"scheduled_at" binding:"required"`
	DurationDays       int       `json:"duration_days" binding:"required,min=1"`
}

type InitiativeFilters struct {
	Status    InitiativeStatus
	CityID    uuid.UUID
	CreatedBy uuid.UUID
}
