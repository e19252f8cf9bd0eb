package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationInitiativeCreated      NotificationType = "initiative_created"
	NotificationInitiativeApproved     NotificationType = "initiative_approved"
	NotificationInitiativeReviewFailed NotificationType = "initiative_review_failed"
	NotificationInitiativeStarted      NotificationType = "initiative_started"
	NotificationInitiativeCompleted    NotificationType = "initiative_completed"
	NotificationInitiativeCancelled    NotificationType = "initiative_cancelled"
	// Announcement targets all users, unrelated to any initiative.
	NotificationAnnouncement NotificationType = "announcement"
)

// Notification records a lifecycle event for a fixed set of recipients.
// The recipient set never changes after creation; only the per-recipient
// read flag does.
type Notification struct {
	ID           uuid.UUID        `json:"id" db:"id"`
	Type         NotificationType `json:"type" db:"type"`
	Message      string           `json:"message" db:"message"`
	Reason       *string          `json:"reason,omitempty" db:"reason"`
	InitiativeID *uuid.UUID       `json:"initiative_id,omitempty" db:"initiative_id"`
	IsBroadcast  bool             `json:"is_broadcast" db:"is_broadcast"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`

	Recipients []uuid.UUID `json:"recipients,omitempty" db:"-"`
}

// UserNotification is a notification joined with one recipient's read flag.
type UserNotification struct {
	Notification
	IsRead bool `json:"is_read" db:"is_read"`
}
