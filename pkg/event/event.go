package event

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/khadra/initiative-api/internal/model"
)

type Type string

// Lifecycle event types. Values double as notification types.
const (
	TypeInitiativeCreated      Type = "initiative_created"
	TypeInitiativeApproved     Type = "initiative_approved"
	TypeInitiativeReviewFailed Type = "initiative_review_failed"
	TypeInitiativeStarted      Type = "initiative_started"
	TypeInitiativeCompleted    Type = "initiative_completed"
	TypeInitiativeCancelled    Type = "initiative_cancelled"
)

// Review failure reasons carried in the event payload.
const (
	ReasonLackOfReviews      = "lack_of_reviews"
	ReasonRejectedByManagers = "rejected_by_managers"
)

// Event is the wire form published to the broker after the notification
// record is written.
type Event struct {
	Type         Type        `json:"type"`
	InitiativeID uuid.UUID   `json:"initiative_id"`
	Recipients   []uuid.UUID `json:"recipients"`
	Reason       string      `json:"reason,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// Emitter resolves recipients for a lifecycle event and records it. The
// lifecycle service emits through this interface so it stays testable
// without a store or broker behind it.
type Emitter interface {
	Emit(ctx context.Context, typ Type, initiative *model.Initiative, reason string) error
}
