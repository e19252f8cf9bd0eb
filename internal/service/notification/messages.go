package notification

import (
	"github.com/khadra/initiative-api/pkg/event"
)

// Single source of truth for user-facing notification text.
var messages = map[event.Type]string{
	event.TypeInitiativeCreated:      "A new initiative was proposed and is waiting for your review.",
	event.TypeInitiativeApproved:     "Your initiative has been approved and is now upcoming.",
	event.TypeInitiativeReviewFailed: "Your initiative did not pass the review period.",
	event.TypeInitiativeStarted:      "An initiative you are part of has started.",
	event.TypeInitiativeCompleted:    "An initiative you are part of has been completed. Thank you!",
	event.TypeInitiativeCancelled:    "An initiative you are part of has been cancelled.",
}

var reasonMessages = map[string]string{
	event.ReasonLackOfReviews:      "It did not receive enough reviews.",
	event.ReasonRejectedByManagers: "It was rejected by a majority of reviewers.",
}
