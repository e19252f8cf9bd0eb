package model

import (
	"time"

	"github.com/google/uuid"
)

type ReviewVote string

const (
	ReviewVoteApprove ReviewVote = "approve"
	ReviewVoteReject  ReviewVote = "reject"
)

// Review is a manager's vote on an initiative under review. Reviews are
// immutable; a manager votes at most once per initiative.
type Review struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	InitiativeID uuid.UUID  `json:"initiative_id" db:"initiative_id"`
	ManagerID    uuid.UUID  `json:"manager_id" db:"manager_id"`
	Vote         ReviewVote `json:"vote" db:"vote"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

type SubmitReviewRequest struct {
	Vote string `json:"vote" binding:"required,oneof=approve reject"`
}

// VoteCounts is an aggregate of votes for one initiative.
type VoteCounts struct {
	Approve int `db:"approve_count"`
	Reject  int `db:"reject_count"`
}

func (v VoteCounts) Total() int {
	return v.Approve + v.Reject
}
