package review

import (
	"github.com/khadra/initiative-api/internal/model"
)

// Outcome is the result of tallying an initiative's review votes.
type Outcome string

const (
	OutcomeApprovedMajority       Outcome = "approved_majority"
	OutcomeFailedLackOfQuorum     Outcome = "failed_lack_of_quorum"
	OutcomeFailedByMajorityReject Outcome = "failed_by_majority_reject"
)

// Evaluate tallies votes against the quorum. The quorum counts total votes,
// not approvals. A tie resolves to approval: the policy leans toward letting
// initiatives happen.
func Evaluate(counts model.VoteCounts, quorum int) Outcome {
	if counts.Total() < quorum {
		return OutcomeFailedLackOfQuorum
	}
	if counts.Approve >= counts.Reject {
		return OutcomeApprovedMajority
	}
	return OutcomeFailedByMajorityReject
}
