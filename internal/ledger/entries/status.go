package entries

import "github.com/massehanto/accounting-system/internal/ledger/shared"

// transitions is the closed lifecycle table. POSTED and CANCELLED have no
// outgoing edges, not even to themselves.
var transitions = map[EntryStatus][]EntryStatus{
	StatusDraft:           {StatusPendingApproval, StatusCancelled},
	StatusPendingApproval: {StatusApproved, StatusDraft, StatusCancelled},
	StatusApproved:        {StatusPosted, StatusCancelled},
	StatusPosted:          nil,
	StatusCancelled:       nil,
}

// CanTransition reports whether the table allows from -> to.
func CanTransition(from, to EntryStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// CheckTransition validates a requested lifecycle change. Terminal states
// yield their dedicated error so callers can distinguish "posted" from a
// merely illegal edge.
func CheckTransition(from, to EntryStatus) error {
	if from == StatusPosted {
		return shared.ErrAlreadyPosted
	}
	if from == StatusCancelled {
		return shared.ErrAlreadyCancelled
	}
	if !CanTransition(from, to) {
		return &shared.InvalidTransitionError{From: string(from), To: string(to)}
	}
	return nil
}
