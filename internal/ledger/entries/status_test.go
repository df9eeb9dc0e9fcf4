package entries

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/massehanto/accounting-system/internal/ledger/shared"
)

func allStatuses() []EntryStatus {
	return []EntryStatus{StatusDraft, StatusPendingApproval, StatusApproved, StatusPosted, StatusCancelled}
}

func TestTransitionTable(t *testing.T) {
	allowed := map[EntryStatus]map[EntryStatus]bool{
		StatusDraft:           {StatusPendingApproval: true, StatusCancelled: true},
		StatusPendingApproval: {StatusApproved: true, StatusDraft: true, StatusCancelled: true},
		StatusApproved:        {StatusPosted: true, StatusCancelled: true},
		StatusPosted:          {},
		StatusCancelled:       {},
	}

	for _, from := range allStatuses() {
		for _, to := range allStatuses() {
			got := CanTransition(from, to)
			require.Equal(t, allowed[from][to], got, "%s -> %s", from, to)
		}
	}
}

func TestTerminalStatesRejectEverything(t *testing.T) {
	for _, to := range allStatuses() {
		err := CheckTransition(StatusPosted, to)
		require.ErrorIs(t, err, shared.ErrAlreadyPosted, "POSTED -> %s", to)

		err = CheckTransition(StatusCancelled, to)
		require.ErrorIs(t, err, shared.ErrAlreadyCancelled, "CANCELLED -> %s", to)
	}
}

func TestCheckTransitionReportsEndpoints(t *testing.T) {
	err := CheckTransition(StatusDraft, StatusPosted)
	var invalid *shared.InvalidTransitionError
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, "DRAFT", invalid.From)
	require.Equal(t, "POSTED", invalid.To)

	require.NoError(t, CheckTransition(StatusDraft, StatusPendingApproval))
	require.NoError(t, CheckTransition(StatusPendingApproval, StatusDraft))
	require.NoError(t, CheckTransition(StatusApproved, StatusPosted))
}

func TestStatusPredicates(t *testing.T) {
	for _, s := range allStatuses() {
		require.True(t, s.Valid())
	}
	require.False(t, EntryStatus("SHIPPED").Valid())

	require.True(t, StatusPosted.Terminal())
	require.True(t, StatusCancelled.Terminal())
	require.False(t, StatusDraft.Terminal())
	require.False(t, StatusPendingApproval.Terminal())
	require.False(t, StatusApproved.Terminal())
}
