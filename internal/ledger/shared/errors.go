package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyEntry indicates a journal entry without lines.
	ErrEmptyEntry = errors.New("ledger: journal entry requires at least one line")
	// ErrInvalidLineAmounts indicates a line violating the debit-xor-credit rule.
	ErrInvalidLineAmounts = errors.New("ledger: line must carry exactly one of debit or credit, strictly positive")
	// ErrInvalidAccountReference indicates a line referencing an unknown account.
	ErrInvalidAccountReference = errors.New("ledger: line references unknown account")
	// ErrInactiveAccount indicates a line referencing a deactivated account.
	ErrInactiveAccount = errors.New("ledger: line references inactive account")
	// ErrImbalancedEntry indicates debits != credits.
	ErrImbalancedEntry = errors.New("ledger: journal lines must balance")
	// ErrAlreadyPosted indicates a mutation against a posted entry.
	ErrAlreadyPosted = errors.New("ledger: journal entry is already posted")
	// ErrAlreadyCancelled indicates a mutation against a cancelled entry.
	ErrAlreadyCancelled = errors.New("ledger: journal entry is already cancelled")
	// ErrStaleVersion indicates the entry changed since it was read.
	ErrStaleVersion = errors.New("ledger: journal entry modified concurrently, re-read and retry")
	// ErrEntryNotFound indicates a missing journal entry.
	ErrEntryNotFound = errors.New("ledger: journal entry not found")
	// ErrAccountNotFound indicates a missing account.
	ErrAccountNotFound = errors.New("ledger: account not found")
	// ErrNotDeletable indicates a delete outside DRAFT.
	ErrNotDeletable = errors.New("ledger: only draft entries may be deleted")
	// ErrNotEditable indicates a field mutation outside DRAFT/PENDING_APPROVAL.
	ErrNotEditable = errors.New("ledger: entry fields are frozen in this status")
	// ErrAccountCycle indicates a parent chain that loops back on itself.
	ErrAccountCycle = errors.New("ledger: account parent chain forms a cycle")
	// ErrIntegrityFault indicates persisted state violating a core invariant.
	ErrIntegrityFault = errors.New("ledger: fatal integrity fault, status and is_posted disagree")
)

// InvalidTransitionError reports a lifecycle change outside the allowed table.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("ledger: invalid status transition from %s to %s", e.From, e.To)
}

// LineError attaches a line index to a validation failure.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }
