package entries

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineInput describes one candidate journal line.
type LineInput struct {
	AccountID    uuid.UUID
	Description  string
	DebitAmount  decimal.Decimal
	CreditAmount decimal.Decimal
}

// CreateInput groups fields required to create a journal entry in DRAFT.
type CreateInput struct {
	CompanyID   uuid.UUID
	EntryDate   time.Time
	Description string
	Reference   string
	CreatedBy   uuid.UUID
	Lines       []LineInput
}

// UpdateInput patches a DRAFT or PENDING_APPROVAL entry. Nil fields are
// left untouched; non-nil Lines replace the full line set.
type UpdateInput struct {
	EntryDate   *time.Time
	Description *string
	Reference   *string
	Lines       []LineInput
}

// ListFilter narrows and pages List results.
type ListFilter struct {
	Status EntryStatus
	Limit  int
	Offset int
}

const (
	defaultListLimit = 50
	maxListLimit     = 1000
)

func (f ListFilter) normalize() ListFilter {
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// Totals sums the debit and credit sides of a line set at cent precision.
// Each line is rounded first so the totals always equal the sum of the
// amounts as they are persisted.
func Totals(lines []LineInput) (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, line := range lines {
		debit = debit.Add(line.DebitAmount.Round(2))
		credit = credit.Add(line.CreditAmount.Round(2))
	}
	return debit, credit
}
