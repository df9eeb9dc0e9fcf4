package entries

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/massehanto/accounting-system/internal/ledger/shared"
)

// AccountState is the slice of account data the validator needs. The
// service resolves it through the account directory before validating so
// validation itself stays pure.
type AccountState struct {
	Known  bool
	Active bool
}

// Validate enforces the structural and balance rules on a candidate line
// set. Rules are checked in fixed precedence: empty entry, per-line
// amounts, account references, balance. The first failing rule wins.
func Validate(lines []LineInput, accounts map[uuid.UUID]AccountState) error {
	if len(lines) == 0 {
		return shared.ErrEmptyEntry
	}
	for idx, line := range lines {
		if line.DebitAmount.IsNegative() || line.CreditAmount.IsNegative() {
			return &shared.LineError{Line: idx + 1, Err: shared.ErrInvalidLineAmounts}
		}
		// Amounts persist at cent precision, so positivity is judged on
		// the rounded values. A sub-cent-only line would otherwise be
		// stored as 0.00 on both sides.
		hasDebit := line.DebitAmount.Round(2).IsPositive()
		hasCredit := line.CreditAmount.Round(2).IsPositive()
		if hasDebit == hasCredit {
			return &shared.LineError{Line: idx + 1, Err: shared.ErrInvalidLineAmounts}
		}
	}
	for idx, line := range lines {
		state := accounts[line.AccountID]
		if !state.Known {
			return &shared.LineError{Line: idx + 1, Err: shared.ErrInvalidAccountReference}
		}
		if !state.Active {
			return &shared.LineError{Line: idx + 1, Err: shared.ErrInactiveAccount}
		}
	}
	debit, credit := Totals(lines)
	if !debit.Equal(credit) {
		return shared.ErrImbalancedEntry
	}
	return nil
}

// Balanced reports whether an entry's persisted totals agree at cent
// precision. Used by the integrity scan.
func Balanced(debit, credit decimal.Decimal) bool {
	return debit.Round(2).Equal(credit.Round(2))
}
