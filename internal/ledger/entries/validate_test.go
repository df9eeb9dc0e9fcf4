package entries

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/massehanto/accounting-system/internal/ledger/shared"
)

func TestValidateEmptyEntry(t *testing.T) {
	err := Validate(nil, nil)
	require.ErrorIs(t, err, shared.ErrEmptyEntry)
}

func TestValidateLineAmountRules(t *testing.T) {
	account := uuid.New()
	known := map[uuid.UUID]AccountState{account: {Known: true, Active: true}}

	cases := []struct {
		name   string
		debit  decimal.Decimal
		credit decimal.Decimal
	}{
		{"both zero", decimal.Zero, decimal.Zero},
		{"both sides set", decimal.NewFromInt(10), decimal.NewFromInt(10)},
		{"negative debit", decimal.NewFromInt(-5), decimal.Zero},
		{"negative credit", decimal.Zero, decimal.NewFromInt(-5)},
		{"sub-cent debit rounds to zero", decimal.NewFromFloat(0.004), decimal.Zero},
		{"sub-cent both sides", decimal.NewFromFloat(0.004), decimal.NewFromFloat(0.004)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate([]LineInput{
				{AccountID: account, DebitAmount: tc.debit, CreditAmount: tc.credit},
			}, known)
			require.ErrorIs(t, err, shared.ErrInvalidLineAmounts)

			var lineErr *shared.LineError
			require.ErrorAs(t, err, &lineErr)
			require.Equal(t, 1, lineErr.Line)
		})
	}
}

func TestValidateAccountRules(t *testing.T) {
	active := uuid.New()
	inactive := uuid.New()
	states := map[uuid.UUID]AccountState{
		active:   {Known: true, Active: true},
		inactive: {Known: true, Active: false},
	}

	err := Validate([]LineInput{
		{AccountID: active, DebitAmount: decimal.NewFromInt(50)},
		{AccountID: uuid.New(), CreditAmount: decimal.NewFromInt(50)},
	}, states)
	require.ErrorIs(t, err, shared.ErrInvalidAccountReference)
	var lineErr *shared.LineError
	require.ErrorAs(t, err, &lineErr)
	require.Equal(t, 2, lineErr.Line)

	err = Validate([]LineInput{
		{AccountID: active, DebitAmount: decimal.NewFromInt(50)},
		{AccountID: inactive, CreditAmount: decimal.NewFromInt(50)},
	}, states)
	require.ErrorIs(t, err, shared.ErrInactiveAccount)
}

func TestValidatePrecedenceAmountsBeforeAccounts(t *testing.T) {
	// A broken amount on line 1 must win over the unknown account on line 2.
	err := Validate([]LineInput{
		{AccountID: uuid.New()},
		{AccountID: uuid.New(), CreditAmount: decimal.NewFromInt(50)},
	}, nil)
	require.ErrorIs(t, err, shared.ErrInvalidLineAmounts)
	var lineErr *shared.LineError
	require.ErrorAs(t, err, &lineErr)
	require.Equal(t, 1, lineErr.Line)
}

func TestValidateBalance(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	states := map[uuid.UUID]AccountState{
		a: {Known: true, Active: true},
		b: {Known: true, Active: true},
	}

	err := Validate([]LineInput{
		{AccountID: a, DebitAmount: decimal.NewFromFloat(100.00)},
		{AccountID: b, CreditAmount: decimal.NewFromFloat(99.99)},
	}, states)
	require.ErrorIs(t, err, shared.ErrImbalancedEntry)

	err = Validate([]LineInput{
		{AccountID: a, DebitAmount: decimal.NewFromFloat(33.335)},
		{AccountID: b, CreditAmount: decimal.NewFromFloat(33.34)},
	}, states)
	require.NoError(t, err, "totals compare at cent precision")
}

func TestTotalsRoundToCents(t *testing.T) {
	a := uuid.New()
	debit, credit := Totals([]LineInput{
		{AccountID: a, DebitAmount: decimal.NewFromFloat(10.004)},
		{AccountID: a, CreditAmount: decimal.NewFromFloat(10.004)},
	})
	require.True(t, debit.Equal(decimal.NewFromFloat(10.00)))
	require.True(t, credit.Equal(decimal.NewFromFloat(10.00)))
}

func TestBalanced(t *testing.T) {
	require.True(t, Balanced(decimal.NewFromFloat(12.344), decimal.NewFromFloat(12.341)))
	require.False(t, Balanced(decimal.NewFromFloat(12.35), decimal.NewFromFloat(12.34)))
}
