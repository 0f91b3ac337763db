package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyValidate(t *testing.T) {
	assert.NoError(t, (Money{Cents: 1}).Validate())
	assert.Error(t, (Money{Cents: 0}).Validate(), "zero is not a valid amount")
}

func TestTransactionValidate(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	good := Transaction{
		UserID:   "u1",
		Type:     Expense,
		Amount:   Money{Cents: 3050},
		Category: CategoryFood,
		Date:     now,
	}
	require.NoError(t, good.Validate())

	bads := []struct {
		name string
		tx   Transaction
		want error
	}{
		{"missing user", Transaction{Type: Expense, Amount: Money{Cents: 1}, Category: CategoryFood, Date: now}, ErrMissingUser},
		{"unknown type", Transaction{UserID: "u", Type: "transfer", Amount: Money{Cents: 1}, Category: CategoryFood, Date: now}, ErrInvalidTransactionType},
		{"zero amount", Transaction{UserID: "u", Type: Income, Amount: Money{}, Category: CategorySalary, Date: now}, ErrInvalidAmount},
		{"unknown category", Transaction{UserID: "u", Type: Income, Amount: Money{Cents: 1}, Category: "rent", Date: now}, ErrInvalidCategory},
		{"missing date", Transaction{UserID: "u", Type: Income, Amount: Money{Cents: 1}, Category: CategorySalary}, ErrMissingDate},
	}
	for _, tc := range bads {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.tx.Validate(), tc.want)
		})
	}
}

func TestSignedCents(t *testing.T) {
	assert.Equal(t, int64(10000), Transaction{Type: Income, Amount: Money{Cents: 10000}}.SignedCents())
	assert.Equal(t, int64(-3050), Transaction{Type: Expense, Amount: Money{Cents: 3050}}.SignedCents())
}

func TestCategories(t *testing.T) {
	cats := Categories()
	require.Len(t, cats, 10)
	for _, c := range cats {
		assert.True(t, c.Valid(), c)
		assert.NotEmpty(t, c.Label(), c)
		assert.NotEmpty(t, c.Icon(), c)
	}
	assert.False(t, Category("rent").Valid())
}

func TestGoalProgress(t *testing.T) {
	g := Goal{TargetAmount: Money{Cents: 10000}, CurrentAmount: Money{Cents: 2500}}
	assert.Equal(t, 0.25, g.Progress())
	g.CurrentAmount = Money{Cents: 20000}
	assert.Equal(t, 1.0, g.Progress(), "progress is capped")
}

func TestAssetValidate(t *testing.T) {
	a := Asset{UserID: "u", Name: "Gold bar", Type: AssetGold, Value: Money{Cents: 0}}
	assert.NoError(t, a.Validate())
	a.Type = "crypto"
	assert.ErrorIs(t, a.Validate(), ErrInvalidAssetType)
}
