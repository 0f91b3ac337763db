package google

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mizan/internal/core"
	ports "mizan/internal/sheets"
)

func TestParseRows(t *testing.T) {
	tx := core.Transaction{
		ID:       "t1",
		UserID:   "u1",
		Type:     core.Expense,
		Amount:   core.Money{Cents: 3050},
		Category: core.CategoryFood,
		Note:     "lunch",
		Date:     time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	}
	values := [][]any{
		ports.Header,
		ports.RowValues(tx),
		{"t2", "u2", "2024-03-16", "income", "salary", "راتب", "100.00", ""},
		{},
		{"t3", "u1", "not a date", "income", "salary", "", "1.00"},
	}

	rows := parseRows(values, "u1")
	require.Len(t, rows, 1)
	r := rows[0]
	assert.Equal(t, "t1", r.ID)
	assert.Equal(t, int64(3050), r.Amount.Cents)
	assert.Equal(t, core.CategoryFood, r.Category)
	assert.Equal(t, "lunch", r.Note)
	assert.True(t, r.Date.Equal(tx.Date), "date = %v", r.Date)
}

func TestFindRow(t *testing.T) {
	ids := []string{"ID", "a", "", "b"}
	tests := []struct {
		id   string
		want int
	}{
		{"a", 2},
		{"b", 4},
		{"missing", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, findRow(ids, tt.id), tt.id)
	}
}
