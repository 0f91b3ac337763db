// Package sheets mirrors the transaction log into a spreadsheet, one row per
// transaction keyed by its id.
package sheets

import (
	"context"
	"time"

	"mizan/internal/core"
)

type (
	// TransactionExporter writes and removes exported rows. Both operations
	// are idempotent: exporting an id twice updates its row, removing a
	// missing id is a no-op.
	TransactionExporter interface {
		ExportTransaction(ctx context.Context, tx core.Transaction) (rowRef string, err error)
		RemoveTransaction(ctx context.Context, userID, id string) error
	}

	// ExportLister reports which transactions of a user are already exported.
	ExportLister interface {
		ListExported(ctx context.Context, userID string) ([]ExportedRow, error)
	}

	Exporter interface {
		TransactionExporter
		ExportLister
	}
)

// ExportedRow is the decoded form of one spreadsheet row.
type ExportedRow struct {
	ID       string
	UserID   string
	Date     time.Time
	Type     core.TransactionType
	Category core.Category
	Amount   core.Money
	Note     string
}

// Header is the first row of the export sheet.
var Header = []any{"ID", "User", "Date", "Type", "Category", "Label", "Amount", "Note"}

const dateLayout = "2006-01-02"

// RowValues renders tx in Header column order.
func RowValues(tx core.Transaction) []any {
	return []any{
		tx.ID,
		tx.UserID,
		tx.Date.Format(dateLayout),
		string(tx.Type),
		string(tx.Category),
		tx.Category.Label(),
		tx.Amount.Decimal().StringFixed(2),
		tx.Note,
	}
}

// ParseRow decodes a row written by RowValues. ok is false for headers,
// cleared rows and rows that do not decode.
func ParseRow(cols []string) (row ExportedRow, ok bool) {
	if len(cols) < 7 || cols[0] == "" || cols[0] == "ID" {
		return ExportedRow{}, false
	}
	date, err := time.Parse(dateLayout, cols[2])
	if err != nil {
		return ExportedRow{}, false
	}
	amount, err := core.ParseMoney(cols[6])
	if err != nil {
		return ExportedRow{}, false
	}
	row = ExportedRow{
		ID:       cols[0],
		UserID:   cols[1],
		Date:     date,
		Type:     core.TransactionType(cols[3]),
		Category: core.Category(cols[4]),
		Amount:   amount,
	}
	if len(cols) > 7 {
		row.Note = cols[7]
	}
	return row, true
}
