// Package memory is an in-process spreadsheet exporter.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"mizan/internal/core"
	"mizan/internal/sheets"
)

type Exporter struct {
	mu   sync.Mutex
	rows map[string]sheets.ExportedRow
	seq  int
	refs map[string]string
}

var _ sheets.Exporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{rows: map[string]sheets.ExportedRow{}, refs: map[string]string{}}
}

func (e *Exporter) ExportTransaction(_ context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	e.rows[tx.ID] = sheets.ExportedRow{
		ID:       tx.ID,
		UserID:   tx.UserID,
		Date:     tx.Date,
		Type:     tx.Type,
		Category: tx.Category,
		Amount:   tx.Amount,
		Note:     tx.Note,
	}
	ref, ok := e.refs[tx.ID]
	if !ok {
		e.seq++
		ref = fmt.Sprintf("mem:%d", e.seq)
		e.refs[tx.ID] = ref
	}
	return ref, nil
}

func (e *Exporter) RemoveTransaction(_ context.Context, _, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.rows, id)
	return nil
}

func (e *Exporter) ListExported(_ context.Context, userID string) ([]sheets.ExportedRow, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]sheets.ExportedRow, 0)
	for _, r := range e.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Len returns the number of exported rows.
func (e *Exporter) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.rows)
}
