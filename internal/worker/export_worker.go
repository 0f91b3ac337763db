// Package worker consumes ledger events and mirrors the transaction log
// into the export spreadsheet.
package worker

import (
	"context"
	"errors"
	"fmt"

	"mizan/internal/amqp"
	"mizan/internal/ledger"
	"mizan/internal/log"
	"mizan/internal/sheets"
	"mizan/internal/store"
)

type ExportWorker struct {
	transactions store.TransactionStore
	profiles     store.ProfileStore
	exporter     sheets.Exporter
	batchSize    int
	logger       *log.Logger
}

func NewExportWorker(st store.Repository, exporter sheets.Exporter, batchSize int) *ExportWorker {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &ExportWorker{
		transactions: st,
		profiles:     st,
		exporter:     exporter,
		batchSize:    batchSize,
		logger:       log.Default(log.ComponentWorker),
	}
}

// HandleMessage is the amqp.Handler of the export queue.
func (w *ExportWorker) HandleMessage(ctx context.Context, msg *amqp.LedgerEventMessage) error {
	return w.HandleEvent(ctx, msg.Event())
}

// HandleEvent exports created transactions and removes deleted ones. Other
// events are acknowledged without work.
func (w *ExportWorker) HandleEvent(ctx context.Context, ev ledger.Event) error {
	switch ev.Type {
	case ledger.EventTransactionCreated:
		tx, err := w.transactions.GetTransaction(ctx, ev.UserID, ev.EntityID)
		if errors.Is(err, store.ErrNotFound) {
			// Deleted before the event was consumed; the delete event follows.
			w.logger.InfoContext(ctx, "Transaction gone before export", log.FieldEntityID, ev.EntityID)
			return nil
		}
		if err != nil {
			return fmt.Errorf("get transaction: %w", err)
		}
		ref, err := w.exporter.ExportTransaction(ctx, tx)
		if err != nil {
			return fmt.Errorf("export transaction: %w", err)
		}
		w.logger.InfoContext(ctx, "Exported transaction",
			log.FieldUserID, ev.UserID,
			log.FieldEntityID, ev.EntityID,
			"row_ref", ref)
		return nil

	case ledger.EventTransactionDeleted:
		if err := w.exporter.RemoveTransaction(ctx, ev.UserID, ev.EntityID); err != nil {
			return fmt.Errorf("remove transaction: %w", err)
		}
		w.logger.InfoContext(ctx, "Removed exported transaction",
			log.FieldUserID, ev.UserID, log.FieldEntityID, ev.EntityID)
		return nil

	default:
		w.logger.DebugContext(ctx, "Ignoring ledger event", log.FieldEvent, string(ev.Type))
		return nil
	}
}

// BackfillResult counts the rows a backfill touched.
type BackfillResult struct {
	Exported int
	Removed  int
	Failed   int
}

// Backfill reconciles the sheet with storage for one user: missing
// transactions are exported, rows of deleted ones removed. At most batchSize
// exports run per call.
func (w *ExportWorker) Backfill(ctx context.Context, userID string) (BackfillResult, error) {
	var res BackfillResult
	txs, err := w.transactions.ListTransactions(ctx, userID)
	if err != nil {
		return res, fmt.Errorf("list transactions: %w", err)
	}
	rows, err := w.exporter.ListExported(ctx, userID)
	if err != nil {
		return res, fmt.Errorf("list exported rows: %w", err)
	}

	exported := make(map[string]bool, len(rows))
	for _, r := range rows {
		exported[r.ID] = true
	}
	live := make(map[string]bool, len(txs))
	for _, tx := range txs {
		live[tx.ID] = true
		if exported[tx.ID] || res.Exported >= w.batchSize {
			continue
		}
		if _, err := w.exporter.ExportTransaction(ctx, tx); err != nil {
			w.logger.ErrorContext(ctx, "Backfill export failed", log.FieldEntityID, tx.ID, log.FieldError, err)
			res.Failed++
			continue
		}
		res.Exported++
	}
	for _, r := range rows {
		if live[r.ID] {
			continue
		}
		if err := w.exporter.RemoveTransaction(ctx, userID, r.ID); err != nil {
			w.logger.ErrorContext(ctx, "Backfill remove failed", log.FieldEntityID, r.ID, log.FieldError, err)
			res.Failed++
			continue
		}
		res.Removed++
	}
	return res, nil
}

// StartupBackfill runs Backfill for every profile, recovering events missed
// while the worker was down.
func (w *ExportWorker) StartupBackfill(ctx context.Context) error {
	profiles, err := w.profiles.ListProfiles(ctx)
	if err != nil {
		return fmt.Errorf("list profiles: %w", err)
	}
	var total BackfillResult
	for _, p := range profiles {
		res, err := w.Backfill(ctx, p.UID)
		if err != nil {
			w.logger.ErrorContext(ctx, "Backfill failed", log.FieldUserID, p.UID, log.FieldError, err)
			total.Failed++
			continue
		}
		total.Exported += res.Exported
		total.Removed += res.Removed
		total.Failed += res.Failed
	}
	w.logger.InfoContext(ctx, "Startup backfill completed",
		"profiles", len(profiles),
		"exported", total.Exported,
		"removed", total.Removed,
		"failed", total.Failed)
	return nil
}
