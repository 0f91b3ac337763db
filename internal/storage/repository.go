// Package storage is the SQLite EntityStore. Every query is scoped by the
// owning user id; Atomic runs a unit of work inside one database transaction.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mizan/internal/core"
	"mizan/internal/store"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type SQLiteRepository struct {
	queries
	db *sql.DB
}

var _ store.EntityStore = (*SQLiteRepository)(nil)

// DSN builds the connection string for dbPath with the pragmas the
// repository relies on.
func DSN(dbPath string) string {
	return "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	dsn := DSN(dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; SQLite serializes them anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{queries: queries{db: db}, db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database answers.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Atomic implements store.EntityStore.
func (r *SQLiteRepository) Atomic(ctx context.Context, fn func(store.Repository) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(queries{db: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.WarnContext(ctx, "Rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type queries struct {
	db dbtx
}

func toMicros(t time.Time) int64 { return t.UnixMicro() }

func fromMicros(us int64) time.Time { return time.UnixMicro(us).UTC() }

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

// expectOne maps an UPDATE/DELETE that touched no row to store.ErrNotFound.
func expectOne(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Profiles

const profileColumns = `uid, email, display_name, balance_cents, cycle_start_day, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(s scanner) (core.UserProfile, error) {
	var p core.UserProfile
	var created int64
	if err := s.Scan(&p.UID, &p.Email, &p.DisplayName, &p.Balance.Cents, &p.CycleStartDay, &created); err != nil {
		return core.UserProfile{}, err
	}
	p.CreatedAt = fromMicros(created)
	return p, nil
}

func (q queries) GetProfile(ctx context.Context, uid string) (core.UserProfile, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE uid = ?`, uid)
	p, err := scanProfile(row)
	if err != nil {
		return core.UserProfile{}, fmt.Errorf("get profile: %w", notFound(err))
	}
	return p, nil
}

func (q queries) CreateProfile(ctx context.Context, p core.UserProfile) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO profiles (`+profileColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		p.UID, p.Email, p.DisplayName, p.Balance.Cents, p.CycleStartDay, toMicros(p.CreatedAt))
	if isUniqueViolation(err) {
		return fmt.Errorf("create profile: %w", store.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

func (q queries) AdjustBalance(ctx context.Context, uid string, delta int64) (core.Money, error) {
	var cents int64
	err := q.db.QueryRowContext(ctx,
		`UPDATE profiles SET balance_cents = balance_cents + ? WHERE uid = ? RETURNING balance_cents`,
		delta, uid).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("adjust balance: %w", notFound(err))
	}
	return core.Money{Cents: cents}, nil
}

func (q queries) UpdateCycleStartDay(ctx context.Context, uid string, day int) error {
	err := expectOne(q.db.ExecContext(ctx, `UPDATE profiles SET cycle_start_day = ? WHERE uid = ?`, day, uid))
	if err != nil {
		return fmt.Errorf("update cycle start day: %w", err)
	}
	return nil
}

func (q queries) ListProfiles(ctx context.Context) ([]core.UserProfile, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+profileColumns+` FROM profiles ORDER BY uid`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	out := make([]core.UserProfile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Transactions

const transactionColumns = `id, user_id, type, amount_cents, category, note, date_us, source_ref`

func scanTransaction(s scanner) (core.Transaction, error) {
	var tx core.Transaction
	var date int64
	var ref sql.NullString
	if err := s.Scan(&tx.ID, &tx.UserID, &tx.Type, &tx.Amount.Cents, &tx.Category, &tx.Note, &date, &ref); err != nil {
		return core.Transaction{}, err
	}
	tx.Date = fromMicros(date)
	tx.SourceRef = ref.String
	return tx, nil
}

func (q queries) CreateTransaction(ctx context.Context, tx core.Transaction) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.UserID, string(tx.Type), tx.Amount.Cents, string(tx.Category), tx.Note,
		toMicros(tx.Date), nullString(tx.SourceRef))
	if isUniqueViolation(err) {
		return fmt.Errorf("create transaction: %w", store.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

func (q queries) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = ? AND id = ?`, userID, id)
	tx, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", notFound(err))
	}
	return tx, nil
}

func (q queries) FindTransactionBySourceRef(ctx context.Context, userID, ref string) (core.Transaction, error) {
	if ref == "" {
		return core.Transaction{}, store.ErrNotFound
	}
	row := q.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = ? AND source_ref = ?`, userID, ref)
	tx, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("find transaction by source ref: %w", notFound(err))
	}
	return tx, nil
}

func (q queries) DeleteTransaction(ctx context.Context, userID, id string) error {
	err := expectOne(q.db.ExecContext(ctx, `DELETE FROM transactions WHERE user_id = ? AND id = ?`, userID, id))
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

func (q queries) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = ? ORDER BY date_us DESC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := make([]core.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// Obligations

const obligationColumns = `id, user_id, name, amount_cents, paid, cycle_id, paid_transaction_id, paid_cycle`

func scanObligation(s scanner) (core.Obligation, error) {
	var o core.Obligation
	if err := s.Scan(&o.ID, &o.UserID, &o.Name, &o.Amount.Cents, &o.Paid, &o.CycleID, &o.PaidTransactionID, &o.PaidCycle); err != nil {
		return core.Obligation{}, err
	}
	return o, nil
}

func (q queries) CreateObligation(ctx context.Context, o core.Obligation) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO obligations (`+obligationColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.UserID, o.Name, o.Amount.Cents, o.Paid, o.CycleID, o.PaidTransactionID, o.PaidCycle)
	if isUniqueViolation(err) {
		return fmt.Errorf("create obligation: %w", store.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("create obligation: %w", err)
	}
	return nil
}

func (q queries) GetObligation(ctx context.Context, userID, id string) (core.Obligation, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+obligationColumns+` FROM obligations WHERE user_id = ? AND id = ?`, userID, id)
	o, err := scanObligation(row)
	if err != nil {
		return core.Obligation{}, fmt.Errorf("get obligation: %w", notFound(err))
	}
	return o, nil
}

func (q queries) MarkObligationPaid(ctx context.Context, userID, id, txID, paidCycle string) error {
	err := expectOne(q.db.ExecContext(ctx,
		`UPDATE obligations SET paid = 1, paid_transaction_id = ?, paid_cycle = ? WHERE user_id = ? AND id = ?`,
		txID, paidCycle, userID, id))
	if err != nil {
		return fmt.Errorf("mark obligation paid: %w", err)
	}
	return nil
}

func (q queries) ResetObligation(ctx context.Context, userID, id, cycleID string) error {
	err := expectOne(q.db.ExecContext(ctx,
		`UPDATE obligations SET paid = 0, paid_transaction_id = '', paid_cycle = '', cycle_id = ? WHERE user_id = ? AND id = ?`,
		cycleID, userID, id))
	if err != nil {
		return fmt.Errorf("reset obligation: %w", err)
	}
	return nil
}

func (q queries) DeleteObligation(ctx context.Context, userID, id string) error {
	err := expectOne(q.db.ExecContext(ctx, `DELETE FROM obligations WHERE user_id = ? AND id = ?`, userID, id))
	if err != nil {
		return fmt.Errorf("delete obligation: %w", err)
	}
	return nil
}

func (q queries) ListObligations(ctx context.Context, userID string) ([]core.Obligation, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+obligationColumns+` FROM obligations WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list obligations: %w", err)
	}
	defer rows.Close()

	out := make([]core.Obligation, 0)
	for rows.Next() {
		o, err := scanObligation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan obligation: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Goals

const goalColumns = `id, user_id, name, target_amount_cents, current_amount_cents, deadline_us, created_at`

func scanGoal(s scanner) (core.Goal, error) {
	var g core.Goal
	var deadline sql.NullInt64
	var created int64
	if err := s.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount.Cents, &g.CurrentAmount.Cents, &deadline, &created); err != nil {
		return core.Goal{}, err
	}
	if deadline.Valid {
		d := fromMicros(deadline.Int64)
		g.Deadline = &d
	}
	g.CreatedAt = fromMicros(created)
	return g, nil
}

func (q queries) CreateGoal(ctx context.Context, g core.Goal) error {
	var deadline sql.NullInt64
	if g.Deadline != nil {
		deadline = sql.NullInt64{Int64: toMicros(*g.Deadline), Valid: true}
	}
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO goals (`+goalColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.UserID, g.Name, g.TargetAmount.Cents, g.CurrentAmount.Cents, deadline, toMicros(g.CreatedAt))
	if isUniqueViolation(err) {
		return fmt.Errorf("create goal: %w", store.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("create goal: %w", err)
	}
	return nil
}

func (q queries) GetGoal(ctx context.Context, userID, id string) (core.Goal, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+goalColumns+` FROM goals WHERE user_id = ? AND id = ?`, userID, id)
	g, err := scanGoal(row)
	if err != nil {
		return core.Goal{}, fmt.Errorf("get goal: %w", notFound(err))
	}
	return g, nil
}

func (q queries) AddToGoal(ctx context.Context, userID, id string, amount core.Money) (core.Money, error) {
	var cents int64
	err := q.db.QueryRowContext(ctx,
		`UPDATE goals SET current_amount_cents = current_amount_cents + ? WHERE user_id = ? AND id = ? RETURNING current_amount_cents`,
		amount.Cents, userID, id).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("add to goal: %w", notFound(err))
	}
	return core.Money{Cents: cents}, nil
}

func (q queries) DeleteGoal(ctx context.Context, userID, id string) error {
	err := expectOne(q.db.ExecContext(ctx, `DELETE FROM goals WHERE user_id = ? AND id = ?`, userID, id))
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return nil
}

func (q queries) ListGoals(ctx context.Context, userID string) ([]core.Goal, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+goalColumns+` FROM goals WHERE user_id = ? ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	out := make([]core.Goal, 0)
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Assets

const assetColumns = `id, user_id, name, type, value_cents, note, created_at`

func scanAsset(s scanner) (core.Asset, error) {
	var a core.Asset
	var created int64
	if err := s.Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &a.Value.Cents, &a.Note, &created); err != nil {
		return core.Asset{}, err
	}
	a.CreatedAt = fromMicros(created)
	return a, nil
}

func (q queries) CreateAsset(ctx context.Context, a core.Asset) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO assets (`+assetColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.Name, string(a.Type), a.Value.Cents, a.Note, toMicros(a.CreatedAt))
	if isUniqueViolation(err) {
		return fmt.Errorf("create asset: %w", store.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("create asset: %w", err)
	}
	return nil
}

func (q queries) GetAsset(ctx context.Context, userID, id string) (core.Asset, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM assets WHERE user_id = ? AND id = ?`, userID, id)
	a, err := scanAsset(row)
	if err != nil {
		return core.Asset{}, fmt.Errorf("get asset: %w", notFound(err))
	}
	return a, nil
}

func (q queries) UpdateAssetValue(ctx context.Context, userID, id string, value core.Money) error {
	err := expectOne(q.db.ExecContext(ctx,
		`UPDATE assets SET value_cents = ? WHERE user_id = ? AND id = ?`, value.Cents, userID, id))
	if err != nil {
		return fmt.Errorf("update asset value: %w", err)
	}
	return nil
}

func (q queries) DeleteAsset(ctx context.Context, userID, id string) error {
	err := expectOne(q.db.ExecContext(ctx, `DELETE FROM assets WHERE user_id = ? AND id = ?`, userID, id))
	if err != nil {
		return fmt.Errorf("delete asset: %w", err)
	}
	return nil
}

func (q queries) ListAssets(ctx context.Context, userID string) ([]core.Asset, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+assetColumns+` FROM assets WHERE user_id = ? ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	out := make([]core.Asset, 0)
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
