package ledger

import (
	"context"
	"sort"
	"strings"

	"mizan/internal/core"
	"mizan/internal/cycle"
)

// CycleSummary totals the transactions inside the current cycle.
func (s *Session) CycleSummary() core.CycleSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return summarize(s.calc.Current(), s.transactions)
}

// SummaryFor totals the transactions inside c.
func (s *Session) SummaryFor(c cycle.Cycle) core.CycleSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return summarize(c, s.transactions)
}

func summarize(c cycle.Cycle, txs []core.Transaction) core.CycleSummary {
	sum := core.CycleSummary{CycleID: c.ID}
	byCategory := map[core.Category]int64{}
	for _, tx := range txs {
		if !c.Contains(tx.Date) {
			continue
		}
		sum.Count++
		if tx.Type == core.Income {
			sum.Income = sum.Income.Add(tx.Amount)
			continue
		}
		sum.Expense = sum.Expense.Add(tx.Amount)
		byCategory[tx.Category] += tx.Amount.Cents
	}
	for cat, cents := range byCategory {
		sum.ByCategory = append(sum.ByCategory, core.CategoryAmount{Category: cat, Amount: core.Money{Cents: cents}})
	}
	sort.Slice(sum.ByCategory, func(i, j int) bool {
		a, b := sum.ByCategory[i], sum.ByCategory[j]
		if a.Amount.Cents != b.Amount.Cents {
			return a.Amount.Cents > b.Amount.Cents
		}
		return a.Category < b.Category
	})
	return sum
}

// SearchTransactions matches q against notes, category keys and category
// labels, case-insensitively. An empty query returns every transaction.
func (s *Session) SearchTransactions(q string) []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	q = strings.ToLower(strings.TrimSpace(q))
	out := make([]core.Transaction, 0)
	for _, tx := range s.transactions {
		if q == "" ||
			strings.Contains(strings.ToLower(tx.Note), q) ||
			strings.Contains(string(tx.Category), q) ||
			strings.Contains(tx.Category.Label(), q) {
			out = append(out, tx)
		}
	}
	return out
}

// Reconciliation compares the stored balance with the fold over stored
// records. Goal deposits are subtracted since they leave the balance
// without a transaction.
type Reconciliation struct {
	Stored       core.Money
	Transactions core.Money
	GoalDeposits core.Money
	Expected     core.Money
}

// Drift is Stored minus Expected.
func (r Reconciliation) Drift() core.Money {
	return r.Stored.Sub(r.Expected)
}

func (r Reconciliation) Consistent() bool {
	return r.Drift().Cents == 0
}

// Reconcile reloads the snapshot and reports drift. It never repairs.
func (s *Session) Reconcile(ctx context.Context) (Reconciliation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.load(ctx); err != nil {
		return Reconciliation{}, err
	}
	var rec Reconciliation
	rec.Stored = s.profile.Balance
	for _, tx := range s.transactions {
		rec.Transactions.Cents += tx.SignedCents()
	}
	for _, g := range s.goals {
		rec.GoalDeposits = rec.GoalDeposits.Add(g.CurrentAmount)
	}
	rec.Expected = rec.Transactions.Sub(rec.GoalDeposits)
	if !rec.Consistent() {
		s.logger.WarnContext(ctx, "Balance drift detected",
			"stored_cents", rec.Stored.Cents,
			"expected_cents", rec.Expected.Cents,
			"drift_cents", rec.Drift().Cents)
	}
	return rec, nil
}
