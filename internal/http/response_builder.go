package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"mizan/internal/core"
	"mizan/internal/cycle"
	"mizan/internal/ledger"
	"mizan/internal/log"
)

type moneyJSON struct {
	Cents   int64  `json:"cents"`
	Display string `json:"display"`
}

func toMoney(m core.Money) moneyJSON {
	return moneyJSON{Cents: m.Cents, Display: m.Format()}
}

type profileJSON struct {
	UID           string    `json:"uid"`
	Email         string    `json:"email,omitempty"`
	DisplayName   string    `json:"display_name,omitempty"`
	Balance       moneyJSON `json:"balance"`
	CycleStartDay int       `json:"cycle_start_day"`
	CreatedAt     time.Time `json:"created_at"`
}

func toProfile(p core.UserProfile) profileJSON {
	return profileJSON{
		UID:           p.UID,
		Email:         p.Email,
		DisplayName:   p.DisplayName,
		Balance:       toMoney(p.Balance),
		CycleStartDay: p.CycleStartDay,
		CreatedAt:     p.CreatedAt,
	}
}

type transactionJSON struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	Amount        moneyJSON `json:"amount"`
	Category      string    `json:"category"`
	CategoryLabel string    `json:"category_label"`
	CategoryIcon  string    `json:"category_icon"`
	Note          string    `json:"note,omitempty"`
	Date          time.Time `json:"date"`
	When          string    `json:"when"`
}

func toTransaction(tx core.Transaction, now time.Time) transactionJSON {
	return transactionJSON{
		ID:            tx.ID,
		Type:          string(tx.Type),
		Amount:        toMoney(tx.Amount),
		Category:      string(tx.Category),
		CategoryLabel: tx.Category.Label(),
		CategoryIcon:  tx.Category.Icon(),
		Note:          tx.Note,
		Date:          tx.Date,
		When:          cycle.FormatRelative(tx.Date, now),
	}
}

func toTransactions(txs []core.Transaction, now time.Time) []transactionJSON {
	out := make([]transactionJSON, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransaction(tx, now))
	}
	return out
}

type obligationJSON struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Amount            moneyJSON `json:"amount"`
	Paid              bool      `json:"paid"`
	CycleID           string    `json:"cycle_id"`
	PaidTransactionID string    `json:"paid_transaction_id,omitempty"`
	PaidCycle         string    `json:"paid_cycle,omitempty"`
}

func toObligation(o core.Obligation) obligationJSON {
	return obligationJSON{
		ID:                o.ID,
		Name:              o.Name,
		Amount:            toMoney(o.Amount),
		Paid:              o.Paid,
		CycleID:           o.CycleID,
		PaidTransactionID: o.PaidTransactionID,
		PaidCycle:         o.PaidCycle,
	}
}

type goalJSON struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	TargetAmount  moneyJSON  `json:"target_amount"`
	CurrentAmount moneyJSON  `json:"current_amount"`
	Progress      float64    `json:"progress"`
	Deadline      *time.Time `json:"deadline,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func toGoal(g core.Goal) goalJSON {
	return goalJSON{
		ID:            g.ID,
		Name:          g.Name,
		TargetAmount:  toMoney(g.TargetAmount),
		CurrentAmount: toMoney(g.CurrentAmount),
		Progress:      g.Progress(),
		Deadline:      g.Deadline,
		CreatedAt:     g.CreatedAt,
	}
}

type assetJSON struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Value     moneyJSON `json:"value"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toAsset(a core.Asset) assetJSON {
	return assetJSON{
		ID:        a.ID,
		Name:      a.Name,
		Type:      string(a.Type),
		Value:     toMoney(a.Value),
		Note:      a.Note,
		CreatedAt: a.CreatedAt,
	}
}

type cycleJSON struct {
	ID       string    `json:"id"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Days     int       `json:"days"`
	Display  string    `json:"display"`
	StartDay int       `json:"start_day"`
}

func toCycle(c cycle.Cycle, startDay int) cycleJSON {
	return cycleJSON{
		ID:       c.ID,
		Start:    c.Start,
		End:      c.End,
		Days:     c.Days(),
		Display:  cycle.FormatDisplay(c),
		StartDay: startDay,
	}
}

type categoryAmountJSON struct {
	Category string    `json:"category"`
	Label    string    `json:"label"`
	Icon     string    `json:"icon"`
	Amount   moneyJSON `json:"amount"`
}

type summaryJSON struct {
	Cycle      cycleJSON            `json:"cycle"`
	Income     moneyJSON            `json:"income"`
	Expense    moneyJSON            `json:"expense"`
	Net        moneyJSON            `json:"net"`
	Count      int                  `json:"count"`
	ByCategory []categoryAmountJSON `json:"by_category"`
	Balance    moneyJSON            `json:"balance"`
}

func toSummary(c cycleJSON, s core.CycleSummary, balance core.Money) summaryJSON {
	out := summaryJSON{
		Cycle:      c,
		Income:     toMoney(s.Income),
		Expense:    toMoney(s.Expense),
		Net:        toMoney(s.Net()),
		Count:      s.Count,
		ByCategory: make([]categoryAmountJSON, 0, len(s.ByCategory)),
		Balance:    toMoney(balance),
	}
	for _, ca := range s.ByCategory {
		out.ByCategory = append(out.ByCategory, categoryAmountJSON{
			Category: string(ca.Category),
			Label:    ca.Category.Label(),
			Icon:     ca.Category.Icon(),
			Amount:   toMoney(ca.Amount),
		})
	}
	return out
}

type errorJSON struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

var validationErrors = []error{
	core.ErrInvalidAmount,
	core.ErrInvalidTransactionType,
	core.ErrInvalidCategory,
	core.ErrInvalidAssetType,
	core.ErrEmptyName,
	core.ErrTextTooLong,
	core.ErrMissingDate,
	cycle.ErrInvalidStartDay,
}

// errorResponse maps an error to a status code and a user-facing body.
// Persistence details never reach the client.
func errorResponse(err error) (int, errorJSON) {
	var bad *badRequestError
	switch {
	case errors.As(err, &bad):
		return http.StatusBadRequest, errorJSON{Error: "bad_request", Message: "طلب غير صالح", Detail: bad.msg}
	case errors.Is(err, ledger.ErrNotAuthenticated):
		return http.StatusUnauthorized, errorJSON{Error: "not_authenticated", Message: "يرجى تسجيل الدخول"}
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound, errorJSON{Error: "not_found", Message: "العنصر غير موجود"}
	case errors.Is(err, ledger.ErrAlreadyPaid):
		return http.StatusConflict, errorJSON{Error: "already_paid", Message: "تم دفع هذا الالتزام في هذه الدورة"}
	}
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return http.StatusUnprocessableEntity, errorJSON{Error: "validation_failed", Message: "بيانات غير صالحة", Detail: v.Error()}
		}
	}
	return http.StatusInternalServerError, errorJSON{Error: "internal", Message: "حدث خطأ، حاول مرة أخرى"}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// writeError logs server-side failures and writes the mapped error body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := errorResponse(err)
	logger := log.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed",
			log.FieldError, err, log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
	} else {
		logger.DebugContext(r.Context(), "Request rejected",
			log.FieldError, err, log.FieldStatusCode, status)
	}
	writeJSON(w, status, body)
}
