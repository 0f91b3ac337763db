package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"mizan/internal/core"
	"mizan/internal/ledger"
)

type transactionRequest struct {
	Type        string      `json:"type"`
	Amount      json.Number `json:"amount"`
	Category    string      `json:"category"`
	Note        string      `json:"note"`
	Date        string      `json:"date"`
	OperationID string      `json:"operation_id"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request, sess *ledger.Session) {
	limit, err := parseLimit(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var txs []core.Transaction
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		txs = sess.SearchTransactions(q)
		if len(txs) > limit {
			txs = txs[:limit]
		}
	} else {
		txs = sess.RecentTransactions(limit)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": toTransactions(txs, s.now()),
		"balance":      toMoney(sess.Balance()),
	})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request, sess *ledger.Session) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	date, err := parseDate(req.Date, s.location)
	if err != nil {
		writeError(w, r, err)
		return
	}

	tx, err := sess.AddTransaction(r.Context(), ledger.NewTransaction{
		Type:        core.TransactionType(strings.TrimSpace(req.Type)),
		Amount:      amount,
		Category:    core.Category(strings.TrimSpace(req.Category)),
		Note:        sanitizeInput(req.Note),
		Date:        date,
		OperationID: strings.TrimSpace(req.OperationID),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"transaction": toTransaction(tx, s.now()),
		"balance":     toMoney(sess.Balance()),
	})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request, sess *ledger.Session) {
	if err := sess.DeleteTransaction(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"balance": toMoney(sess.Balance())})
}
