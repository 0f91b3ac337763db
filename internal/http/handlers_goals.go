package http

import (
	"encoding/json"
	"net/http"
	"time"

	"mizan/internal/ledger"
)

type goalRequest struct {
	Name         string      `json:"name"`
	TargetAmount json.Number `json:"target_amount"`
	Deadline     string      `json:"deadline"`
}

type amountRequest struct {
	Amount json.Number `json:"amount"`
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request, sess *ledger.Session) {
	goals := sess.Goals()
	out := make([]goalJSON, 0, len(goals))
	for _, g := range goals {
		out = append(out, toGoal(g))
	}
	writeJSON(w, http.StatusOK, map[string]any{"goals": out})
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request, sess *ledger.Session) {
	var req goalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	target, err := parseAmount(req.TargetAmount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var deadline *time.Time
	if req.Deadline != "" {
		d, err := parseDate(req.Deadline, s.location)
		if err != nil {
			writeError(w, r, err)
			return
		}
		deadline = &d
	}

	g, err := sess.AddGoal(r.Context(), ledger.NewGoal{
		Name:         sanitizeInput(req.Name),
		TargetAmount: target,
		Deadline:     deadline,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toGoal(g))
}

func (s *Server) handleDepositToGoal(w http.ResponseWriter, r *http.Request, sess *ledger.Session) {
	var req amountRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	g, err := sess.DepositToGoal(r.Context(), r.PathValue("id"), amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"goal":    toGoal(g),
		"balance": toMoney(sess.Balance()),
	})
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request, sess *ledger.Session) {
	if err := sess.DeleteGoal(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
