package http

import (
	"encoding/json"
	"net/http"

	"mizan/internal/ledger"
)

type obligationRequest struct {
	Name   string      `json:"name"`
	Amount json.Number `json:"amount"`
}

func (s *Server) handleListObligations(w http.ResponseWriter, r *http.Request, sess *ledger.Session) {
	obligations, err := sess.ReloadObligations(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]obligationJSON, 0, len(obligations))
	for _, o := range obligations {
		out = append(out, toObligation(o))
	}
	writeJSON(w, http.StatusOK, map[string]any{"obligations": out})
}

func (s *Server) handleCreateObligation(w http.ResponseWriter, r *http.Request, sess *ledger.Session) {
	var req obligationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	o, err := sess.AddObligation(r.Context(), ledger.NewObligation{Name: sanitizeInput(req.Name), Amount: amount})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toObligation(o))
}

func (s *Server) handlePayObligation(w http.ResponseWriter, r *http.Request, sess *ledger.Session) {
	tx, err := sess.PayObligation(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"transaction": toTransaction(tx, s.now()),
		"balance":     toMoney(sess.Balance()),
	})
}

func (s *Server) handleDeleteObligation(w http.ResponseWriter, r *http.Request, sess *ledger.Session) {
	if err := sess.DeleteObligation(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
