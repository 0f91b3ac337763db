package http

import (
	"net/http"

	"mizan/internal/ledger"
)

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request, sess *ledger.Session) {
	writeJSON(w, http.StatusOK, toProfile(sess.Profile()))
}

type cycleStartDayRequest struct {
	Day int `json:"day"`
}

func (s *Server) handleSetCycleStartDay(w http.ResponseWriter, r *http.Request, sess *ledger.Session) {
	var req cycleStartDayRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := sess.SetCycleStartDay(r.Context(), req.Day); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfile(sess.Profile()))
}

func (s *Server) handleGetCycle(w http.ResponseWriter, r *http.Request, sess *ledger.Session) {
	offset, err := parseOffset(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCycle(shift(sess.CurrentCycle(), offset), sess.Profile().CycleStartDay))
}

func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request, sess *ledger.Session) {
	offset, err := parseOffset(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c := shift(sess.CurrentCycle(), offset)
	p := sess.Profile()
	writeJSON(w, http.StatusOK, toSummary(toCycle(c, p.CycleStartDay), sess.SummaryFor(c), p.Balance))
}
