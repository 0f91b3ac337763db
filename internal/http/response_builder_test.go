package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"mizan/internal/core"
	"mizan/internal/cycle"
	"mizan/internal/ledger"
)

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"bad request", badRequest("nope"), http.StatusBadRequest, "bad_request"},
		{"not authenticated", ledger.ErrNotAuthenticated, http.StatusUnauthorized, "not_authenticated"},
		{"wrapped not found", fmt.Errorf("pay obligation: %w", ledger.ErrNotFound), http.StatusNotFound, "not_found"},
		{"already paid", ledger.ErrAlreadyPaid, http.StatusConflict, "already_paid"},
		{"invalid amount", core.ErrInvalidAmount, http.StatusUnprocessableEntity, "validation_failed"},
		{"invalid start day", cycle.ErrInvalidStartDay, http.StatusUnprocessableEntity, "validation_failed"},
		{"persistence", &ledger.PersistenceError{Op: "add", Err: errors.New("disk full")}, http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := errorResponse(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, body.Error)
			assert.NotEmpty(t, body.Message)
			assert.NotContains(t, body.Detail, "disk full")
		})
	}
}

func TestWriteErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	writeError(rec, req, &ledger.PersistenceError{Op: "load snapshot", Err: errors.New("database is locked")})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "database is locked")
}

func TestToSummary(t *testing.T) {
	c := cycle.ForDate(fixedNow, 23)
	s := core.CycleSummary{
		CycleID: c.ID,
		Income:  core.Money{Cents: 1000},
		Expense: core.Money{Cents: 400},
		Count:   3,
		ByCategory: []core.CategoryAmount{
			{Category: core.CategoryFood, Amount: core.Money{Cents: 400}},
		},
	}
	out := toSummary(toCycle(c, 23), s, core.Money{Cents: 600})
	assert.Equal(t, int64(600), out.Net.Cents)
	assert.Equal(t, core.CategoryFood.Label(), out.ByCategory[0].Label)
	assert.Equal(t, "2024-2", out.Cycle.ID)
}
