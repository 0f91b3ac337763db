package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"mizan/internal/core"
	"mizan/internal/ledger"
)

type assetRequest struct {
	Name  string      `json:"name"`
	Type  string      `json:"type"`
	Value json.Number `json:"value"`
	Note  string      `json:"note"`
}

type assetValueRequest struct {
	Value json.Number `json:"value"`
}

func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request, sess *ledger.Session) {
	assets := sess.Assets()
	out := make([]assetJSON, 0, len(assets))
	var total core.Money
	for _, a := range assets {
		out = append(out, toAsset(a))
		total = total.Add(a.Value)
	}
	writeJSON(w, http.StatusOK, map[string]any{"assets": out, "total": toMoney(total)})
}

func (s *Server) handleCreateAsset(w http.ResponseWriter, r *http.Request, sess *ledger.Session) {
	var req assetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	value, err := parseAssetValue(req.Value)
	if err != nil {
		writeError(w, r, err)
		return
	}
	a, err := sess.AddAsset(r.Context(), ledger.NewAsset{
		Name:  sanitizeInput(req.Name),
		Type:  core.AssetType(strings.TrimSpace(req.Type)),
		Value: value,
		Note:  sanitizeInput(req.Note),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAsset(a))
}

func (s *Server) handleUpdateAsset(w http.ResponseWriter, r *http.Request, sess *ledger.Session) {
	var req assetValueRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	value, err := parseAssetValue(req.Value)
	if err != nil {
		writeError(w, r, err)
		return
	}
	a, err := sess.UpdateAsset(r.Context(), r.PathValue("id"), value)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAsset(a))
}

func (s *Server) handleDeleteAsset(w http.ResponseWriter, r *http.Request, sess *ledger.Session) {
	if err := sess.DeleteAsset(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseAssetValue allows zero, unlike transaction amounts.
func parseAssetValue(n json.Number) (core.Money, error) {
	if d, err := decimal.NewFromString(strings.TrimSpace(n.String())); err == nil && d.IsZero() {
		return core.Money{}, nil
	}
	return parseAmount(n)
}
