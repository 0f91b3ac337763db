package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mizan/internal/core"
)

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"name":"rent"}`, false},
		{"unknown field", `{"name":"rent","x":1}`, true},
		{"empty", ``, true},
		{"two objects", `{"name":"a"} {"name":"b"}`, true},
		{"oversized", `{"name":"` + strings.Repeat("a", maxRequestBody) + `"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var p payload
			err := decodeJSON(httptest.NewRecorder(), req, &p)
			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, "rent", p.Name)
				return
			}
			var bad *badRequestError
			assert.True(t, errors.As(err, &bad), "got %v", err)
		})
	}
}

func TestParseAmount(t *testing.T) {
	m, err := parseAmount(json.Number("12.345"))
	require.NoError(t, err)
	assert.Equal(t, core.Money{Cents: 1235}, m)

	m, err = parseAmount(json.Number("7"))
	require.NoError(t, err)
	assert.Equal(t, int64(700), m.Cents)

	_, err = parseAmount("")
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
	_, err = parseAmount("-1")
	assert.ErrorIs(t, err, core.ErrInvalidAmount)

	zero, err := parseAssetValue("0.00")
	require.NoError(t, err)
	assert.Equal(t, core.Money{}, zero)
}

func TestParseDate(t *testing.T) {
	riyadh := time.FixedZone("AST", 3*3600)

	d, err := parseDate("2024-03-14", riyadh)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 14, 12, 0, 0, 0, riyadh), d)

	d, err = parseDate("2024-03-14T08:30:00Z", riyadh)
	require.NoError(t, err)
	assert.True(t, d.Equal(time.Date(2024, 3, 14, 8, 30, 0, 0, time.UTC)))

	d, err = parseDate("  ", riyadh)
	require.NoError(t, err)
	assert.True(t, d.IsZero())

	_, err = parseDate("14-03-2024", riyadh)
	assert.Error(t, err)
}

func TestParseLimitAndOffset(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=9999&offset=-2", nil)
	limit, err := parseLimit(req)
	require.NoError(t, err)
	assert.Equal(t, maxRecentSize, limit)
	offset, err := parseOffset(req)
	require.NoError(t, err)
	assert.Equal(t, -2, offset)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	limit, _ = parseLimit(req)
	assert.Equal(t, defaultRecentSize, limit)

	req = httptest.NewRequest(http.MethodGet, "/?limit=0", nil)
	_, err = parseLimit(req)
	assert.Error(t, err)
}

func TestIdentityFrom(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderUserID, "  u1 ")
	req.Header.Set(HeaderUserName, "Sara\x00")
	id := identityFrom(req)
	assert.Equal(t, Identity{UID: "u1", DisplayName: "Sara"}, id)
}
