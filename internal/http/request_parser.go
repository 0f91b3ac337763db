package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"mizan/internal/core"
)

const (
	HeaderUserID      = "X-User-ID"
	HeaderUserEmail   = "X-User-Email"
	HeaderUserName    = "X-User-Name"
	maxRequestBody    = 64 << 10
	dateLayout        = "2006-01-02"
	defaultRecentSize = 50
	maxRecentSize     = 500
)

// badRequestError marks malformed input, as opposed to well-formed input
// that fails domain validation.
type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &badRequestError{msg: fmt.Sprintf(format, args...)}
}

// identityFrom reads the caller identity set by the auth proxy.
func identityFrom(r *http.Request) Identity {
	return Identity{
		UID:         strings.TrimSpace(r.Header.Get(HeaderUserID)),
		Email:       sanitizeInput(r.Header.Get(HeaderUserEmail)),
		DisplayName: sanitizeInput(r.Header.Get(HeaderUserName)),
	}
}

// decodeJSON decodes exactly one JSON object into dst, rejecting unknown
// fields and oversized bodies.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return badRequest("request body is empty")
		case errors.As(err, &maxErr):
			return badRequest("request body exceeds %d bytes", maxErr.Limit)
		default:
			return badRequest("invalid JSON body: %v", err)
		}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return badRequest("request body must contain a single JSON object")
	}
	return nil
}

// parseAmount accepts a JSON number or numeric string in major units.
func parseAmount(n json.Number) (core.Money, error) {
	if n == "" {
		return core.Money{}, core.ErrInvalidAmount
	}
	return core.ParseMoney(n.String())
}

// parseDate accepts YYYY-MM-DD or RFC 3339. Empty input yields the zero
// time. Plain dates are taken at noon in loc so they stay on the same day
// across timezones.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if loc == nil {
		loc = time.Local
	}
	if d, err := time.ParseInLocation(dateLayout, s, loc); err == nil {
		return d.Add(12 * time.Hour), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, badRequest("invalid date %q: use YYYY-MM-DD", s)
	}
	return t, nil
}

// parseLimit reads the "limit" query parameter.
func parseLimit(r *http.Request) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get("limit"))
	if v == "" {
		return defaultRecentSize, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, badRequest("invalid limit %q", v)
	}
	return min(n, maxRecentSize), nil
}

// parseOffset reads the "offset" query parameter: cycles relative to the
// current one, negative for the past.
func parseOffset(r *http.Request) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get("offset"))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < -120 || n > 12 {
		return 0, badRequest("invalid offset %q", v)
	}
	return n, nil
}

// sanitizeInput trims whitespace and strips control characters except tab
// and newlines.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
