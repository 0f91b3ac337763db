package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"

	"mizan/internal/core"
)

// fakeSheet serves the subset of the Sheets values API the client uses.
type fakeSheet struct {
	mu   sync.Mutex
	rows [][]string
}

func (f *fakeSheet) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	idx := strings.Index(r.URL.Path, "/values/")
	if idx < 0 {
		http.NotFound(w, r)
		return
	}
	rng := r.URL.Path[idx+len("/values/"):]
	clear := strings.HasSuffix(rng, ":clear")
	rng = strings.TrimSuffix(rng, ":clear")
	if i := strings.Index(rng, "!"); i >= 0 {
		rng = rng[i+1:]
	}

	switch {
	case r.Method == http.MethodGet:
		values := make([][]any, len(f.rows))
		for i, row := range f.rows {
			cols := row
			if rng == "A:A" && len(row) > 0 {
				cols = row[:1]
			}
			values[i] = make([]any, len(cols))
			for j, c := range cols {
				values[i][j] = c
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"values": values})
	case r.Method == http.MethodPut:
		var body struct {
			Values [][]any `json:"values"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var first, last int
		fmt.Sscanf(rng, "A%d:H%d", &first, &last)
		for i, vals := range body.Values {
			row := first + i
			for len(f.rows) < row {
				f.rows = append(f.rows, nil)
			}
			cols := make([]string, len(vals))
			for j, v := range vals {
				cols[j] = fmt.Sprint(v)
			}
			f.rows[row-1] = cols
		}
		json.NewEncoder(w).Encode(map[string]any{})
	case r.Method == http.MethodPost && clear:
		var row int
		fmt.Sscanf(rng, "A%d:", &row)
		if row > 0 && row <= len(f.rows) {
			f.rows[row-1] = []string{}
		}
		json.NewEncoder(w).Encode(map[string]any{})
	default:
		http.Error(w, "unsupported", http.StatusMethodNotAllowed)
	}
}

func newFakeClient(t *testing.T) (*Client, *fakeSheet) {
	t.Helper()
	fake := &fakeSheet{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), Config{SpreadsheetID: "sheet-1"},
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c, fake
}

func sampleTx(id string, cents int64) core.Transaction {
	return core.Transaction{
		ID:       id,
		UserID:   "u1",
		Type:     core.Expense,
		Amount:   core.Money{Cents: cents},
		Category: core.CategoryFuel,
		Date:     time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestExportWritesHeaderThenAppends(t *testing.T) {
	ctx := context.Background()
	c, fake := newFakeClient(t)

	ref, err := c.ExportTransaction(ctx, sampleTx("t1", 1000))
	require.NoError(t, err)
	assert.Equal(t, "Transactions!A2:H2", ref)
	_, err = c.ExportTransaction(ctx, sampleTx("t2", 2000))
	require.NoError(t, err)

	// Re-exporting updates in place.
	ref, err = c.ExportTransaction(ctx, sampleTx("t1", 1500))
	require.NoError(t, err)
	assert.Equal(t, "Transactions!A2:H2", ref)

	require.Len(t, fake.rows, 3)
	assert.Equal(t, "ID", fake.rows[0][0])
	rows, err := c.ListExported(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1500), rows[0].Amount.Cents)
}

func TestRemoveClearsRow(t *testing.T) {
	ctx := context.Background()
	c, _ := newFakeClient(t)

	for _, id := range []string{"t1", "t2"} {
		_, err := c.ExportTransaction(ctx, sampleTx(id, 100))
		require.NoError(t, err)
	}
	require.NoError(t, c.RemoveTransaction(ctx, "u1", "t1"))
	require.NoError(t, c.RemoveTransaction(ctx, "u1", "missing"), "unknown ids are a no-op")

	rows, err := c.ListExported(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "t2", rows[0].ID)
}

func TestNewRequiresSpreadsheet(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.Error(t, err, "spreadsheet id is required")

	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err = New(context.Background(), Config{SpreadsheetID: "x"})
	assert.Error(t, err, "credentials are required")
}
