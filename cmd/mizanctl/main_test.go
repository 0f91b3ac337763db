package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mizan/internal/ledger"
	"mizan/internal/storage"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCycleCommand(t *testing.T) {
	out, err := run(t, "cycle", "--start-day", "23", "--date", "2024-03-15", "--tz", "UTC", "--count", "2")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "2024-2 "), lines[0])
	assert.Contains(t, lines[0], "2024-02-23 → 2024-03-22")
	assert.True(t, strings.HasPrefix(lines[1], "2024-3 "), lines[1])
}

func TestCycleCommandRejectsBadInput(t *testing.T) {
	_, err := run(t, "cycle", "--start-day", "30")
	assert.Error(t, err)

	_, err = run(t, "cycle", "--date", "15/03/2024", "--tz", "UTC")
	assert.Error(t, err)
}

func TestBalanceCheckAgainstSQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "mizan.db")
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("SQLITE_DB_PATH", dbPath)
	t.Setenv("CYCLE_TIMEZONE", "UTC")

	repo, err := storage.NewSQLiteRepository(dbPath)
	require.NoError(t, err)
	ctx := context.Background()
	_, err = ledger.EnsureProfile(ctx, repo, ledger.NewProfile{UID: "u1"}, timeNow())
	require.NoError(t, err)
	require.NoError(t, repo.Close())

	out, err := run(t, "balance", "check", "--user", "u1")
	require.NoError(t, err)
	assert.Contains(t, out, "u1")
	assert.Contains(t, out, "ok")

	_, err = run(t, "balance", "check")
	assert.Error(t, err)

	out, err = run(t, "migrate", "--status")
	require.NoError(t, err)
	assert.Contains(t, out, "schema version 2")
}

func timeNow() time.Time { return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC) }
