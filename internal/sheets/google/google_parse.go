package google

import (
	"fmt"
	"strings"

	ports "mizan/internal/sheets"
)

// parseRows decodes the values matrix returned by the Sheets API, keeping
// rows owned by userID.
func parseRows(values [][]any, userID string) []ports.ExportedRow {
	out := make([]ports.ExportedRow, 0, len(values))
	for _, raw := range values {
		row, ok := ports.ParseRow(toStrings(raw))
		if !ok || row.UserID != userID {
			continue
		}
		out = append(out, row)
	}
	return out
}

// findRow returns the 1-based row holding id, or 0.
func findRow(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i + 1
		}
	}
	return 0
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
