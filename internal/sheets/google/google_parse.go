package google

import (
	"fmt"
	"time"

	ports "zenledger/internal/sheets"
)

// parseAudit converts a values matrix (as returned by Sheets API) into
// audit entries. Rows that don't carry at least a timestamp and a kind
// are skipped rather than failing the read.
func parseAudit(values [][]interface{}) []ports.Entry {
	var out []ports.Entry
	for _, raw := range values {
		row := toStrings(raw)
		when, err := time.Parse(time.RFC3339, safeGet(row, 0))
		if err != nil {
			// Header row or hand-edited garbage.
			continue
		}
		kind := safeGet(row, 1)
		if kind == "" {
			continue
		}
		out = append(out, ports.Entry{
			When:    when,
			Kind:    kind,
			ID:      safeGet(row, 2),
			Summary: safeGet(row, 3),
		})
	}
	return out
}

func toStrings(row []interface{}) []string {
	out := make([]string, len(row))
	for i, v := range row {
		out[i] = fmt.Sprint(v)
	}
	return out
}

func safeGet(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
