package sheets

import (
	"context"
	"time"
)

// Entry is one audit-trail row: which entity changed, when, and a short
// human-readable summary of what it looked like at that point.
type Entry struct {
	When    time.Time
	Kind    string
	ID      string
	Summary string
}

// Ports for outbound adapters.
type (
	AuditWriter interface {
		Append(ctx context.Context, e Entry) (rowRef string, err error)
	}

	// AuditReader returns the most recent audit rows, newest last.
	AuditReader interface {
		Recent(ctx context.Context, limit int) ([]Entry, error)
	}
)
