// Package worker turns entity change messages into audit-trail rows.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"zenledger/internal/amqp"
	"zenledger/internal/core"
	"zenledger/internal/sheets"
	"zenledger/internal/storage"
)

// AuditWorker consumes change announcements, loads the entity body from
// the snapshot mirror and appends one audit row per change.
type AuditWorker struct {
	snapshots *storage.SnapshotRepository
	audit     sheets.AuditWriter
}

func NewAuditWorker(snapshots *storage.SnapshotRepository, audit sheets.AuditWriter) *AuditWorker {
	return &AuditWorker{
		snapshots: snapshots,
		audit:     audit,
	}
}

// ErrWriteOnlyBackend means the audit sink cannot be read back.
var ErrWriteOnlyBackend = errors.New("audit backend is write-only")

// Tail reads the most recent audit rows back from the sink, oldest
// first, for inspecting what the trail recorded.
func (w *AuditWorker) Tail(ctx context.Context, limit int) ([]sheets.Entry, error) {
	reader, ok := w.audit.(sheets.AuditReader)
	if !ok {
		return nil, ErrWriteOnlyBackend
	}
	return reader.Recent(ctx, limit)
}

// HandleChangeMessage processes a single change message from AMQP. A
// missing entity means the change was a deletion already applied to the
// mirror; it is recorded as such rather than requeued forever.
func (w *AuditWorker) HandleChangeMessage(ctx context.Context, msg *amqp.ChangeMessage) error {
	raw, found, err := w.snapshots.Entity(ctx, msg.Kind, msg.ID)
	if err != nil {
		return fmt.Errorf("load %s %s from snapshot: %w", msg.Kind, msg.ID, err)
	}

	summary := "deleted"
	if found {
		summary = summarize(msg.Kind, raw)
	}

	when := msg.Timestamp
	if when.IsZero() {
		when = time.Now()
	}

	ref, err := w.audit.Append(ctx, sheets.Entry{
		When:    when,
		Kind:    msg.Kind,
		ID:      msg.ID,
		Summary: summary,
	})
	if err != nil {
		return fmt.Errorf("append audit row: %w", err)
	}

	slog.InfoContext(ctx, "Audit row recorded",
		"kind", msg.Kind,
		"id", msg.ID,
		"ref", ref)
	return nil
}

// summarize renders a short one-line description of the entity body.
// Unknown kinds fall back to the raw identity, never an error: an
// ugly audit row beats a poisoned queue.
func summarize(kind string, raw json.RawMessage) string {
	switch kind {
	case core.KindTransaction:
		var t core.Transaction
		if json.Unmarshal(raw, &t) != nil {
			break
		}
		label := t.Payee
		if label == "" {
			label = t.Comment
		}
		switch t.Kind() {
		case core.OpExpense:
			return fmt.Sprintf("%s expense %.2f %s", t.Date, t.Outcome, label)
		case core.OpIncome:
			return fmt.Sprintf("%s income %.2f %s", t.Date, t.Income, label)
		case core.OpTransfer:
			return fmt.Sprintf("%s transfer %.2f %s", t.Date, t.Outcome, label)
		}
		return fmt.Sprintf("%s unclassified %s", t.Date, label)
	case core.KindAccount:
		var a core.Account
		if json.Unmarshal(raw, &a) != nil {
			break
		}
		return fmt.Sprintf("%s (%s) balance %.2f", a.Title, a.Subtype(), a.Balance)
	case core.KindReminder:
		var r core.Reminder
		if json.Unmarshal(raw, &r) != nil {
			break
		}
		return fmt.Sprintf("reminder from %s outcome %.2f income %.2f", r.StartDate, r.Outcome, r.Income)
	case core.KindReminderMarker:
		var m core.ReminderMarker
		if json.Unmarshal(raw, &m) != nil {
			break
		}
		return fmt.Sprintf("%s %s outcome %.2f income %.2f", m.Date, m.State, m.Outcome, m.Income)
	case core.KindBudget:
		var b core.Budget
		if json.Unmarshal(raw, &b) != nil {
			break
		}
		return fmt.Sprintf("%s income %.2f outcome %.2f", b.Date, b.Income, b.Outcome)
	case core.KindTag:
		var t core.Tag
		if json.Unmarshal(raw, &t) != nil {
			break
		}
		return t.Title
	case core.KindMerchant:
		var m core.Merchant
		if json.Unmarshal(raw, &m) != nil {
			break
		}
		return m.Title
	}
	return "changed"
}
