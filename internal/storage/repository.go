// Package storage persists the merged entity snapshot in SQLite so a
// restart can warm-start from disk instead of refetching everything at
// cursor zero.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"zenledger/internal/core"
	"zenledger/internal/store"
	"zenledger/internal/zenmoney"

	_ "modernc.org/sqlite"
)

// SnapshotRepository is the SQLite mirror of the entity store. Rows are
// keyed (kind, id) with the entity JSON alongside, so the schema never
// changes when the wire format grows a field.
type SnapshotRepository struct {
	db *sql.DB
}

func NewSnapshotRepository(dbPath string) (*SnapshotRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := migrateMirrorSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("prepare mirror schema: %w", err)
	}

	return &SnapshotRepository{db: db}, nil
}

func (r *SnapshotRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ApplyDiff mirrors one applied diff: upsert every entity, remove every
// deletion, then advance the stored cursor, all in one transaction.
func (r *SnapshotRepository) ApplyDiff(ctx context.Context, d *zenmoney.Diff) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback()

	upsert, err := tx.PrepareContext(ctx, `
		INSERT INTO entities (kind, id, data, changed) VALUES (?, ?, ?, ?)
		ON CONFLICT (kind, id) DO UPDATE SET data = excluded.data, changed = excluded.changed`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer upsert.Close()

	put := func(kind, id string, entity any, changed int64) error {
		data, err := json.Marshal(entity)
		if err != nil {
			return fmt.Errorf("marshal %s %s: %w", kind, id, err)
		}
		if _, err := upsert.ExecContext(ctx, kind, id, string(data), changed); err != nil {
			return fmt.Errorf("upsert %s %s: %w", kind, id, err)
		}
		return nil
	}

	for _, e := range d.Instrument {
		if err := put(core.KindInstrument, fmt.Sprint(e.ID), e, e.Changed); err != nil {
			return err
		}
	}
	for _, e := range d.Company {
		if err := put(core.KindCompany, fmt.Sprint(e.ID), e, e.Changed); err != nil {
			return err
		}
	}
	for _, e := range d.User {
		if err := put(core.KindUser, fmt.Sprint(e.ID), e, e.Changed); err != nil {
			return err
		}
	}
	for _, e := range d.Account {
		if err := put(core.KindAccount, e.ID, e, e.Changed); err != nil {
			return err
		}
	}
	for _, e := range d.Tag {
		if err := put(core.KindTag, e.ID, e, e.Changed); err != nil {
			return err
		}
	}
	for _, e := range d.Merchant {
		if err := put(core.KindMerchant, e.ID, e, e.Changed); err != nil {
			return err
		}
	}
	for _, e := range d.Transaction {
		if err := put(core.KindTransaction, e.ID, e, e.Changed); err != nil {
			return err
		}
	}
	for _, e := range d.Reminder {
		if err := put(core.KindReminder, e.ID, e, e.Changed); err != nil {
			return err
		}
	}
	for _, e := range d.ReminderMarker {
		if err := put(core.KindReminderMarker, e.ID, e, e.Changed); err != nil {
			return err
		}
	}
	for _, e := range d.Budget {
		if err := put(core.KindBudget, store.KeyOf(e).String(), e, e.Changed); err != nil {
			return err
		}
	}

	for _, del := range d.Deletion {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM entities WHERE kind = ? AND id = ?`, del.Object, del.ID); err != nil {
			return fmt.Errorf("delete %s %s: %w", del.Object, del.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sync_state (id, cursor) VALUES (1, ?)
		ON CONFLICT (id) DO UPDATE SET cursor = excluded.cursor`,
		d.ServerTimestamp); err != nil {
		return fmt.Errorf("store cursor: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot tx: %w", err)
	}
	return nil
}

// Cursor returns the persisted cursor, zero when nothing has been
// mirrored yet.
func (r *SnapshotRepository) Cursor(ctx context.Context) (int64, error) {
	var cursor int64
	err := r.db.QueryRowContext(ctx, `SELECT cursor FROM sync_state WHERE id = 1`).Scan(&cursor)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read cursor: %w", err)
	}
	return cursor, nil
}

// LoadAll reads the whole mirror back as one diff suitable for
// store.Apply. Rows that fail to unmarshal are skipped rather than
// poisoning the warm start.
func (r *SnapshotRepository) LoadAll(ctx context.Context) (*zenmoney.Diff, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT kind, id, data FROM entities`)
	if err != nil {
		return nil, fmt.Errorf("load entities: %w", err)
	}
	defer rows.Close()

	d := &zenmoney.Diff{}
	for rows.Next() {
		var kind, id, data string
		if err := rows.Scan(&kind, &id, &data); err != nil {
			return nil, fmt.Errorf("scan entity row: %w", err)
		}
		raw := []byte(data)
		switch kind {
		case core.KindInstrument:
			var e core.Instrument
			if json.Unmarshal(raw, &e) == nil {
				d.Instrument = append(d.Instrument, e)
			}
		case core.KindCompany:
			var e core.Company
			if json.Unmarshal(raw, &e) == nil {
				d.Company = append(d.Company, e)
			}
		case core.KindUser:
			var e core.User
			if json.Unmarshal(raw, &e) == nil {
				d.User = append(d.User, e)
			}
		case core.KindAccount:
			var e core.Account
			if json.Unmarshal(raw, &e) == nil {
				d.Account = append(d.Account, e)
			}
		case core.KindTag:
			var e core.Tag
			if json.Unmarshal(raw, &e) == nil {
				d.Tag = append(d.Tag, e)
			}
		case core.KindMerchant:
			var e core.Merchant
			if json.Unmarshal(raw, &e) == nil {
				d.Merchant = append(d.Merchant, e)
			}
		case core.KindTransaction:
			var e core.Transaction
			if json.Unmarshal(raw, &e) == nil {
				d.Transaction = append(d.Transaction, e)
			}
		case core.KindReminder:
			var e core.Reminder
			if json.Unmarshal(raw, &e) == nil {
				d.Reminder = append(d.Reminder, e)
			}
		case core.KindReminderMarker:
			var e core.ReminderMarker
			if json.Unmarshal(raw, &e) == nil {
				d.ReminderMarker = append(d.ReminderMarker, e)
			}
		case core.KindBudget:
			var e core.Budget
			if json.Unmarshal(raw, &e) == nil {
				d.Budget = append(d.Budget, e)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entities: %w", err)
	}
	return d, nil
}

// Entity fetches one mirrored record by kind and id.
func (r *SnapshotRepository) Entity(ctx context.Context, kind, id string) (json.RawMessage, bool, error) {
	var data string
	err := r.db.QueryRowContext(ctx,
		`SELECT data FROM entities WHERE kind = ? AND id = ?`, kind, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s %s: %w", kind, id, err)
	}
	return json.RawMessage(data), true, nil
}
