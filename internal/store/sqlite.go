package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const createSlotsTable = `
CREATE TABLE IF NOT EXISTS dispatcher_slots (
    dispatcher TEXT    NOT NULL,
    slot       INTEGER NOT NULL,
    value      BLOB    NOT NULL,
    PRIMARY KEY (dispatcher, slot)
);
`

// newSQLiteBackend 打开（或创建）SQLite 槽位库。一次 Commit 对应一个事务，
// 由 SQLite 保证原子性。
func newSQLiteBackend(path string) (Backend, error) {
	if path == "" {
		return nil, errors.New("sqlite path required")
	}

	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(createSlotsTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure slots table: %w", err)
	}

	return &sqliteBackend{db: db}, nil
}

type sqliteBackend struct {
	db *sql.DB
}

func (b *sqliteBackend) Load(ctx context.Context, dispatcher string) (Slots, error) {
	if err := validateDispatcherName(dispatcher); err != nil {
		return nil, err
	}

	rows, err := b.db.QueryContext(ctx,
		`SELECT slot, value FROM dispatcher_slots WHERE dispatcher = ?`, dispatcher)
	if err != nil {
		return nil, fmt.Errorf("load slots: %w", err)
	}
	defer rows.Close()

	slots := Slots{}
	for rows.Next() {
		var idx int64
		var value []byte
		if err := rows.Scan(&idx, &value); err != nil {
			return nil, fmt.Errorf("scan slot row: %w", err)
		}
		slots[uint64(idx)] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slot rows: %w", err)
	}
	return slots, nil
}

func (b *sqliteBackend) Commit(ctx context.Context, dispatcher string, changes Slots) error {
	if err := validateDispatcherName(dispatcher); err != nil {
		return err
	}
	if len(changes) == 0 {
		return nil
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin commit tx: %w", err)
	}

	const upsert = `
INSERT INTO dispatcher_slots (dispatcher, slot, value) VALUES (?, ?, ?)
ON CONFLICT (dispatcher, slot) DO UPDATE SET value = excluded.value`
	for idx, value := range changes {
		if _, err := tx.ExecContext(ctx, upsert, dispatcher, int64(idx), value); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert slot %d: %w", idx, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit slots tx: %w", err)
	}
	return nil
}

func (b *sqliteBackend) Close() error {
	return b.db.Close()
}
