package persist

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schemaVersion = 1

// SQLiteBackend appends every snapshot as a row and loads the newest one.
// Only the last keep rows are retained; keep <= 0 keeps everything.
type SQLiteBackend struct {
	db   *sql.DB
	keep int
}

// NewSQLiteBackend opens (or creates) the SQLite database at dbPath and runs migrations.
func NewSQLiteBackend(dbPath string, keep int) (*SQLiteBackend, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	b := &SQLiteBackend{db: db, keep: keep}
	if err := b.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return b, nil
}

// NewSQLiteMemory creates an in-memory backend for testing.
func NewSQLiteMemory(keep int) (*SQLiteBackend, error) {
	return NewSQLiteBackend(":memory:", keep)
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

func (b *SQLiteBackend) migrate() error {
	var version int
	if err := b.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= schemaVersion {
		return nil
	}

	if version < 1 {
		if err := b.migrateV1(); err != nil {
			return err
		}
	}

	_, err := b.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion))
	return err
}

func (b *SQLiteBackend) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS snapshots (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		store_id  TEXT NOT NULL DEFAULT '',
		payload   TEXT NOT NULL,
		saved_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_store ON snapshots(store_id);
	`
	_, err := b.db.Exec(ddl)
	return err
}

// Save appends the payload and prunes old rows.
func (b *SQLiteBackend) Save(ctx context.Context, payload string) error {
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO snapshots (store_id, payload, saved_at) VALUES (?, ?, ?)`,
		storeID(payload), payload, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	if b.keep > 0 {
		if _, err := b.Prune(ctx, b.keep); err != nil {
			return err
		}
	}
	return nil
}

// Load returns the newest payload, or "" when the table is empty.
func (b *SQLiteBackend) Load(ctx context.Context) (string, error) {
	var payload string
	err := b.db.QueryRowContext(ctx,
		`SELECT payload FROM snapshots ORDER BY id DESC LIMIT 1`,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load snapshot: %w", err)
	}
	return payload, nil
}

// Prune deletes all but the newest keep snapshots and returns how many went.
// The newest snapshot is always kept.
func (b *SQLiteBackend) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 1 {
		return 0, fmt.Errorf("prune snapshots: keep %d: must keep at least 1", keep)
	}
	res, err := b.db.ExecContext(ctx,
		`DELETE FROM snapshots WHERE id NOT IN (SELECT id FROM snapshots ORDER BY id DESC LIMIT ?)`,
		keep,
	)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return res.RowsAffected()
}

// Snapshot is one stored row.
type Snapshot struct {
	ID      int64
	StoreID string
	SavedAt time.Time
	Size    int
}

// History lists stored snapshots, newest first.
func (b *SQLiteBackend) History(ctx context.Context) ([]Snapshot, error) {
	rows, err := b.db.QueryContext(ctx,
		`SELECT id, store_id, saved_at, length(payload) FROM snapshots ORDER BY id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var (
			s       Snapshot
			savedAt string
		)
		if err := rows.Scan(&s.ID, &s.StoreID, &savedAt, &s.Size); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		s.SavedAt, _ = time.Parse(time.RFC3339, savedAt)
		out = append(out, s)
	}
	return out, rows.Err()
}

// storeID pulls the store id out of a payload; "" when it is not JSON.
func storeID(payload string) string {
	var head struct {
		StoreID string `json:"storeId"`
	}
	if err := json.Unmarshal([]byte(payload), &head); err != nil {
		return ""
	}
	return head.StoreID
}
