package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

var ErrInvalidEntry = errors.New("invalid file entry")

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS catalog_files (
  id                INTEGER PRIMARY KEY,
  path              TEXT NOT NULL UNIQUE,
  kind              TEXT NOT NULL,
  checksum          TEXT NOT NULL,
  size              INTEGER NOT NULL,
  run_id            INTEGER NOT NULL DEFAULT 0,
  first_written_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  last_written_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_files_kind ON catalog_files(kind);
CREATE TABLE IF NOT EXISTS catalog_changes (
  id                INTEGER PRIMARY KEY,
  occurred_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  run_id            INTEGER NOT NULL,
  path              TEXT NOT NULL,
  kind              TEXT NOT NULL,
  checksum          TEXT,
  change_type       TEXT NOT NULL CHECK (change_type IN ('added','updated','removed'))
);
CREATE INDEX IF NOT EXISTS idx_changes_time ON catalog_changes(occurred_at);
CREATE INDEX IF NOT EXISTS idx_changes_path ON catalog_changes(path, occurred_at);
    `); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// NewRunID returns an identifier for a run that sorts after every earlier run.
func NewRunID() int64 {
	return time.Now().UnixNano()
}

// RecordFile upserts a written file and logs what changed. It returns nil
// when the file is byte-for-byte identical to the last recorded write.
func (d *DB) RecordFile(ctx context.Context, runID int64, e FileEntry) (change *Change, err error) {
	if e.Path == "" || e.Kind == "" || e.Checksum == "" {
		return nil, ErrInvalidEntry
	}

	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var prev string
	err = tx.QueryRowContext(ctx, "SELECT checksum FROM catalog_files WHERE path = ?", e.Path).Scan(&prev)
	existed := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	err = nil

	changeType := ""
	switch {
	case !existed:
		_, err = tx.ExecContext(ctx, `INSERT INTO catalog_files(path, kind, checksum, size, run_id, first_written_at, last_written_at) VALUES(?,?,?,?,?,CURRENT_TIMESTAMP,CURRENT_TIMESTAMP)`, e.Path, e.Kind, e.Checksum, e.Size, runID)
		changeType = "added"
	case prev != e.Checksum:
		_, err = tx.ExecContext(ctx, `UPDATE catalog_files SET kind = ?, checksum = ?, size = ?, run_id = ?, last_written_at = CURRENT_TIMESTAMP WHERE path = ?`, e.Kind, e.Checksum, e.Size, runID, e.Path)
		changeType = "updated"
	default:
		_, err = tx.ExecContext(ctx, `UPDATE catalog_files SET run_id = ?, last_written_at = CURRENT_TIMESTAMP WHERE path = ?`, runID, e.Path)
	}
	if err != nil {
		return nil, err
	}

	if changeType != "" {
		if _, err = tx.ExecContext(ctx, `INSERT INTO catalog_changes(occurred_at, run_id, path, kind, checksum, change_type) VALUES(CURRENT_TIMESTAMP, ?, ?, ?, ?, ?)`, runID, e.Path, e.Kind, e.Checksum, changeType); err != nil {
			return nil, err
		}
		change = &Change{OccurredAt: time.Now().UTC(), RunID: runID, Path: e.Path, Kind: e.Kind, Checksum: e.Checksum, ChangeType: changeType}
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return change, nil
}

// SweepRun forgets every file under prefix that run runID did not write and
// logs it as removed. Only meaningful after a full, unscoped run.
func (d *DB) SweepRun(ctx context.Context, runID int64, prefix string) (changes []Change, err error) {
	now := time.Now().UTC()

	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	like := escapeLike(prefix) + "%"
	rows, err := tx.QueryContext(ctx, `SELECT path, kind FROM catalog_files WHERE path LIKE ? ESCAPE '\' AND run_id != ? ORDER BY path`, like, runID)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var c Change
		if err = rows.Scan(&c.Path, &c.Kind); err != nil {
			rows.Close()
			return nil, err
		}
		c.OccurredAt, c.RunID, c.ChangeType = now, runID, "removed"
		changes = append(changes, c)
	}
	if err = rows.Close(); err != nil {
		return nil, err
	}

	for _, c := range changes {
		if _, err = tx.ExecContext(ctx, `DELETE FROM catalog_files WHERE path = ?`, c.Path); err != nil {
			return nil, err
		}
		if _, err = tx.ExecContext(ctx, `INSERT INTO catalog_changes(occurred_at, run_id, path, kind, change_type) VALUES(CURRENT_TIMESTAMP, ?, ?, ?, 'removed')`, runID, c.Path, c.Kind); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return changes, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// ListRecentChanges returns the most recent N changes across all files.
func (d *DB) ListRecentChanges(ctx context.Context, limit int) ([]Change, error) {
	if limit <= 0 {
		limit = 50
	}
	q := "SELECT occurred_at, run_id, path, kind, checksum, change_type FROM catalog_changes ORDER BY occurred_at DESC, id DESC LIMIT ?"
	rows, err := d.sql.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	changes := []Change{}
	for rows.Next() {
		var c Change
		var occurredAtStr string
		var checksum sql.NullString
		if err := rows.Scan(&occurredAtStr, &c.RunID, &c.Path, &c.Kind, &checksum, &c.ChangeType); err != nil {
			return nil, err
		}
		c.Checksum = checksum.String
		// Parse SQLite CURRENT_TIMESTAMP format
		// Try "2006-01-02 15:04:05" then RFC3339
		if t, perr := time.Parse("2006-01-02 15:04:05", occurredAtStr); perr == nil {
			c.OccurredAt = t
		} else if t2, perr2 := time.Parse(time.RFC3339, occurredAtStr); perr2 == nil {
			c.OccurredAt = t2
		}
		changes = append(changes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return changes, nil
}

func (d *DB) GetStats(ctx context.Context) ([]KindStats, error) {
	query := `
		SELECT
			kind,
			COUNT(*),
			COALESCE(SUM(size), 0)
		FROM
			catalog_files
		GROUP BY
			kind
		ORDER BY
			kind;
	`
	rows, err := d.sql.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []KindStats
	for rows.Next() {
		var s KindStats
		if err := rows.Scan(&s.Kind, &s.FileCount, &s.Bytes); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}
