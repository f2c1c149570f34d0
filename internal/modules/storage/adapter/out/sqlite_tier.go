package out

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"siteaudit/internal/modules/storage/domain"
	storageout "siteaudit/internal/modules/storage/port/out"
	apperrors "siteaudit/internal/platform/errors"

	_ "modernc.org/sqlite"
)

// SQLiteTier is the transactional tier. quotaBytes <= 0 disables the quota.
type SQLiteTier struct {
	db    *sql.DB
	quota int64
}

func NewSQLiteTier(dbPath string, quotaBytes int64) (storageout.Tier, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	tier := &SQLiteTier{db: db, quota: quotaBytes}
	if err := tier.init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return tier, nil
}

func (s *SQLiteTier) init(ctx context.Context) error {
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := s.db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("apply %q: %w", pragma, err)
		}
	}
	const ddl = `
CREATE TABLE IF NOT EXISTS kv (
  key TEXT PRIMARY KEY,
  value BLOB NOT NULL,
  updated_at TEXT NOT NULL
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create kv table: %w", err)
	}
	return nil
}

func (s *SQLiteTier) Name() domain.TierName {
	return domain.TierTransactional
}

func (s *SQLiteTier) Put(ctx context.Context, key domain.Key, value []byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin put: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if s.quota > 0 {
		var used int64
		row := tx.QueryRowContext(ctx, `SELECT COALESCE(SUM(LENGTH(value)), 0) FROM kv WHERE key <> ?`, string(key))
		if err := row.Scan(&used); err != nil {
			return fmt.Errorf("measure usage: %w", err)
		}
		if used+int64(len(value)) > s.quota {
			return fmt.Errorf("put %s (%d bytes, %d used of %d): %w", key, len(value), used, s.quota, domain.ErrQuotaExceeded)
		}
	}

	const stmt = `
INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET
  value=excluded.value,
  updated_at=excluded.updated_at;
`
	if value == nil {
		value = []byte{}
	}
	if _, err := tx.ExecContext(ctx, stmt, string(key), value, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit put: %w", err)
	}
	return nil
}

func (s *SQLiteTier) Get(ctx context.Context, key domain.Key) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, string(key)).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrAbsent
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteTier) Delete(ctx context.Context, key domain.Key) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, string(key)); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteTier) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv`); err != nil {
		return fmt.Errorf("clear kv: %w", err)
	}
	return nil
}

func (s *SQLiteTier) Close() error {
	return s.db.Close()
}
