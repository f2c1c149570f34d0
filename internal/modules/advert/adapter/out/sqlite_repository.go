package out

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"siteaudit/internal/modules/advert/domain"
	advertout "siteaudit/internal/modules/advert/port/out"
	apperrors "siteaudit/internal/platform/errors"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	repo := &SQLiteRepository{db: db}
	if err := repo.init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

var _ advertout.Repository = (*SQLiteRepository)(nil)

func (r *SQLiteRepository) init(ctx context.Context) error {
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
	} {
		if _, err := r.db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("apply %q: %w", pragma, err)
		}
	}
	const ddl = `
CREATE TABLE IF NOT EXISTS adverts (
  id TEXT PRIMARY KEY,
  business_name TEXT NOT NULL,
  email TEXT NOT NULL,
  website TEXT NOT NULL DEFAULT '',
  image_key TEXT NOT NULL,
  content_type TEXT NOT NULL,
  amount_cents INTEGER NOT NULL,
  status TEXT NOT NULL CHECK(status IN ('pending','active','rejected')),
  checkout_id TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_adverts_status ON adverts(status, created_at);
`
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create adverts table: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Insert(ctx context.Context, a domain.Advert) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO adverts(id, business_name, email, website, image_key, content_type, amount_cents, status, checkout_id, created_at, updated_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.BusinessName, a.Email, a.Website, a.ImageKey, a.ContentType, a.AmountCents,
		string(a.Status), a.CheckoutID, formatTime(a.CreatedAt), formatTime(a.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert advert: %w", err)
	}
	return nil
}

const selectColumns = `SELECT id, business_name, email, website, image_key, content_type, amount_cents, status, checkout_id, created_at, updated_at FROM adverts`

func (r *SQLiteRepository) Get(ctx context.Context, id string) (domain.Advert, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	advert, err := scanAdvert(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Advert{}, fmt.Errorf("%w: advert %s", apperrors.ErrNotFound, id)
	}
	if err != nil {
		return domain.Advert{}, fmt.Errorf("read advert: %w", err)
	}
	return advert, nil
}

func (r *SQLiteRepository) List(ctx context.Context, status domain.Status) ([]domain.Advert, error) {
	query := selectColumns
	var args []any
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query adverts: %w", err)
	}
	defer rows.Close()

	out := []domain.Advert{}
	for rows.Next() {
		advert, err := scanAdvert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan advert: %w", err)
		}
		out = append(out, advert)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) Update(ctx context.Context, a domain.Advert) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE adverts SET status = ?, checkout_id = ?, updated_at = ? WHERE id = ?`,
		string(a.Status), a.CheckoutID, formatTime(a.UpdatedAt), a.ID,
	)
	if err != nil {
		return fmt.Errorf("update advert: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update advert: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: advert %s", apperrors.ErrNotFound, a.ID)
	}
	return nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAdvert(row scanner) (domain.Advert, error) {
	var a domain.Advert
	var status, created, updated string
	if err := row.Scan(&a.ID, &a.BusinessName, &a.Email, &a.Website, &a.ImageKey, &a.ContentType,
		&a.AmountCents, &status, &a.CheckoutID, &created, &updated); err != nil {
		return domain.Advert{}, err
	}
	a.Status = domain.Status(status)
	var err error
	if a.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return domain.Advert{}, fmt.Errorf("parse created_at: %w", err)
	}
	if a.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
		return domain.Advert{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return a, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
