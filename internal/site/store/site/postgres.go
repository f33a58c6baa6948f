package site

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/aivaterepositories/sight-sign/internal/site/models"
	id "github.com/aivaterepositories/sight-sign/pkg/domain"
	"github.com/aivaterepositories/sight-sign/pkg/platform/sentinel"
	"github.com/aivaterepositories/sight-sign/pkg/platform/tx"
)

// PostgresStore persists sites in PostgreSQL. The auto sign-out time is
// stored as seconds since midnight.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed site store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) conn(ctx context.Context) querier {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.db
}

const siteColumns = `id, name, COALESCE(address, ''), auto_signout_secs, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, site *models.Site) error {
	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO sites (id, name, address, auto_signout_secs, created_at, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6)
	`, site.ID.String(), site.Name, site.Address, int(site.AutoSignout), site.CreatedAt, site.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create site: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, siteID id.SiteID) (*models.Site, error) {
	row := s.conn(ctx).QueryRowContext(ctx,
		`SELECT `+siteColumns+` FROM sites WHERE id = $1`, siteID.String())
	return scanSite(row)
}

func (s *PostgresStore) FindByIDs(ctx context.Context, siteIDs []id.SiteID) ([]*models.Site, error) {
	if len(siteIDs) == 0 {
		return nil, nil
	}
	raw := make([]string, len(siteIDs))
	for i, siteID := range siteIDs {
		raw[i] = siteID.String()
	}
	rows, err := s.conn(ctx).QueryContext(ctx,
		`SELECT `+siteColumns+` FROM sites WHERE id = ANY($1::uuid[]) ORDER BY created_at DESC`,
		pq.Array(raw))
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	defer rows.Close()
	return scanSites(rows)
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]*models.Site, error) {
	rows, err := s.conn(ctx).QueryContext(ctx,
		`SELECT `+siteColumns+` FROM sites ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list all sites: %w", err)
	}
	defer rows.Close()
	return scanSites(rows)
}

// Execute runs validate-then-mutate on a site under a row lock so
// concurrent updates serialize.
func (s *PostgresStore) Execute(ctx context.Context, siteID id.SiteID, validate func(*models.Site) error, mutate func(*models.Site)) (*models.Site, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin site update: %w", err)
	}
	defer func() { _ = dbTx.Rollback() }()

	row := dbTx.QueryRowContext(ctx,
		`SELECT `+siteColumns+` FROM sites WHERE id = $1 FOR UPDATE`, siteID.String())
	site, err := scanSite(row)
	if err != nil {
		return nil, err
	}

	if err := validate(site); err != nil {
		return nil, err
	}
	mutate(site)

	_, err = dbTx.ExecContext(ctx, `
		UPDATE sites SET name = $2, address = NULLIF($3, ''), auto_signout_secs = $4, updated_at = $5
		WHERE id = $1
	`, site.ID.String(), site.Name, site.Address, int(site.AutoSignout), site.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update site: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("commit site update: %w", err)
	}
	return site, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSite(row rowScanner) (*models.Site, error) {
	var (
		site    models.Site
		rawID   string
		seconds int
	)
	err := row.Scan(&rawID, &site.Name, &site.Address, &seconds, &site.CreatedAt, &site.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan site: %w", err)
	}
	siteID, err := id.ParseSiteID(rawID)
	if err != nil {
		return nil, fmt.Errorf("stored site id invalid: %w", err)
	}
	site.ID = siteID
	site.AutoSignout = models.TimeOfDay(seconds)
	return &site, nil
}

func scanSites(rows *sql.Rows) ([]*models.Site, error) {
	var out []*models.Site
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, site)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sites: %w", err)
	}
	return out, nil
}
