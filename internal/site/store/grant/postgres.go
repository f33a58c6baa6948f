package grant

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

// PostgresStore persists admin grants in PostgreSQL. The site_admins
// primary key enforces at most one grant per (site, principal).
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed grant store.
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

func (s *PostgresStore) Create(ctx context.Context, g *models.Grant) error {
	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO site_admins (site_id, admin_id, role, created_at)
		VALUES ($1, $2, $3, $4)
	`, g.SiteID.String(), g.Principal.String(), string(g.Role), g.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create grant: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, siteID id.SiteID, principal id.PrincipalID) (*models.Grant, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `
		SELECT site_id, admin_id, role, created_at
		FROM site_admins WHERE site_id = $1 AND admin_id = $2
	`, siteID.String(), principal.String())
	return scanGrant(row)
}

func (s *PostgresStore) ListForPrincipal(ctx context.Context, principal id.PrincipalID) ([]*models.Grant, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT site_id, admin_id, role, created_at
		FROM site_admins WHERE admin_id = $1
	`, principal.String())
	if err != nil {
		return nil, fmt.Errorf("list grants for principal: %w", err)
	}
	defer rows.Close()
	return scanGrants(rows)
}

func (s *PostgresStore) ListForSite(ctx context.Context, siteID id.SiteID) ([]*models.Grant, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT site_id, admin_id, role, created_at
		FROM site_admins WHERE site_id = $1
	`, siteID.String())
	if err != nil {
		return nil, fmt.Errorf("list grants for site: %w", err)
	}
	defer rows.Close()
	return scanGrants(rows)
}

// DeleteGuarded removes a grant unless it is the site's last admin grant.
// The guard runs inside the DELETE statement itself, so concurrent revokes
// cannot drop a site to zero admins.
func (s *PostgresStore) DeleteGuarded(ctx context.Context, siteID id.SiteID, principal id.PrincipalID) error {
	res, err := s.conn(ctx).ExecContext(ctx, `
		DELETE FROM site_admins target
		WHERE target.site_id = $1 AND target.admin_id = $2
		  AND NOT (
			target.role = 'admin'
			AND (SELECT COUNT(*) FROM site_admins sa
			     WHERE sa.site_id = $1 AND sa.role = 'admin') <= 1
		  )
	`, siteID.String(), principal.String())
	if err != nil {
		return fmt.Errorf("delete grant: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete grant result: %w", err)
	}
	if affected == 1 {
		return nil
	}

	// Nothing deleted: either the grant is missing or the guard refused.
	_, err = s.Find(ctx, siteID, principal)
	if errors.Is(err, sentinel.ErrNotFound) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return err
	}
	return sentinel.ErrInvalidState
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGrant(row rowScanner) (*models.Grant, error) {
	var (
		g            models.Grant
		rawSite      string
		rawPrincipal string
		rawRole      string
	)
	err := row.Scan(&rawSite, &rawPrincipal, &rawRole, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan grant: %w", err)
	}
	siteID, err := id.ParseSiteID(rawSite)
	if err != nil {
		return nil, fmt.Errorf("stored site id invalid: %w", err)
	}
	principal, err := id.ParsePrincipalID(rawPrincipal)
	if err != nil {
		return nil, fmt.Errorf("stored admin id invalid: %w", err)
	}
	g.SiteID = siteID
	g.Principal = principal
	g.Role = models.Role(rawRole)
	return &g, nil
}

func scanGrants(rows *sql.Rows) ([]*models.Grant, error) {
	var out []*models.Grant
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate grants: %w", err)
	}
	return out, nil
}
