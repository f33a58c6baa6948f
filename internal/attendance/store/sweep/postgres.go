package sweep

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	id "github.com/aivaterepositories/sight-sign/pkg/domain"
)

// PostgresStore persists sweep markers in the site_sweeps table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed sweep marker store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) LastSwept(ctx context.Context, siteID id.SiteID) (time.Time, bool, error) {
	var last time.Time
	err := s.db.QueryRowContext(ctx,
		`SELECT swept_until FROM site_sweeps WHERE site_id = $1`, siteID.String()).Scan(&last)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("read sweep marker: %w", err)
	}
	return last, true, nil
}

// MarkSwept upserts the marker, keeping the greatest value so replicas
// racing on the same site can only move it forward.
func (s *PostgresStore) MarkSwept(ctx context.Context, siteID id.SiteID, cutoff time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO site_sweeps (site_id, swept_until)
		VALUES ($1, $2)
		ON CONFLICT (site_id) DO UPDATE SET
			swept_until = GREATEST(site_sweeps.swept_until, EXCLUDED.swept_until)
	`, siteID.String(), cutoff)
	if err != nil {
		return fmt.Errorf("write sweep marker: %w", err)
	}
	return nil
}
