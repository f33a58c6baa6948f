package record

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/aivaterepositories/sight-sign/internal/attendance/models"
	id "github.com/aivaterepositories/sight-sign/pkg/domain"
	dErrors "github.com/aivaterepositories/sight-sign/pkg/domain-errors"
	"github.com/aivaterepositories/sight-sign/pkg/platform/sentinel"
	"github.com/aivaterepositories/sight-sign/pkg/platform/tx"
)

// PostgresStore persists attendance records in PostgreSQL.
//
// The one-open-record invariant is carried by the partial unique index
// attendance_open_pair_key on (worker_id, site_id) WHERE signed_out_at IS
// NULL. Open is a single INSERT, so a request cancelled mid-flight leaves
// either a committed record or nothing; there is no read-then-write window
// visible to other callers.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed attendance store.
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

const recordColumns = `id, worker_id, site_id, signed_in_at, signed_out_at`

func (s *PostgresStore) Open(ctx context.Context, r *models.Record) error {
	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO attendance (id, worker_id, site_id, signed_in_at)
		VALUES ($1, $2, $3, $4)
	`, r.ID.String(), r.WorkerID.String(), r.SiteID.String(), r.SignedInAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("open attendance record: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, recordID id.RecordID) (*models.Record, error) {
	row := s.conn(ctx).QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM attendance WHERE id = $1`, recordID.String())
	return scanRecord(row)
}

// Close marks the record signed out. The state checks run inside the
// UPDATE itself; a zero-row result is disambiguated with a follow-up read.
func (s *PostgresStore) Close(ctx context.Context, recordID id.RecordID, at time.Time) (*models.Record, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `
		UPDATE attendance SET signed_out_at = $2
		WHERE id = $1 AND signed_out_at IS NULL AND signed_in_at <= $2
		RETURNING `+recordColumns+`
	`, recordID.String(), at)

	r, err := scanRecord(row)
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, err
	}

	existing, findErr := s.FindByID(ctx, recordID)
	if findErr != nil {
		return nil, findErr
	}
	if !existing.Open() {
		return nil, sentinel.ErrInvalidState
	}
	return nil, dErrors.New(dErrors.CodeInvalidInput, "sign-out time precedes sign-in time")
}

func (s *PostgresStore) FindOpen(ctx context.Context, workerID id.WorkerID, siteID id.SiteID) (*models.Record, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `
		SELECT `+recordColumns+` FROM attendance
		WHERE worker_id = $1 AND site_id = $2 AND signed_out_at IS NULL
	`, workerID.String(), siteID.String())
	return scanRecord(row)
}

func (s *PostgresStore) OpenForSite(ctx context.Context, siteID id.SiteID) ([]*models.Record, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT `+recordColumns+` FROM attendance
		WHERE site_id = $1 AND signed_out_at IS NULL
		ORDER BY signed_in_at DESC
	`, siteID.String())
	if err != nil {
		return nil, fmt.Errorf("list open records: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (s *PostgresStore) HistoryFor(ctx context.Context, workerID id.WorkerID, limit int) ([]*models.Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT `+recordColumns+` FROM attendance
		WHERE worker_id = $1
		ORDER BY signed_in_at DESC
		LIMIT $2
	`, workerID.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("list worker history: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (s *PostgresStore) CloseAllOpenBefore(ctx context.Context, siteID id.SiteID, cutoff time.Time) (int, error) {
	res, err := s.conn(ctx).ExecContext(ctx, `
		UPDATE attendance SET signed_out_at = $2
		WHERE site_id = $1 AND signed_out_at IS NULL AND signed_in_at < $2
	`, siteID.String(), cutoff)
	if err != nil {
		return 0, fmt.Errorf("close open records before cutoff: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("close open records result: %w", err)
	}
	return int(affected), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.Record, error) {
	var (
		r         models.Record
		rawID     string
		rawWorker string
		rawSite   string
		signedOut sql.NullTime
	)
	err := row.Scan(&rawID, &rawWorker, &rawSite, &r.SignedInAt, &signedOut)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan attendance record: %w", err)
	}
	recordID, err := id.ParseRecordID(rawID)
	if err != nil {
		return nil, fmt.Errorf("stored record id invalid: %w", err)
	}
	workerID, err := id.ParseWorkerID(rawWorker)
	if err != nil {
		return nil, fmt.Errorf("stored worker id invalid: %w", err)
	}
	siteID, err := id.ParseSiteID(rawSite)
	if err != nil {
		return nil, fmt.Errorf("stored site id invalid: %w", err)
	}
	r.ID = recordID
	r.WorkerID = workerID
	r.SiteID = siteID
	if signedOut.Valid {
		t := signedOut.Time
		r.SignedOutAt = &t
	}
	return &r, nil
}

func scanRecords(rows *sql.Rows) ([]*models.Record, error) {
	var out []*models.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance records: %w", err)
	}
	return out, nil
}
