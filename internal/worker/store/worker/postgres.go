package worker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/aivaterepositories/sight-sign/internal/worker/models"
	id "github.com/aivaterepositories/sight-sign/pkg/domain"
	"github.com/aivaterepositories/sight-sign/pkg/platform/sentinel"
	"github.com/aivaterepositories/sight-sign/pkg/platform/tx"
)

// PostgresStore persists workers in PostgreSQL. Credential uniqueness is
// enforced by the workers_credential_key constraint, not by this code.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed worker store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) conn(ctx context.Context) execer {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.db
}

func (s *PostgresStore) Create(ctx context.Context, w *models.Worker) error {
	query := `
		INSERT INTO workers (id, name, company, phone, credential, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)
	`
	_, err := s.conn(ctx).ExecContext(ctx, query,
		w.ID.String(), w.Name, w.Company, w.Phone, string(w.Credential), w.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			if pqErr.Constraint == "workers_credential_key" {
				return sentinel.ErrAlreadyUsed
			}
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create worker: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, workerID id.WorkerID) (*models.Worker, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `
		SELECT id, name, company, COALESCE(phone, ''), credential, created_at
		FROM workers WHERE id = $1
	`, workerID.String())
	return scanWorker(row)
}

func (s *PostgresStore) FindByCredential(ctx context.Context, cred models.Credential) (*models.Worker, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `
		SELECT id, name, company, COALESCE(phone, ''), credential, created_at
		FROM workers WHERE credential = $1
	`, string(cred))
	return scanWorker(row)
}

func (s *PostgresStore) UpdateContact(ctx context.Context, workerID id.WorkerID, company, phone string) (*models.Worker, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `
		UPDATE workers SET company = $2, phone = NULLIF($3, '')
		WHERE id = $1
		RETURNING id, name, company, COALESCE(phone, ''), credential, created_at
	`, workerID.String(), company, phone)
	return scanWorker(row)
}

func (s *PostgresStore) ReplaceCredential(ctx context.Context, workerID id.WorkerID, cred models.Credential) (*models.Worker, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `
		UPDATE workers SET credential = $2
		WHERE id = $1
		RETURNING id, name, company, COALESCE(phone, ''), credential, created_at
	`, workerID.String(), string(cred))
	w, err := scanWorker(row)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return nil, sentinel.ErrAlreadyUsed
		}
		return nil, err
	}
	return w, nil
}

func scanWorker(row *sql.Row) (*models.Worker, error) {
	var (
		w       models.Worker
		rawID   string
		rawCred string
	)
	err := row.Scan(&rawID, &w.Name, &w.Company, &w.Phone, &rawCred, &w.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan worker: %w", err)
	}
	workerID, err := id.ParseWorkerID(rawID)
	if err != nil {
		return nil, fmt.Errorf("stored worker id invalid: %w", err)
	}
	w.ID = workerID
	w.Credential = models.Credential(rawCred)
	return &w, nil
}
