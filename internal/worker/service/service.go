// Package service orchestrates the worker lifecycle: registration with
// credential issuance, credential resolution, and contact updates.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	workermetrics "github.com/aivaterepositories/sight-sign/internal/worker/metrics"
	"github.com/aivaterepositories/sight-sign/internal/worker/models"
	id "github.com/aivaterepositories/sight-sign/pkg/domain"
	dErrors "github.com/aivaterepositories/sight-sign/pkg/domain-errors"
	"github.com/aivaterepositories/sight-sign/pkg/platform/sentinel"
	"github.com/aivaterepositories/sight-sign/pkg/requestcontext"
)

// maxIssueAttempts bounds credential issuance retries after a storage
// collision. Collisions on a 256-bit value mean a broken random source, so
// anything past a couple of retries is not worth waiting for.
const maxIssueAttempts = 3

// WorkerStore is the persistence contract for workers. Stores return
// sentinel errors; this service translates them into coded domain errors.
type WorkerStore interface {
	Create(ctx context.Context, w *models.Worker) error
	FindByID(ctx context.Context, workerID id.WorkerID) (*models.Worker, error)
	FindByCredential(ctx context.Context, cred models.Credential) (*models.Worker, error)
	UpdateContact(ctx context.Context, workerID id.WorkerID, company, phone string) (*models.Worker, error)
	ReplaceCredential(ctx context.Context, workerID id.WorkerID, cred models.Credential) (*models.Worker, error)
}

// Issuer derives a fresh credential for a worker.
type Issuer interface {
	Issue(workerID id.WorkerID) (models.Credential, error)
}

// Service implements worker registration and credential resolution.
type Service struct {
	workers WorkerStore
	issuer  Issuer
	logger  *slog.Logger
	metrics *workermetrics.Metrics
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *workermetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs a worker Service.
func New(workers WorkerStore, issuer Issuer, opts ...Option) *Service {
	s := &Service{
		workers: workers,
		issuer:  issuer,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates the worker record for the authenticated principal and
// issues its credential. The worker ID equals the principal ID, so a second
// registration for the same account fails with a conflict. On a credential
// collision the issuance is retried with a fresh random draw.
func (s *Service) Register(ctx context.Context, name, company, phone string) (*models.Worker, error) {
	principal := requestcontext.Principal(ctx)
	if principal.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	start := time.Now()

	w, err := models.NewWorker(id.WorkerID(principal), name, company, phone, requestcontext.Now(ctx))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid registration")
	}

	for attempt := 1; attempt <= maxIssueAttempts; attempt++ {
		cred, err := s.issuer.Issue(w.ID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue credential")
		}
		w.Credential = cred

		err = s.workers.Create(ctx, w)
		switch {
		case err == nil:
			if s.metrics != nil {
				s.metrics.WorkersRegistered.Inc()
				s.metrics.RegisterDuration.Observe(time.Since(start).Seconds())
			}
			return w, nil
		case errors.Is(err, sentinel.ErrAlreadyUsed):
			// Another worker holds this credential value. Draw again.
			if s.metrics != nil {
				s.metrics.CredentialRetries.Inc()
			}
			s.logger.WarnContext(ctx, "credential collision, retrying issuance",
				"worker_id", w.ID, "attempt", attempt)
		case errors.Is(err, sentinel.ErrConflict):
			return nil, dErrors.New(dErrors.CodeConflict, "worker already registered for this account")
		default:
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "worker store unavailable")
		}
	}
	return nil, dErrors.New(dErrors.CodeConflict, "could not issue a unique credential")
}

// Get returns the authenticated principal's own worker record.
func (s *Service) Get(ctx context.Context) (*models.Worker, error) {
	principal := requestcontext.Principal(ctx)
	if principal.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	w, err := s.workers.FindByID(ctx, id.WorkerID(principal))
	if err != nil {
		return nil, wrapWorkerErr(err)
	}
	return w, nil
}

// UpdateContact replaces the worker's mutable contact fields. Name and
// credential are immutable through this path.
func (s *Service) UpdateContact(ctx context.Context, company, phone string) (*models.Worker, error) {
	principal := requestcontext.Principal(ctx)
	if principal.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if company == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "company cannot be empty")
	}
	w, err := s.workers.UpdateContact(ctx, id.WorkerID(principal), company, phone)
	if err != nil {
		return nil, wrapWorkerErr(err)
	}
	return w, nil
}

// ResolveCredential maps a presented credential back to its worker.
func (s *Service) ResolveCredential(ctx context.Context, cred models.Credential) (*models.Worker, error) {
	if err := cred.Validate(); err != nil {
		return nil, err
	}
	w, err := s.workers.FindByCredential(ctx, cred)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "unknown credential")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "worker store unavailable")
	}
	return w, nil
}

// Reissue atomically replaces the authenticated worker's credential. The
// previous value stops resolving the moment the swap commits.
func (s *Service) Reissue(ctx context.Context) (*models.Worker, error) {
	principal := requestcontext.Principal(ctx)
	if principal.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	workerID := id.WorkerID(principal)

	for attempt := 1; attempt <= maxIssueAttempts; attempt++ {
		cred, err := s.issuer.Issue(workerID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue credential")
		}

		w, err := s.workers.ReplaceCredential(ctx, workerID, cred)
		switch {
		case err == nil:
			if s.metrics != nil {
				s.metrics.CredentialsReissued.Inc()
			}
			return w, nil
		case errors.Is(err, sentinel.ErrAlreadyUsed):
			if s.metrics != nil {
				s.metrics.CredentialRetries.Inc()
			}
			s.logger.WarnContext(ctx, "credential collision, retrying reissue",
				"worker_id", workerID, "attempt", attempt)
		default:
			return nil, wrapWorkerErr(err)
		}
	}
	return nil, dErrors.New(dErrors.CodeConflict, "could not issue a unique credential")
}

func wrapWorkerErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "worker not found")
	default:
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "worker store unavailable")
	}
}
