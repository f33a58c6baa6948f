// Package service implements the attendance ledger and the validation
// gateway that turns a presented credential into a sign-in.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	attmetrics "github.com/aivaterepositories/sight-sign/internal/attendance/metrics"
	"github.com/aivaterepositories/sight-sign/internal/attendance/models"
	workermodels "github.com/aivaterepositories/sight-sign/internal/worker/models"
	id "github.com/aivaterepositories/sight-sign/pkg/domain"
	dErrors "github.com/aivaterepositories/sight-sign/pkg/domain-errors"
	"github.com/aivaterepositories/sight-sign/pkg/platform/sentinel"
	"github.com/aivaterepositories/sight-sign/pkg/requestcontext"
)

// RecordStore is the persistence contract for attendance records.
type RecordStore interface {
	Open(ctx context.Context, r *models.Record) error
	FindByID(ctx context.Context, recordID id.RecordID) (*models.Record, error)
	Close(ctx context.Context, recordID id.RecordID, at time.Time) (*models.Record, error)
	FindOpen(ctx context.Context, workerID id.WorkerID, siteID id.SiteID) (*models.Record, error)
	OpenForSite(ctx context.Context, siteID id.SiteID) ([]*models.Record, error)
	HistoryFor(ctx context.Context, workerID id.WorkerID, limit int) ([]*models.Record, error)
	CloseAllOpenBefore(ctx context.Context, siteID id.SiteID, cutoff time.Time) (int, error)
}

// CredentialResolver maps a presented credential to its worker.
type CredentialResolver interface {
	ResolveCredential(ctx context.Context, cred workermodels.Credential) (*workermodels.Worker, error)
}

// Authorizer answers whether a principal may administer a site.
type Authorizer interface {
	IsAdmin(ctx context.Context, principal id.PrincipalID, siteID id.SiteID) (bool, error)
}

// Service implements attendance operations.
type Service struct {
	records RecordStore
	workers CredentialResolver
	authz   Authorizer
	logger  *slog.Logger
	metrics *attmetrics.Metrics
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
func WithMetrics(m *attmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs an attendance Service.
func New(records RecordStore, workers CredentialResolver, authz Authorizer, opts ...Option) *Service {
	s := &Service{
		records: records,
		workers: workers,
		authz:   authz,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ValidationStatus is the terminal state of a presentation event.
type ValidationStatus string

const (
	// StatusAccepted means a new attendance record was opened.
	StatusAccepted ValidationStatus = "accepted"
	// StatusDuplicate means the worker is already on site; the scan is a
	// duplicate, no record was created, and this is not an error.
	StatusDuplicate ValidationStatus = "duplicate"
)

// ValidationResult is the outcome of a successful presentation: either a
// fresh sign-in or a recognized duplicate scan.
type ValidationResult struct {
	Status ValidationStatus
	Worker *workermodels.Worker
	Record *models.Record
}

// Validate runs the presentation state machine: resolve the credential,
// authorize the operating terminal, open the record. Rejections come back
// as coded errors; a duplicate scan is a result, not an error. Exactly one
// record is created on acceptance and none on any other path.
func (s *Service) Validate(ctx context.Context, cred workermodels.Credential, siteID id.SiteID) (*ValidationResult, error) {
	operator := requestcontext.Principal(ctx)
	if operator.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	worker, err := s.workers.ResolveCredential(ctx, cred)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) || dErrors.HasCode(err, dErrors.CodeInvalidInput) {
			s.countValidation(attmetrics.OutcomeUnknownCredential)
			return nil, dErrors.New(dErrors.CodeNotFound, "unknown credential")
		}
		s.countValidation(attmetrics.OutcomeError)
		return nil, err
	}

	ok, err := s.authz.IsAdmin(ctx, operator, siteID)
	if err != nil {
		s.countValidation(attmetrics.OutcomeError)
		return nil, err
	}
	if !ok {
		s.countValidation(attmetrics.OutcomeNotAuthorized)
		return nil, dErrors.New(dErrors.CodeForbidden, "access denied")
	}

	record, err := s.open(ctx, worker.ID, siteID)
	switch {
	case err == nil:
		s.countValidation(attmetrics.OutcomeAccepted)
		return &ValidationResult{Status: StatusAccepted, Worker: worker, Record: record}, nil
	case dErrors.HasCode(err, dErrors.CodeConflict):
		// Duplicate scan: the worker is already signed in here.
		existing, findErr := s.records.FindOpen(ctx, worker.ID, siteID)
		if findErr != nil && !errors.Is(findErr, sentinel.ErrNotFound) {
			s.countValidation(attmetrics.OutcomeError)
			return nil, wrapRecordErr(findErr)
		}
		s.countValidation(attmetrics.OutcomeDuplicate)
		return &ValidationResult{Status: StatusDuplicate, Worker: worker, Record: existing}, nil
	default:
		s.countValidation(attmetrics.OutcomeError)
		return nil, err
	}
}

// open inserts a new open record for (worker, site) at the request time.
// The store insert is the compare-and-set: under concurrent duplicate
// scans exactly one caller wins.
func (s *Service) open(ctx context.Context, workerID id.WorkerID, siteID id.SiteID) (*models.Record, error) {
	record, err := models.NewRecord(id.RecordID(uuid.New()), workerID, siteID, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.records.Open(ctx, record); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "worker is already on site")
		}
		return nil, wrapRecordErr(err)
	}
	if s.metrics != nil {
		s.metrics.RecordsOpened.Inc()
	}
	return record, nil
}

// Close signs a record out at the request time. The worker may close their
// own record; site admins may close any record at their site.
func (s *Service) Close(ctx context.Context, recordID id.RecordID) (*models.Record, error) {
	caller := requestcontext.Principal(ctx)
	if caller.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	record, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		return nil, wrapRecordErr(err)
	}
	if id.PrincipalID(record.WorkerID) != caller {
		ok, err := s.authz.IsAdmin(ctx, caller, record.SiteID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, dErrors.New(dErrors.CodeForbidden, "access denied")
		}
	}

	closed, err := s.records.Close(ctx, recordID, requestcontext.Now(ctx))
	switch {
	case err == nil:
		if s.metrics != nil {
			s.metrics.RecordsClosed.Inc()
		}
		return closed, nil
	case errors.Is(err, sentinel.ErrInvalidState):
		return nil, dErrors.New(dErrors.CodeConflict, "record is not open")
	case dErrors.HasCode(err, dErrors.CodeInvalidInput):
		return nil, err
	default:
		return nil, wrapRecordErr(err)
	}
}

// Roster returns the open records at a site: who is on site right now.
// Visible to any principal holding a grant on the site.
func (s *Service) Roster(ctx context.Context, siteID id.SiteID) ([]*models.Record, error) {
	caller := requestcontext.Principal(ctx)
	if caller.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	ok, err := s.authz.IsAdmin(ctx, caller, siteID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, dErrors.New(dErrors.CodeForbidden, "access denied")
	}

	records, err := s.records.OpenForSite(ctx, siteID)
	if err != nil {
		return nil, wrapRecordErr(err)
	}
	return records, nil
}

// History returns the authenticated worker's own recent records.
func (s *Service) History(ctx context.Context, limit int) ([]*models.Record, error) {
	caller := requestcontext.Principal(ctx)
	if caller.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	records, err := s.records.HistoryFor(ctx, id.WorkerID(caller), limit)
	if err != nil {
		return nil, wrapRecordErr(err)
	}
	return records, nil
}

// CloseAllOpenBefore bulk-closes open records at the site signed in before
// cutoff. Idempotent; used only by the scheduler, never routed.
func (s *Service) CloseAllOpenBefore(ctx context.Context, siteID id.SiteID, cutoff time.Time) (int, error) {
	count, err := s.records.CloseAllOpenBefore(ctx, siteID, cutoff)
	if err != nil {
		return 0, wrapRecordErr(err)
	}
	if s.metrics != nil && count > 0 {
		s.metrics.RecordsSwept.Add(float64(count))
	}
	return count, nil
}

func (s *Service) countValidation(outcome string) {
	if s.metrics != nil {
		s.metrics.Validations.WithLabelValues(outcome).Inc()
	}
}

func wrapRecordErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "attendance record not found")
	default:
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "attendance store unavailable")
	}
}
