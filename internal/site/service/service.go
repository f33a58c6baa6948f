// Package service implements the site registry and the authorization
// directory: who may administer which site, and with what role.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	sitemetrics "github.com/aivaterepositories/sight-sign/internal/site/metrics"
	"github.com/aivaterepositories/sight-sign/internal/site/models"
	id "github.com/aivaterepositories/sight-sign/pkg/domain"
	dErrors "github.com/aivaterepositories/sight-sign/pkg/domain-errors"
	"github.com/aivaterepositories/sight-sign/pkg/platform/sentinel"
	"github.com/aivaterepositories/sight-sign/pkg/requestcontext"
)

// SiteStore is the persistence contract for sites.
type SiteStore interface {
	Create(ctx context.Context, site *models.Site) error
	FindByID(ctx context.Context, siteID id.SiteID) (*models.Site, error)
	FindByIDs(ctx context.Context, siteIDs []id.SiteID) ([]*models.Site, error)
	ListAll(ctx context.Context) ([]*models.Site, error)
	Execute(ctx context.Context, siteID id.SiteID, validate func(*models.Site) error, mutate func(*models.Site)) (*models.Site, error)
}

// GrantStore is the persistence contract for admin grants.
type GrantStore interface {
	Create(ctx context.Context, g *models.Grant) error
	Find(ctx context.Context, siteID id.SiteID, principal id.PrincipalID) (*models.Grant, error)
	ListForPrincipal(ctx context.Context, principal id.PrincipalID) ([]*models.Grant, error)
	ListForSite(ctx context.Context, siteID id.SiteID) ([]*models.Grant, error)
	DeleteGuarded(ctx context.Context, siteID id.SiteID, principal id.PrincipalID) error
}

// StoreTx runs a function atomically against the underlying store. The
// in-memory implementation passes the context through unchanged; the
// Postgres implementation wraps a SQL transaction.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

type passthroughTx struct{}

func (passthroughTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// Service implements site management and admin authorization.
type Service struct {
	sites   SiteStore
	grants  GrantStore
	tx      StoreTx
	logger  *slog.Logger
	metrics *sitemetrics.Metrics
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
func WithMetrics(m *sitemetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithTx sets the transaction runner. Defaults to a passthrough for the
// in-memory stores.
func WithTx(tx StoreTx) Option {
	return func(s *Service) {
		if tx != nil {
			s.tx = tx
		}
	}
}

// New constructs a site Service.
func New(sites SiteStore, grants GrantStore, opts ...Option) *Service {
	s := &Service{
		sites:  sites,
		grants: grants,
		tx:     passthroughTx{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates the cutoff, creates the site and grants the creator the
// admin role. Site and grant commit in one transaction, so a site never
// exists with zero admins.
func (s *Service) Create(ctx context.Context, name, address, cutoff string) (*models.Site, error) {
	principal := requestcontext.Principal(ctx)
	if principal.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	autoSignout, err := models.ParseTimeOfDay(cutoff)
	if err != nil {
		return nil, err
	}

	var site *models.Site
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)
		created, err := models.NewSite(id.SiteID(uuid.New()), name, address, autoSignout, now)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid site")
		}
		if err := s.sites.Create(txCtx, created); err != nil {
			return wrapSiteErr(err)
		}

		grant, err := models.NewGrant(created.ID, principal, models.RoleAdmin, now)
		if err != nil {
			return err
		}
		if err := s.grants.Create(txCtx, grant); err != nil {
			return wrapGrantErr(err)
		}
		site = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.SitesCreated.Inc()
		s.metrics.GrantsCreated.Inc()
	}
	return site, nil
}

// Get returns a site. Visible to any principal holding a grant on it.
func (s *Service) Get(ctx context.Context, siteID id.SiteID) (*models.Site, error) {
	principal := requestcontext.Principal(ctx)
	if _, err := s.grantFor(ctx, siteID, principal); err != nil {
		return nil, err
	}
	site, err := s.sites.FindByID(ctx, siteID)
	if err != nil {
		return nil, wrapSiteErr(err)
	}
	return site, nil
}

// ListFor returns every site the authenticated principal administers,
// newest first.
func (s *Service) ListFor(ctx context.Context) ([]*models.Site, error) {
	principal := requestcontext.Principal(ctx)
	if principal.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}

	grants, err := s.grants.ListForPrincipal(ctx, principal)
	if err != nil {
		return nil, wrapGrantErr(err)
	}
	siteIDs := make([]id.SiteID, 0, len(grants))
	for _, g := range grants {
		siteIDs = append(siteIDs, g.SiteID)
	}

	sites, err := s.sites.FindByIDs(ctx, siteIDs)
	if err != nil {
		return nil, wrapSiteErr(err)
	}
	return sites, nil
}

// Update edits a site's mutable fields. Requires the admin role: the
// supervisor role can operate terminals but not reconfigure the site.
func (s *Service) Update(ctx context.Context, siteID id.SiteID, update models.SiteUpdate) (*models.Site, error) {
	principal := requestcontext.Principal(ctx)
	if err := s.requireRole(ctx, siteID, principal, models.RoleAdmin); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	site, err := s.sites.Execute(ctx, siteID,
		func(site *models.Site) error {
			cp := *site
			return cp.Apply(update, now)
		},
		func(site *models.Site) {
			_ = site.Apply(update, now)
		},
	)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid site update")
		}
		return nil, wrapSiteErr(err)
	}
	return site, nil
}

// GrantsFor returns the authenticated principal's grants: exactly the set
// of sites they may administer.
func (s *Service) GrantsFor(ctx context.Context) ([]*models.Grant, error) {
	principal := requestcontext.Principal(ctx)
	if principal.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	grants, err := s.grants.ListForPrincipal(ctx, principal)
	if err != nil {
		return nil, wrapGrantErr(err)
	}
	return grants, nil
}

// IsAdmin reports whether principal holds any grant on the site. It is a
// pure store lookup: a revoked grant stops authorizing as soon as the
// revoke commits.
func (s *Service) IsAdmin(ctx context.Context, principal id.PrincipalID, siteID id.SiteID) (bool, error) {
	if s.metrics != nil {
		start := time.Now()
		defer func() { s.metrics.IsAdminDuration.Observe(time.Since(start).Seconds()) }()
	}
	if principal.IsNil() {
		return false, nil
	}
	_, err := s.grants.Find(ctx, siteID, principal)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, wrapGrantErr(err)
	}
	return true, nil
}

// Grant gives principal a role on the site. Idempotent when the identical
// grant already exists; a different role is an explicit conflict. The
// caller must hold the admin role on the site.
func (s *Service) Grant(ctx context.Context, siteID id.SiteID, principal id.PrincipalID, role models.Role) (*models.Grant, error) {
	caller := requestcontext.Principal(ctx)
	if err := s.requireRole(ctx, siteID, caller, models.RoleAdmin); err != nil {
		return nil, err
	}

	grant, err := models.NewGrant(siteID, principal, role, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	err = s.grants.Create(ctx, grant)
	if err == nil {
		if s.metrics != nil {
			s.metrics.GrantsCreated.Inc()
		}
		return grant, nil
	}
	if !errors.Is(err, sentinel.ErrConflict) {
		return nil, wrapGrantErr(err)
	}

	existing, findErr := s.grants.Find(ctx, siteID, principal)
	if findErr != nil {
		return nil, wrapGrantErr(findErr)
	}
	if existing.Role == role {
		// Identical grant already present: a no-op, not an error.
		return existing, nil
	}
	return nil, dErrors.Newf(dErrors.CodeConflict,
		"principal already holds role %q on this site", existing.Role)
}

// Revoke removes a principal's grant on the site. Refuses to remove the
// site's last admin, so the zero-admin invariant holds for the site's
// whole lifetime.
func (s *Service) Revoke(ctx context.Context, siteID id.SiteID, principal id.PrincipalID) error {
	caller := requestcontext.Principal(ctx)
	if err := s.requireRole(ctx, siteID, caller, models.RoleAdmin); err != nil {
		return err
	}

	err := s.grants.DeleteGuarded(ctx, siteID, principal)
	switch {
	case err == nil:
		if s.metrics != nil {
			s.metrics.GrantsRevoked.Inc()
		}
		return nil
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "grant not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.New(dErrors.CodeConflict, "cannot revoke the last admin of a site")
	default:
		return wrapGrantErr(err)
	}
}

// Members returns every grant on the site. Requires a grant on the site.
func (s *Service) Members(ctx context.Context, siteID id.SiteID) ([]*models.Grant, error) {
	principal := requestcontext.Principal(ctx)
	if _, err := s.grantFor(ctx, siteID, principal); err != nil {
		return nil, err
	}
	grants, err := s.grants.ListForSite(ctx, siteID)
	if err != nil {
		return nil, wrapGrantErr(err)
	}
	return grants, nil
}

// ListAllSites enumerates every site. Used by the scheduler, not exposed
// over HTTP.
func (s *Service) ListAllSites(ctx context.Context) ([]*models.Site, error) {
	sites, err := s.sites.ListAll(ctx)
	if err != nil {
		return nil, wrapSiteErr(err)
	}
	return sites, nil
}

func (s *Service) grantFor(ctx context.Context, siteID id.SiteID, principal id.PrincipalID) (*models.Grant, error) {
	if principal.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	g, err := s.grants.Find(ctx, siteID, principal)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeForbidden, "access denied")
		}
		return nil, wrapGrantErr(err)
	}
	return g, nil
}

func (s *Service) requireRole(ctx context.Context, siteID id.SiteID, principal id.PrincipalID, role models.Role) error {
	g, err := s.grantFor(ctx, siteID, principal)
	if err != nil {
		return err
	}
	if g.Role != role {
		return dErrors.New(dErrors.CodeForbidden, "access denied")
	}
	return nil
}

func wrapSiteErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "site not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "site already exists")
	default:
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "site store unavailable")
	}
}

func wrapGrantErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "grant not found")
	default:
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "grant store unavailable")
	}
}
