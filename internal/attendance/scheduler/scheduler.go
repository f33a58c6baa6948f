// Package scheduler runs the daily auto sign-out sweep.
//
// The sweep is modeled as idempotent work discovered from persisted state,
// not as a fire-once timer: each tick recomputes, per site, the most recent
// cutoff instant at or before now and compares it with the site's persisted
// "last swept cutoff" marker. A process that was down over a cutoff closes
// the backlog on its next tick, and re-running a sweep closes nothing
// because bulk closure is idempotent.
//
// All cutoffs are evaluated in one deployment-configured location
// (SIGHTSIGN_CUTOFF_TZ); the stored time-of-day carries no zone of its own.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	attmetrics "github.com/aivaterepositories/sight-sign/internal/attendance/metrics"
	sitemodels "github.com/aivaterepositories/sight-sign/internal/site/models"
	id "github.com/aivaterepositories/sight-sign/pkg/domain"
	"github.com/aivaterepositories/sight-sign/pkg/requestcontext"
)

const (
	defaultInterval = time.Minute
	// maxConcurrentSweeps bounds the per-site fan-out per tick.
	maxConcurrentSweeps = 4

	lockKey = "sightsign:sweep"
)

// SiteLister enumerates every site and its configured cutoff.
type SiteLister interface {
	ListAllSites(ctx context.Context) ([]*sitemodels.Site, error)
}

// Ledger bulk-closes open records at a site.
type Ledger interface {
	CloseAllOpenBefore(ctx context.Context, siteID id.SiteID, cutoff time.Time) (int, error)
}

// SweepStore persists the last swept cutoff per site.
type SweepStore interface {
	LastSwept(ctx context.Context, siteID id.SiteID) (time.Time, bool, error)
	MarkSwept(ctx context.Context, siteID id.SiteID, cutoff time.Time) error
}

// Locker is a best-effort deployment-wide lease. Nil disables locking;
// correctness never depends on it.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// Scheduler sweeps open attendance records past their site's cutoff.
type Scheduler struct {
	sites    SiteLister
	ledger   Ledger
	sweeps   SweepStore
	locker   Locker
	loc      *time.Location
	interval time.Duration
	logger   *slog.Logger
	metrics  *attmetrics.Metrics
	clock    func() time.Time
}

// Option configures the Scheduler.
type Option func(*Scheduler)

// WithInterval sets the tick interval.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithLocker sets the deployment-wide lease.
func WithLocker(l Locker) Option {
	return func(s *Scheduler) { s.locker = l }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *attmetrics.Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// WithClock overrides the time source for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Scheduler) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// New constructs a Scheduler evaluating cutoffs in loc.
func New(sites SiteLister, ledger Ledger, sweeps SweepStore, loc *time.Location, opts ...Option) *Scheduler {
	s := &Scheduler{
		sites:    sites,
		ledger:   ledger,
		sweeps:   sweeps,
		loc:      loc,
		interval: defaultInterval,
		logger:   slog.Default(),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run ticks until ctx is cancelled. An immediate first pass catches
// cutoffs missed while the process was down.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if s.locker != nil {
		ok, err := s.locker.TryLock(ctx, lockKey, 2*s.interval)
		if err != nil {
			s.logger.WarnContext(ctx, "sweep lock unavailable, skipping tick", "error", err)
			return
		}
		if !ok {
			return
		}
		defer func() {
			if err := s.locker.Unlock(ctx, lockKey); err != nil {
				s.logger.WarnContext(ctx, "sweep lock release failed", "error", err)
			}
		}()
	}
	s.Sweep(ctx)
}

// Sweep runs one pass over every site. Failures are per-site: a storage
// timeout on one site is logged and retried next tick without blocking the
// others.
func (s *Scheduler) Sweep(ctx context.Context) {
	start := s.clock()
	sites, err := s.sites.ListAllSites(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "sweep: listing sites failed", "error", err)
		if s.metrics != nil {
			s.metrics.SweepFailures.Inc()
		}
		return
	}

	now := s.clock()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentSweeps)
	for _, site := range sites {
		site := site
		g.Go(func() error {
			s.sweepSite(gctx, site, now)
			return nil
		})
	}
	_ = g.Wait()

	if s.metrics != nil {
		s.metrics.ObserveSweep(start)
	}
}

func (s *Scheduler) sweepSite(ctx context.Context, site *sitemodels.Site, now time.Time) {
	due := site.AutoSignout.LatestNotAfter(now, s.loc)

	last, swept, err := s.sweeps.LastSwept(ctx, site.ID)
	if err != nil {
		s.sweepFailed(ctx, site.ID, "reading sweep marker failed", err)
		return
	}
	if swept && !due.After(last) {
		return
	}

	count, err := s.ledger.CloseAllOpenBefore(requestcontext.WithTime(ctx, due), site.ID, due)
	if err != nil {
		s.sweepFailed(ctx, site.ID, "bulk close failed", err)
		return
	}
	if err := s.sweeps.MarkSwept(ctx, site.ID, due); err != nil {
		// The closure committed; the next tick re-runs the sweep, which
		// closes nothing because nothing remains open before the cutoff.
		s.sweepFailed(ctx, site.ID, "writing sweep marker failed", err)
		return
	}

	if s.metrics != nil {
		s.metrics.SweepRuns.Inc()
	}
	if count > 0 {
		s.logger.InfoContext(ctx, "auto sign-out sweep closed records",
			"site_id", site.ID, "cutoff", due, "closed", count)
	}
}

func (s *Scheduler) sweepFailed(ctx context.Context, siteID id.SiteID, msg string, err error) {
	if s.metrics != nil {
		s.metrics.SweepFailures.Inc()
	}
	s.logger.WarnContext(ctx, "sweep: "+msg, "site_id", siteID, "error", err)
}
