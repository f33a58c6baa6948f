// Command server runs the SightSign check-in service: HTTP API plus the
// auto sign-out scheduler. Business logic lives in the internal services;
// main only wires dependencies and owns the process lifecycle.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	attendancehandler "github.com/aivaterepositories/sight-sign/internal/attendance/handler"
	attmetrics "github.com/aivaterepositories/sight-sign/internal/attendance/metrics"
	"github.com/aivaterepositories/sight-sign/internal/attendance/scheduler"
	attendanceservice "github.com/aivaterepositories/sight-sign/internal/attendance/service"
	recordstore "github.com/aivaterepositories/sight-sign/internal/attendance/store/record"
	sweepstore "github.com/aivaterepositories/sight-sign/internal/attendance/store/sweep"
	"github.com/aivaterepositories/sight-sign/internal/platform/config"
	"github.com/aivaterepositories/sight-sign/internal/platform/httpserver"
	"github.com/aivaterepositories/sight-sign/internal/platform/logger"
	"github.com/aivaterepositories/sight-sign/internal/platform/postgres"
	platformredis "github.com/aivaterepositories/sight-sign/internal/platform/redis"
	sitehandler "github.com/aivaterepositories/sight-sign/internal/site/handler"
	sitemetrics "github.com/aivaterepositories/sight-sign/internal/site/metrics"
	siteservice "github.com/aivaterepositories/sight-sign/internal/site/service"
	grantstore "github.com/aivaterepositories/sight-sign/internal/site/store/grant"
	sitestore "github.com/aivaterepositories/sight-sign/internal/site/store/site"
	httptransport "github.com/aivaterepositories/sight-sign/internal/transport/http"
	"github.com/aivaterepositories/sight-sign/internal/worker/credential"
	workerhandler "github.com/aivaterepositories/sight-sign/internal/worker/handler"
	workermetrics "github.com/aivaterepositories/sight-sign/internal/worker/metrics"
	workerservice "github.com/aivaterepositories/sight-sign/internal/worker/service"
	workerstore "github.com/aivaterepositories/sight-sign/internal/worker/store/worker"
	authmw "github.com/aivaterepositories/sight-sign/pkg/platform/middleware/auth"
	"github.com/aivaterepositories/sight-sign/pkg/platform/tx"
)

func main() {
	log := logger.New()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Store wiring: Postgres when configured, in-memory otherwise (local
	// development and tests).
	var (
		workers workerservice.WorkerStore   = workerstore.New()
		sites   siteservice.SiteStore       = sitestore.New()
		grants  siteservice.GrantStore      = grantstore.New()
		records attendanceservice.RecordStore = recordstore.New()
		sweeps  scheduler.SweepStore        = sweepstore.New()
		siteTx  siteservice.StoreTx
	)
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("postgres connection failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		workers = workerstore.NewPostgres(db)
		sites = sitestore.NewPostgres(db)
		grants = grantstore.NewPostgres(db)
		records = recordstore.NewPostgres(db)
		sweeps = sweepstore.NewPostgres(db)
		siteTx = postgres.NewTxRunner(db, tx.WithTx)
	}

	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	workerSvc := workerservice.New(workers, credential.NewIssuer(),
		workerservice.WithLogger(log),
		workerservice.WithMetrics(workermetrics.New()),
	)
	siteOpts := []siteservice.Option{
		siteservice.WithLogger(log),
		siteservice.WithMetrics(sitemetrics.New()),
	}
	if siteTx != nil {
		siteOpts = append(siteOpts, siteservice.WithTx(siteTx))
	}
	siteSvc := siteservice.New(sites, grants, siteOpts...)

	attMetrics := attmetrics.New()
	attendanceSvc := attendanceservice.New(records, workerSvc, siteSvc,
		attendanceservice.WithLogger(log),
		attendanceservice.WithMetrics(attMetrics),
	)

	schedOpts := []scheduler.Option{
		scheduler.WithInterval(cfg.SweepInterval),
		scheduler.WithLogger(log),
		scheduler.WithMetrics(attMetrics),
	}
	if redisClient != nil {
		schedOpts = append(schedOpts, scheduler.WithLocker(redisClient))
	}
	sched := scheduler.New(siteSvc, attendanceSvc, sweeps, cfg.CutoffLocation(), schedOpts...)

	router := httptransport.NewRouter(httptransport.Handlers{
		Worker:     workerhandler.New(workerSvc, log),
		Site:       sitehandler.New(siteSvc, log),
		Attendance: attendancehandler.New(attendanceSvc, log),
	}, authmw.NewVerifier(cfg.JWTSigningKey), log)

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("scheduler stopped", "error", err)
		}
	}()

	go func() {
		log.Info("starting sightsign", "addr", cfg.Addr, "cutoff_tz", cfg.CutoffTZ)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
