// Package httptransport assembles the HTTP surface: middleware chain,
// feature routes, health and metrics endpoints.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	attendancehandler "github.com/aivaterepositories/sight-sign/internal/attendance/handler"
	sitehandler "github.com/aivaterepositories/sight-sign/internal/site/handler"
	workerhandler "github.com/aivaterepositories/sight-sign/internal/worker/handler"
	authmw "github.com/aivaterepositories/sight-sign/pkg/platform/middleware/auth"
	"github.com/aivaterepositories/sight-sign/pkg/platform/middleware/request"
	"github.com/aivaterepositories/sight-sign/pkg/platform/middleware/requesttime"
)

// Handlers groups the feature handlers mounted behind authentication.
type Handlers struct {
	Worker     *workerhandler.Handler
	Site       *sitehandler.Handler
	Attendance *attendancehandler.Handler
}

// NewRouter wires middleware and all endpoints.
func NewRouter(h Handlers, verifier *authmw.Verifier, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(request.Middleware)
	r.Use(requesttime.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(verifier, logger))
		h.Worker.Register(r)
		h.Site.Register(r)
		h.Attendance.Register(r)
	})

	return r
}
