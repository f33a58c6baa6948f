// Package handler exposes the validation gateway and attendance queries
// over HTTP.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/aivaterepositories/sight-sign/internal/attendance/models"
	"github.com/aivaterepositories/sight-sign/internal/attendance/service"
	workermodels "github.com/aivaterepositories/sight-sign/internal/worker/models"
	id "github.com/aivaterepositories/sight-sign/pkg/domain"
	dErrors "github.com/aivaterepositories/sight-sign/pkg/domain-errors"
	"github.com/aivaterepositories/sight-sign/pkg/platform/httputil"
	"github.com/aivaterepositories/sight-sign/pkg/platform/middleware/request"
)

// Handler serves the attendance endpoints.
type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

// New constructs an attendance Handler.
func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the attendance routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Post("/validations", h.validate)
	r.Post("/attendance/{recordID}/close", h.close)
	r.Get("/sites/{siteID}/roster", h.roster)
	r.Get("/attendance/history", h.history)
}

type validateRequest struct {
	Credential string `json:"credential"`
	SiteID     string `json:"site_id"`
}

type validateResponse struct {
	Status     string          `json:"status"`
	WorkerID   string          `json:"worker_id"`
	WorkerName string          `json:"worker_name"`
	Company    string          `json:"company"`
	Record     *recordResponse `json:"record,omitempty"`
}

type recordResponse struct {
	ID          string `json:"id"`
	WorkerID    string `json:"worker_id"`
	SiteID      string `json:"site_id"`
	SignedInAt  string `json:"signed_in_at"`
	SignedOutAt string `json:"signed_out_at,omitempty"`
}

const timeLayout = "2006-01-02T15:04:05Z07:00"

func toRecordResponse(r *models.Record) *recordResponse {
	if r == nil {
		return nil
	}
	out := &recordResponse{
		ID:         r.ID.String(),
		WorkerID:   r.WorkerID.String(),
		SiteID:     r.SiteID.String(),
		SignedInAt: r.SignedInAt.UTC().Format(timeLayout),
	}
	if r.SignedOutAt != nil {
		out.SignedOutAt = r.SignedOutAt.UTC().Format(timeLayout)
	}
	return out
}

func (h *Handler) validate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON body"))
		return
	}
	siteID, err := id.ParseSiteID(req.SiteID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.svc.Validate(r.Context(), workermodels.Credential(req.Credential), siteID)
	if err != nil {
		h.logError(r, "validation rejected", err)
		httputil.WriteError(w, err)
		return
	}

	status := http.StatusCreated
	if result.Status == service.StatusDuplicate {
		status = http.StatusOK
	}
	httputil.WriteJSON(w, status, validateResponse{
		Status:     string(result.Status),
		WorkerID:   result.Worker.ID.String(),
		WorkerName: result.Worker.Name,
		Company:    result.Worker.Company,
		Record:     toRecordResponse(result.Record),
	})
}

func (h *Handler) close(w http.ResponseWriter, r *http.Request) {
	recordID, err := id.ParseRecordID(chi.URLParam(r, "recordID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	record, err := h.svc.Close(r.Context(), recordID)
	if err != nil {
		h.logError(r, "close record failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRecordResponse(record))
}

func (h *Handler) roster(w http.ResponseWriter, r *http.Request) {
	siteID, err := id.ParseSiteID(chi.URLParam(r, "siteID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	records, err := h.svc.Roster(r.Context(), siteID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]*recordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toRecordResponse(rec))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	records, err := h.svc.History(r.Context(), limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]*recordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toRecordResponse(rec))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) logError(r *http.Request, msg string, err error) {
	ctx := r.Context()
	h.logger.WarnContext(ctx, msg,
		"error", err,
		"request_id", request.GetRequestID(ctx),
	)
}
