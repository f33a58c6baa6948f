// Package handler exposes worker registration and credential operations
// over HTTP. Handlers decode, call the service, and write; all policy lives
// in the service layer.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aivaterepositories/sight-sign/internal/worker/models"
	"github.com/aivaterepositories/sight-sign/internal/worker/service"
	dErrors "github.com/aivaterepositories/sight-sign/pkg/domain-errors"
	"github.com/aivaterepositories/sight-sign/pkg/platform/httputil"
	"github.com/aivaterepositories/sight-sign/pkg/platform/middleware/request"
)

// Handler serves the worker endpoints.
type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

// New constructs a worker Handler.
func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the worker routes on r. The router is expected to already
// carry the auth middleware.
func (h *Handler) Register(r chi.Router) {
	r.Post("/workers", h.register)
	r.Get("/workers/me", h.me)
	r.Patch("/workers/me", h.updateContact)
	r.Post("/workers/me/credential", h.reissue)
}

type registerRequest struct {
	Name    string `json:"name"`
	Company string `json:"company"`
	Phone   string `json:"phone"`
}

type updateContactRequest struct {
	Company string `json:"company"`
	Phone   string `json:"phone"`
}

type workerResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Company    string `json:"company"`
	Phone      string `json:"phone,omitempty"`
	Credential string `json:"credential"`
	CreatedAt  string `json:"created_at"`
}

func toWorkerResponse(w *models.Worker) workerResponse {
	return workerResponse{
		ID:         w.ID.String(),
		Name:       w.Name,
		Company:    w.Company,
		Phone:      w.Phone,
		Credential: string(w.Credential),
		CreatedAt:  w.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON body"))
		return
	}

	worker, err := h.svc.Register(r.Context(), req.Name, req.Company, req.Phone)
	if err != nil {
		h.logError(r, "register worker failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toWorkerResponse(worker))
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	worker, err := h.svc.Get(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toWorkerResponse(worker))
}

func (h *Handler) updateContact(w http.ResponseWriter, r *http.Request) {
	var req updateContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON body"))
		return
	}

	worker, err := h.svc.UpdateContact(r.Context(), req.Company, req.Phone)
	if err != nil {
		h.logError(r, "update contact failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toWorkerResponse(worker))
}

func (h *Handler) reissue(w http.ResponseWriter, r *http.Request) {
	worker, err := h.svc.Reissue(r.Context())
	if err != nil {
		h.logError(r, "credential reissue failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toWorkerResponse(worker))
}

func (h *Handler) logError(r *http.Request, msg string, err error) {
	ctx := r.Context()
	h.logger.WarnContext(ctx, msg,
		"error", err,
		"request_id", request.GetRequestID(ctx),
	)
}
