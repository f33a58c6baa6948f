// Package handler exposes site management and grant administration over
// HTTP.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aivaterepositories/sight-sign/internal/site/models"
	"github.com/aivaterepositories/sight-sign/internal/site/service"
	id "github.com/aivaterepositories/sight-sign/pkg/domain"
	dErrors "github.com/aivaterepositories/sight-sign/pkg/domain-errors"
	"github.com/aivaterepositories/sight-sign/pkg/platform/httputil"
	"github.com/aivaterepositories/sight-sign/pkg/platform/middleware/request"
)

// Handler serves the site endpoints.
type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

// New constructs a site Handler.
func New(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the site routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Post("/sites", h.create)
	r.Get("/sites", h.list)
	r.Get("/sites/{siteID}", h.get)
	r.Patch("/sites/{siteID}", h.update)
	r.Get("/sites/{siteID}/grants", h.members)
	r.Post("/sites/{siteID}/grants", h.grant)
	r.Delete("/sites/{siteID}/grants/{principalID}", h.revoke)
	r.Get("/grants", h.grantsFor)
}

type createSiteRequest struct {
	Name            string `json:"name"`
	Address         string `json:"address"`
	AutoSignoutTime string `json:"auto_signout_time"`
}

type updateSiteRequest struct {
	Name            *string `json:"name"`
	Address         *string `json:"address"`
	AutoSignoutTime *string `json:"auto_signout_time"`
}

type grantRequest struct {
	AdminID string `json:"admin_id"`
	Role    string `json:"role"`
}

type siteResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Address         string `json:"address,omitempty"`
	AutoSignoutTime string `json:"auto_signout_time"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

type grantResponse struct {
	SiteID    string `json:"site_id"`
	AdminID   string `json:"admin_id"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

const timeLayout = "2006-01-02T15:04:05Z07:00"

func toSiteResponse(s *models.Site) siteResponse {
	return siteResponse{
		ID:              s.ID.String(),
		Name:            s.Name,
		Address:         s.Address,
		AutoSignoutTime: s.AutoSignout.String(),
		CreatedAt:       s.CreatedAt.UTC().Format(timeLayout),
		UpdatedAt:       s.UpdatedAt.UTC().Format(timeLayout),
	}
}

func toGrantResponse(g *models.Grant) grantResponse {
	return grantResponse{
		SiteID:    g.SiteID.String(),
		AdminID:   g.Principal.String(),
		Role:      string(g.Role),
		CreatedAt: g.CreatedAt.UTC().Format(timeLayout),
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createSiteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON body"))
		return
	}

	site, err := h.svc.Create(r.Context(), req.Name, req.Address, req.AutoSignoutTime)
	if err != nil {
		h.logError(r, "create site failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toSiteResponse(site))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	sites, err := h.svc.ListFor(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]siteResponse, 0, len(sites))
	for _, s := range sites {
		out = append(out, toSiteResponse(s))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	siteID, err := id.ParseSiteID(chi.URLParam(r, "siteID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	site, err := h.svc.Get(r.Context(), siteID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSiteResponse(site))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	siteID, err := id.ParseSiteID(chi.URLParam(r, "siteID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req updateSiteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON body"))
		return
	}

	update := models.SiteUpdate{Name: req.Name, Address: req.Address}
	if req.AutoSignoutTime != nil {
		cutoff, err := models.ParseTimeOfDay(*req.AutoSignoutTime)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		update.AutoSignout = &cutoff
	}

	site, err := h.svc.Update(r.Context(), siteID, update)
	if err != nil {
		h.logError(r, "update site failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSiteResponse(site))
}

func (h *Handler) members(w http.ResponseWriter, r *http.Request) {
	siteID, err := id.ParseSiteID(chi.URLParam(r, "siteID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	grants, err := h.svc.Members(r.Context(), siteID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]grantResponse, 0, len(grants))
	for _, g := range grants {
		out = append(out, toGrantResponse(g))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) grant(w http.ResponseWriter, r *http.Request) {
	siteID, err := id.ParseSiteID(chi.URLParam(r, "siteID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req grantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON body"))
		return
	}
	principal, err := id.ParsePrincipalID(req.AdminID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	grant, err := h.svc.Grant(r.Context(), siteID, principal, role)
	if err != nil {
		h.logError(r, "grant failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toGrantResponse(grant))
}

func (h *Handler) revoke(w http.ResponseWriter, r *http.Request) {
	siteID, err := id.ParseSiteID(chi.URLParam(r, "siteID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	principal, err := id.ParsePrincipalID(chi.URLParam(r, "principalID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.svc.Revoke(r.Context(), siteID, principal); err != nil {
		h.logError(r, "revoke failed", err)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) grantsFor(w http.ResponseWriter, r *http.Request) {
	grants, err := h.svc.GrantsFor(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out := make([]grantResponse, 0, len(grants))
	for _, g := range grants {
		out = append(out, toGrantResponse(g))
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
