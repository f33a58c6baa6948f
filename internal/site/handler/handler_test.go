package handler

import (
	"bytes"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aivaterepositories/sight-sign/internal/site/service"
	grantstore "github.com/aivaterepositories/sight-sign/internal/site/store/grant"
	sitestore "github.com/aivaterepositories/sight-sign/internal/site/store/site"
	"github.com/aivaterepositories/sight-sign/pkg/testutil"
)

func newSiteRouter(t *testing.T) http.Handler {
	t.Helper()
	svc := service.New(sitestore.New(), grantstore.New())
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	h := New(svc, logger)
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func createSite(t *testing.T, router http.Handler, principal string) string {
	t.Helper()
	req := testutil.NewJSONRequest(t, http.MethodPost, "/sites", map[string]string{
		"name":              "North Yard",
		"address":           "1 Dock Rd",
		"auto_signout_time": "18:00:00",
	})
	rr := testutil.DoRequest(router, testutil.WithPrincipal(req, principal))
	require.Equal(t, http.StatusCreated, rr.Code)
	return (*testutil.UnmarshalResponse[map[string]string](t, rr))["id"]
}

func TestCreateSite(t *testing.T) {
	router := newSiteRouter(t)
	principal := uuid.New().String()

	t.Run("creates a site and lists it for the creator", func(t *testing.T) {
		siteID := createSite(t, router, principal)
		require.NotEmpty(t, siteID)

		req := testutil.NewRequest(t, http.MethodGet, "/sites")
		rr := testutil.DoRequest(router, testutil.WithPrincipal(req, principal))
		require.Equal(t, http.StatusOK, rr.Code)

		sites := testutil.UnmarshalResponse[[]map[string]string](t, rr)
		require.Len(t, *sites, 1)
		assert.Equal(t, siteID, (*sites)[0]["id"])
		assert.Equal(t, "18:00:00", (*sites)[0]["auto_signout_time"])
	})

	t.Run("malformed cutoff is rejected", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/sites", map[string]string{
			"name":              "South Yard",
			"auto_signout_time": "6pm",
		})
		rr := testutil.DoRequest(router, testutil.WithPrincipal(req, principal))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unauthenticated request is rejected", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/sites", map[string]string{
			"name":              "South Yard",
			"auto_signout_time": "18:00:00",
		})
		rr := testutil.DoRequest(router, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestGetAndUpdateSite(t *testing.T) {
	router := newSiteRouter(t)
	admin := uuid.New().String()
	siteID := createSite(t, router, admin)

	t.Run("admin reads the site", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/sites/"+siteID)
		rr := testutil.DoRequest(router, testutil.WithPrincipal(req, admin))
		require.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("stranger gets forbidden, not not-found", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/sites/"+siteID)
		rr := testutil.DoRequest(router, testutil.WithPrincipal(req, uuid.New().String()))
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("admin updates the cutoff", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPatch, "/sites/"+siteID, map[string]string{
			"auto_signout_time": "20:30:00",
		})
		rr := testutil.DoRequest(router, testutil.WithPrincipal(req, admin))
		require.Equal(t, http.StatusOK, rr.Code)

		body := testutil.UnmarshalResponse[map[string]string](t, rr)
		assert.Equal(t, "20:30:00", (*body)["auto_signout_time"])
	})

	t.Run("malformed site id is rejected", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/sites/not-a-uuid")
		rr := testutil.DoRequest(router, testutil.WithPrincipal(req, admin))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestGrantLifecycle(t *testing.T) {
	router := newSiteRouter(t)
	admin := uuid.New().String()
	siteID := createSite(t, router, admin)
	supervisor := uuid.New().String()

	t.Run("admin grants the supervisor role", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/sites/"+siteID+"/grants", map[string]string{
			"admin_id": supervisor,
			"role":     "supervisor",
		})
		rr := testutil.DoRequest(router, testutil.WithPrincipal(req, admin))
		require.Equal(t, http.StatusCreated, rr.Code)

		body := testutil.UnmarshalResponse[map[string]string](t, rr)
		assert.Equal(t, "supervisor", (*body)["role"])
	})

	t.Run("the grant shows up in the member list", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/sites/"+siteID+"/grants")
		rr := testutil.DoRequest(router, testutil.WithPrincipal(req, admin))
		require.Equal(t, http.StatusOK, rr.Code)

		members := testutil.UnmarshalResponse[[]map[string]string](t, rr)
		assert.Len(t, *members, 2)
	})

	t.Run("grantee sees the site under their grants", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/grants")
		rr := testutil.DoRequest(router, testutil.WithPrincipal(req, supervisor))
		require.Equal(t, http.StatusOK, rr.Code)

		grants := testutil.UnmarshalResponse[[]map[string]string](t, rr)
		require.Len(t, *grants, 1)
		assert.Equal(t, siteID, (*grants)[0]["site_id"])
	})

	t.Run("unknown role is rejected", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/sites/"+siteID+"/grants", map[string]string{
			"admin_id": uuid.New().String(),
			"role":     "owner",
		})
		rr := testutil.DoRequest(router, testutil.WithPrincipal(req, admin))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("conflicting role is a conflict", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/sites/"+siteID+"/grants", map[string]string{
			"admin_id": supervisor,
			"role":     "admin",
		})
		rr := testutil.DoRequest(router, testutil.WithPrincipal(req, admin))
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("revoke removes the grant", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodDelete, "/sites/"+siteID+"/grants/"+supervisor)
		rr := testutil.DoRequest(router, testutil.WithPrincipal(req, admin))
		require.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("revoking the last admin is a conflict", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodDelete, "/sites/"+siteID+"/grants/"+admin)
		rr := testutil.DoRequest(router, testutil.WithPrincipal(req, admin))
		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}
