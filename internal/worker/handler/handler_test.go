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

	"github.com/aivaterepositories/sight-sign/internal/worker/credential"
	"github.com/aivaterepositories/sight-sign/internal/worker/models"
	"github.com/aivaterepositories/sight-sign/internal/worker/service"
	workerstore "github.com/aivaterepositories/sight-sign/internal/worker/store/worker"
	"github.com/aivaterepositories/sight-sign/pkg/testutil"
)

func newWorkerRouter(t *testing.T) http.Handler {
	t.Helper()
	svc := service.New(workerstore.New(), credential.NewIssuer())
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	h := New(svc, logger)
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func TestRegisterWorker(t *testing.T) {
	router := newWorkerRouter(t)
	principal := uuid.New().String()

	t.Run("registers and returns the credential", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/workers", map[string]string{
			"name":    "Ada Osei",
			"company": "BuildCo",
			"phone":   "555-0101",
		})
		rr := testutil.DoRequest(router, testutil.WithPrincipal(req, principal))
		require.Equal(t, http.StatusCreated, rr.Code)

		body := testutil.UnmarshalResponse[map[string]string](t, rr)
		assert.Equal(t, principal, (*body)["id"])
		assert.Equal(t, "Ada Osei", (*body)["name"])
		assert.Len(t, (*body)["credential"], models.CredentialLength)
	})

	t.Run("second registration conflicts", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/workers", map[string]string{
			"name":    "Ada Osei",
			"company": "BuildCo",
		})
		rr := testutil.DoRequest(router, testutil.WithPrincipal(req, principal))
		require.Equal(t, http.StatusConflict, rr.Code)
		errResp := testutil.UnmarshalErrorResponse(t, rr)
		assert.Equal(t, "conflict", errResp["error"])
	})

	t.Run("unauthenticated request is rejected", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/workers", map[string]string{
			"name":    "Bo Lund",
			"company": "SteelCo",
		})
		rr := testutil.DoRequest(router, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("invalid body is a bad request", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/workers", nil)
		rr := testutil.DoRequest(router, testutil.WithPrincipal(req, uuid.New().String()))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("missing name is invalid input", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/workers", map[string]string{
			"company": "SteelCo",
		})
		rr := testutil.DoRequest(router, testutil.WithPrincipal(req, uuid.New().String()))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestWorkerMe(t *testing.T) {
	router := newWorkerRouter(t)
	principal := uuid.New().String()

	register := testutil.NewJSONRequest(t, http.MethodPost, "/workers", map[string]string{
		"name":    "Ada Osei",
		"company": "BuildCo",
	})
	require.Equal(t, http.StatusCreated, testutil.DoRequest(router, testutil.WithPrincipal(register, principal)).Code)

	t.Run("returns own record", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/workers/me")
		rr := testutil.DoRequest(router, testutil.WithPrincipal(req, principal))
		require.Equal(t, http.StatusOK, rr.Code)

		body := testutil.UnmarshalResponse[map[string]string](t, rr)
		assert.Equal(t, principal, (*body)["id"])
	})

	t.Run("unregistered principal is not found", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/workers/me")
		rr := testutil.DoRequest(router, testutil.WithPrincipal(req, uuid.New().String()))
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("updates contact fields", func(t *testing.T) {
		req := testutil.NewJSONRequest(t, http.MethodPatch, "/workers/me", map[string]string{
			"company": "SteelCo",
			"phone":   "555-0199",
		})
		rr := testutil.DoRequest(router, testutil.WithPrincipal(req, principal))
		require.Equal(t, http.StatusOK, rr.Code)

		body := testutil.UnmarshalResponse[map[string]string](t, rr)
		assert.Equal(t, "SteelCo", (*body)["company"])
		assert.Equal(t, "555-0199", (*body)["phone"])
	})
}

func TestReissueCredential(t *testing.T) {
	router := newWorkerRouter(t)
	principal := uuid.New().String()

	register := testutil.NewJSONRequest(t, http.MethodPost, "/workers", map[string]string{
		"name":    "Ada Osei",
		"company": "BuildCo",
	})
	rr := testutil.DoRequest(router, testutil.WithPrincipal(register, principal))
	require.Equal(t, http.StatusCreated, rr.Code)
	original := (*testutil.UnmarshalResponse[map[string]string](t, rr))["credential"]

	req := testutil.NewRequest(t, http.MethodPost, "/workers/me/credential")
	rr = testutil.DoRequest(router, testutil.WithPrincipal(req, principal))
	require.Equal(t, http.StatusOK, rr.Code)

	fresh := (*testutil.UnmarshalResponse[map[string]string](t, rr))["credential"]
	assert.NotEqual(t, original, fresh)
	assert.Len(t, fresh, models.CredentialLength)
}
