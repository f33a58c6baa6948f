package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "github.com/aivaterepositories/sight-sign/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantToken  string
	}{
		{"unauthorized", dErrors.New(dErrors.CodeUnauthorized, "authentication required"), http.StatusUnauthorized, "unauthorized"},
		{"forbidden", dErrors.New(dErrors.CodeForbidden, "access denied"), http.StatusForbidden, "forbidden"},
		{"not found", dErrors.New(dErrors.CodeNotFound, "unknown credential"), http.StatusNotFound, "not_found"},
		{"conflict", dErrors.New(dErrors.CodeConflict, "worker is already on site"), http.StatusConflict, "conflict"},
		{"invariant violation", dErrors.New(dErrors.CodeInvariantViolation, "site name cannot be empty"), http.StatusConflict, "invariant_violation"},
		{"invalid input", dErrors.New(dErrors.CodeInvalidInput, "credential has wrong length"), http.StatusBadRequest, "invalid_input"},
		{"bad request", dErrors.New(dErrors.CodeBadRequest, "invalid JSON body"), http.StatusBadRequest, "bad_request"},
		{"unavailable", dErrors.New(dErrors.CodeUnavailable, "site store unavailable"), http.StatusServiceUnavailable, "unavailable"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			WriteError(rr, tc.err)

			assert.Equal(t, tc.wantStatus, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

			var body map[string]string
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, tc.wantToken, body["error"])
		})
	}
}

func TestWriteErrorHidesInternalDetail(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, dErrors.New(dErrors.CodeInternal, "pq: connection reset"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "internal_error", body["error"])
	assert.Empty(t, body["error_description"])
}

func TestWriteJSON(t *testing.T) {
	t.Run("encodes payload", func(t *testing.T) {
		rr := httptest.NewRecorder()
		WriteJSON(rr, http.StatusCreated, map[string]string{"status": "accepted"})

		assert.Equal(t, http.StatusCreated, rr.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, "accepted", body["status"])
	})

	t.Run("nil payload writes headers only", func(t *testing.T) {
		rr := httptest.NewRecorder()
		WriteJSON(rr, http.StatusNoContent, nil)

		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Empty(t, rr.Body.String())
	})
}
