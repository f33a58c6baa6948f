package models

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "github.com/aivaterepositories/sight-sign/pkg/domain"
	dErrors "github.com/aivaterepositories/sight-sign/pkg/domain-errors"
)

func TestCredentialValidate(t *testing.T) {
	t.Run("accepts a well-formed value", func(t *testing.T) {
		cred := Credential(strings.Repeat("a", CredentialLength-2) + "-_")
		assert.NoError(t, cred.Validate())
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		for _, raw := range []string{"", "short", strings.Repeat("a", CredentialLength+1)} {
			err := Credential(raw).Validate()
			require.Error(t, err, raw)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		}
	})

	t.Run("rejects characters outside base64url", func(t *testing.T) {
		cred := Credential(strings.Repeat("a", CredentialLength-1) + "+")
		err := cred.Validate()
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestNewWorker(t *testing.T) {
	now := time.Now()
	workerID := id.WorkerID(uuid.New())

	t.Run("constructs and trims fields", func(t *testing.T) {
		w, err := NewWorker(workerID, "  Ada Osei  ", " BuildCo ", " 555-0101 ", now)
		require.NoError(t, err)
		assert.Equal(t, "Ada Osei", w.Name)
		assert.Equal(t, "BuildCo", w.Company)
		assert.Equal(t, "555-0101", w.Phone)
		assert.Empty(t, w.Credential)
	})

	t.Run("phone is optional", func(t *testing.T) {
		w, err := NewWorker(workerID, "Ada Osei", "BuildCo", "", now)
		require.NoError(t, err)
		assert.Empty(t, w.Phone)
	})

	t.Run("rejects missing required fields", func(t *testing.T) {
		cases := []struct {
			name    string
			id      id.WorkerID
			worker  string
			company string
		}{
			{"nil id", id.WorkerID{}, "Ada", "BuildCo"},
			{"empty name", workerID, "  ", "BuildCo"},
			{"empty company", workerID, "Ada", ""},
			{"overlong name", workerID, strings.Repeat("x", 129), "BuildCo"},
			{"overlong company", workerID, "Ada", strings.Repeat("x", 129)},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := NewWorker(tc.id, tc.worker, tc.company, "", now)
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
			})
		}
	})
}
