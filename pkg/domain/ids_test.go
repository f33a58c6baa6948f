package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "github.com/aivaterepositories/sight-sign/pkg/domain-errors"
)

func TestParseIDs(t *testing.T) {
	valid := uuid.New().String()

	t.Run("round-trips a valid UUID", func(t *testing.T) {
		parsed, err := ParseWorkerID(valid)
		require.NoError(t, err)
		assert.Equal(t, valid, parsed.String())
		assert.False(t, parsed.IsNil())
	})

	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseSiteID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects malformed UUID", func(t *testing.T) {
		_, err := ParseRecordID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParsePrincipalID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestIsNil(t *testing.T) {
	assert.True(t, PrincipalID{}.IsNil())
	assert.True(t, WorkerID(uuid.Nil).IsNil())
	assert.False(t, SiteID(uuid.New()).IsNil())
}

func TestPrincipalWorkerConversion(t *testing.T) {
	// A worker's ID is the principal it registered under; the explicit
	// conversion must preserve the value both ways.
	principal := PrincipalID(uuid.New())
	worker := WorkerID(principal)
	assert.Equal(t, principal.String(), worker.String())
	assert.Equal(t, principal, PrincipalID(worker))
}
