package sweep

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "github.com/aivaterepositories/sight-sign/pkg/domain"
)

func TestSweepMarkers(t *testing.T) {
	ctx := context.Background()
	store := New()
	siteID := id.SiteID(uuid.New())
	day := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)

	t.Run("unswept site reports not ok", func(t *testing.T) {
		_, ok, err := store.LastSwept(ctx, siteID)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("marker round-trips", func(t *testing.T) {
		require.NoError(t, store.MarkSwept(ctx, siteID, day))
		last, ok, err := store.LastSwept(ctx, siteID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, last.Equal(day))
	})

	t.Run("marker only moves forward", func(t *testing.T) {
		require.NoError(t, store.MarkSwept(ctx, siteID, day.AddDate(0, 0, -1)))
		last, _, err := store.LastSwept(ctx, siteID)
		require.NoError(t, err)
		assert.True(t, last.Equal(day))

		next := day.AddDate(0, 0, 1)
		require.NoError(t, store.MarkSwept(ctx, siteID, next))
		last, _, err = store.LastSwept(ctx, siteID)
		require.NoError(t, err)
		assert.True(t, last.Equal(next))
	})
}
