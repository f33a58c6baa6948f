package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "github.com/aivaterepositories/sight-sign/pkg/domain-errors"
)

func TestParseTimeOfDay(t *testing.T) {
	t.Run("parses canonical values", func(t *testing.T) {
		cases := map[string]TimeOfDay{
			"00:00:00": 0,
			"09:00:00": 9 * 3600,
			"18:30:15": 18*3600 + 30*60 + 15,
			"23:59:59": 23*3600 + 59*60 + 59,
		}
		for raw, want := range cases {
			got, err := ParseTimeOfDay(raw)
			require.NoError(t, err, raw)
			assert.Equal(t, want, got, raw)
			assert.Equal(t, raw, got.String())
		}
	})

	t.Run("rejects out-of-range and malformed values", func(t *testing.T) {
		for _, raw := range []string{
			"24:00:00", "18:60:00", "18:00:60",
			"9:00:00", "09:00", "0900:00", "", "half past six",
		} {
			_, err := ParseTimeOfDay(raw)
			require.Error(t, err, raw)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput), raw)
		}
	})
}

func TestTimeOfDayOn(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	cutoff, err := ParseTimeOfDay("18:00:00")
	require.NoError(t, err)

	day := time.Date(2026, 3, 10, 4, 30, 0, 0, time.UTC)
	got := cutoff.On(day, loc)
	assert.Equal(t, time.Date(2026, 3, 10, 18, 0, 0, 0, loc), got)
}

func TestLatestNotAfter(t *testing.T) {
	cutoff, err := ParseTimeOfDay("18:00:00")
	require.NoError(t, err)

	t.Run("today when the cutoff has passed", func(t *testing.T) {
		now := time.Date(2026, 3, 10, 19, 0, 0, 0, time.UTC)
		got := cutoff.LatestNotAfter(now, time.UTC)
		assert.Equal(t, time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC), got)
	})

	t.Run("exactly at the cutoff counts as due", func(t *testing.T) {
		now := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
		got := cutoff.LatestNotAfter(now, time.UTC)
		assert.Equal(t, now, got)
	})

	t.Run("yesterday when the cutoff is still ahead", func(t *testing.T) {
		now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
		got := cutoff.LatestNotAfter(now, time.UTC)
		assert.Equal(t, time.Date(2026, 3, 9, 18, 0, 0, 0, time.UTC), got)
	})

	t.Run("evaluates in the given location", func(t *testing.T) {
		loc, err := time.LoadLocation("Asia/Tokyo")
		require.NoError(t, err)

		// 10:00 UTC is 19:00 in Tokyo, so today's 18:00 Tokyo cutoff is due.
		now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
		got := cutoff.LatestNotAfter(now, loc)
		assert.Equal(t, time.Date(2026, 3, 10, 18, 0, 0, 0, loc), got)
	})
}

func TestTimeOfDayValid(t *testing.T) {
	assert.True(t, TimeOfDay(0).Valid())
	assert.True(t, TimeOfDay(24*3600-1).Valid())
	assert.False(t, TimeOfDay(24*3600).Valid())
	assert.False(t, TimeOfDay(-1).Valid())
}
