package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv(t *testing.T) {
	t.Run("applies defaults", func(t *testing.T) {
		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.Addr)
		assert.Equal(t, time.Minute, cfg.SweepInterval)
		assert.Equal(t, "UTC", cfg.CutoffTZ)
		assert.Equal(t, time.UTC, cfg.CutoffLocation())
	})

	t.Run("reads overrides", func(t *testing.T) {
		t.Setenv("SIGHTSIGN_ADDR", ":9090")
		t.Setenv("SIGHTSIGN_SWEEP_INTERVAL", "30s")
		t.Setenv("SIGHTSIGN_CUTOFF_TZ", "Europe/Berlin")

		cfg, err := FromEnv()
		require.NoError(t, err)
		assert.Equal(t, ":9090", cfg.Addr)
		assert.Equal(t, 30*time.Second, cfg.SweepInterval)
		assert.Equal(t, "Europe/Berlin", cfg.CutoffLocation().String())
	})

	t.Run("rejects an unknown time zone", func(t *testing.T) {
		t.Setenv("SIGHTSIGN_CUTOFF_TZ", "Mars/Olympus_Mons")
		_, err := FromEnv()
		require.Error(t, err)
	})

	t.Run("rejects a malformed sweep interval", func(t *testing.T) {
		t.Setenv("SIGHTSIGN_SWEEP_INTERVAL", "often")
		_, err := FromEnv()
		require.Error(t, err)
	})
}
