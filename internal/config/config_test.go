package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("reads environment overrides", func(t *testing.T) {
		t.Setenv("PORT", "9999")
		t.Setenv("RAFFLE_TOTAL_SUPPLY", "500000")
		t.Setenv("PAYMENT_TIMEOUT", "3s")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "9999", cfg.Port)
		assert.Equal(t, 500000, cfg.Raffle.TotalSupply)
		assert.Equal(t, 3*time.Second, cfg.Payment.Timeout)
	})

	t.Run("rejects a supply beyond the number space", func(t *testing.T) {
		t.Setenv("RAFFLE_TOTAL_SUPPLY", "3000000000")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("rejects a non-positive supply", func(t *testing.T) {
		t.Setenv("RAFFLE_TOTAL_SUPPLY", "0")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("rejects malformed integers", func(t *testing.T) {
		t.Setenv("RAFFLE_MIN_PURCHASE", "ten")

		_, err := Load()
		assert.Error(t, err)
	})
}
