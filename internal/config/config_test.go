package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"exchangecore/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9001", cfg.ListenAddr)
	require.Len(t, cfg.Markets, 2)
	assert.Equal(t, "BTC/USD", cfg.Markets[0].String())
	assert.False(t, cfg.UsesPostgres())
}

func TestLoadMarketsFromEnv(t *testing.T) {
	t.Setenv("EXCHANGE_MARKETS", "BTC/USD, ETH/BTC")
	cfg, err := config.Load()
	require.NoError(t, err)
	require.Len(t, cfg.Markets, 2)
	assert.Equal(t, "ETH/BTC", cfg.Markets[1].String())
}

func TestLoadRejectsInvalidMarket(t *testing.T) {
	t.Setenv("EXCHANGE_MARKETS", "not-a-symbol")
	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoadPostgresDSN(t *testing.T) {
	t.Setenv("EXCHANGE_POSTGRES_DSN", "postgres://localhost/test")
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.True(t, cfg.UsesPostgres())
}
