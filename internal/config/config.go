// Package config loads exchanged's runtime configuration from the
// environment via github.com/joho/godotenv, with an optional .env file
// layered under explicit process environment variables.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"exchangecore/internal/domain"
)

// Config holds everything main needs to wire the exchange together.
type Config struct {
	// ListenAddr is the TCP address the transport server binds, e.g.
	// "0.0.0.0:9001".
	ListenAddr string

	// Markets lists the symbols registered with the matching engine at
	// startup.
	Markets []domain.Symbol

	// PostgresDSN, when non-empty, switches the ledger backend from
	// in-memory to ledger.PostgresLedger.
	PostgresDSN string

	// LogLevel is a zerolog level name ("debug", "info", "warn", "error").
	LogLevel string
}

const (
	envListenAddr  = "EXCHANGE_LISTEN_ADDR"
	envMarkets     = "EXCHANGE_MARKETS"
	envPostgresDSN = "EXCHANGE_POSTGRES_DSN"
	envLogLevel    = "EXCHANGE_LOG_LEVEL"

	defaultListenAddr = "0.0.0.0:9001"
	defaultMarkets    = "BTC/USD,ETH/USD"
	defaultLogLevel   = "info"
)

// Load reads a .env file if present (missing is not an error, matching
// godotenv.Load's own convention) and then layers the process
// environment over defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	cfg := &Config{
		ListenAddr:  getEnvOr(envListenAddr, defaultListenAddr),
		PostgresDSN: os.Getenv(envPostgresDSN),
		LogLevel:    getEnvOr(envLogLevel, defaultLogLevel),
	}

	markets, err := parseMarkets(getEnvOr(envMarkets, defaultMarkets))
	if err != nil {
		return nil, err
	}
	cfg.Markets = markets

	return cfg, nil
}

func getEnvOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func parseMarkets(raw string) ([]domain.Symbol, error) {
	parts := strings.Split(raw, ",")
	out := make([]domain.Symbol, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		sym, err := domain.ParseSymbol(p)
		if err != nil {
			return nil, fmt.Errorf("config: %s: %w", envMarkets, err)
		}
		out = append(out, sym)
	}
	return out, nil
}

// UsesPostgres reports whether a storage-backed ledger should be used.
func (c *Config) UsesPostgres() bool {
	return c.PostgresDSN != ""
}
