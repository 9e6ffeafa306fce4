package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"exchangecore/internal/config"
	"exchangecore/internal/coordinator"
	"exchangecore/internal/domain"
	"exchangecore/internal/ledger"
	"exchangecore/internal/matching"
	"exchangecore/internal/transport"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the TCP order entry server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

// runServe wires config -> ledger -> matching engine -> coordinator ->
// transport server, then blocks until SIGINT/SIGTERM.
func runServe(parent context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	configureLogging(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	led, err := buildLedger(ctx, cfg)
	if err != nil {
		return err
	}

	engine := matching.New()
	for _, market := range cfg.Markets {
		engine.RegisterMarket(domain.MarketConfig{Symbol: market})
		log.Info().Str("market", string(market)).Msg("registered market")
	}

	coord := coordinator.New(engine, led)
	srv := transport.New(cfg.ListenAddr, coord)

	log.Info().Str("addr", cfg.ListenAddr).Msg("exchanged starting")
	return srv.Run(ctx)
}

func buildLedger(ctx context.Context, cfg *config.Config) (ledger.Ledger, error) {
	if !cfg.UsesPostgres() {
		return ledger.NewMemory(), nil
	}
	pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	return ledger.NewPostgres(pool), nil
}

func configureLogging(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}
