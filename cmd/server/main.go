// Package main is the entry point for the quick-game wagering backend.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"quickbet-platform/internal/config"
	"quickbet-platform/internal/game"
	"quickbet-platform/internal/game/sicbo"
	"quickbet-platform/internal/game/xocdia"
	"quickbet-platform/internal/handler"
	"quickbet-platform/internal/model"
	"quickbet-platform/internal/pkg/db"
	"quickbet-platform/internal/pkg/event"
	"quickbet-platform/internal/pkg/lock"
	"quickbet-platform/internal/repository"
	"quickbet-platform/internal/service"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log.Info().Msg("Configuration loaded successfully")

	applyPhaseDurations(&cfg.Phases)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	if err := runMigrations(ctx, dbPool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Event publisher: redis when configured, otherwise a no-op
	var publisher event.Publisher = event.NopPublisher{}
	if cfg.Redis.Addr != "" {
		redisPublisher, err := event.NewRedisPublisher(ctx, &cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to redis")
		}
		defer redisPublisher.Close()
		publisher = redisPublisher
		log.Info().Str("addr", cfg.Redis.Addr).Str("channel", cfg.Redis.Channel).Msg("Event publisher connected")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(dbPool.Pool)
	ledgerRepo := repository.NewLedgerRepository(dbPool.Pool)
	sessionRepo := repository.NewSessionRepository(dbPool.Pool)
	wagerRepo := repository.NewWagerRepository(dbPool.Pool)
	catalogRepo := repository.NewCatalogRepository(dbPool.Pool)
	historyRepo := repository.NewHistoryRepository(dbPool.Pool)

	// Initialize game registry and register games
	registry := game.NewRegistry()
	if err := registry.Register(sicbo.New(cfg.Games.Sicbo.Tables)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register sicbo game")
	}
	if cfg.Games.Xocdia.Enabled {
		if err := registry.Register(xocdia.New()); err != nil {
			log.Fatal().Err(err).Msg("Failed to register xocdia game")
		}
	}
	log.Info().Int("game_count", registry.Count()).Strs("games", registry.Codes()).Msg("Games registered")

	// Initialize services
	keys := lock.NewKeyedLock()
	ledger := service.NewLedger(dbPool.Pool, userRepo, ledgerRepo, keys)
	catalog := service.NewCatalog(catalogRepo, registry)
	settlement := service.NewSettlement(registry, wagerRepo, historyRepo, ledger)
	sessions := service.NewSessions(dbPool.Pool, sessionRepo, settlement, registry, publisher, keys)
	placement := service.NewPlacement(dbPool.Pool, sessionRepo, wagerRepo, catalog, ledger, keys)
	trend := service.NewTrend(historyRepo, registry)

	// A low-frequency poller keeps phase advancement warm for idle tables.
	// Correctness never depends on its cadence: every read and write path
	// re-runs the advance step itself.
	go pollSessions(ctx, sessions, registry)

	// HTTP server
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	h := handler.New(cfg, sessions, placement, ledger, catalog, trend)
	h.RegisterRoutes(engine)

	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: engine,
	}

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	log.Info().Msg("Server stopped gracefully")
}

// applyPhaseDurations installs configured phase durations over the defaults.
func applyPhaseDurations(cfg *config.PhasesConfig) {
	set := func(p model.Phase, ms int) {
		if ms > 0 {
			model.SetPhaseDuration(p, time.Duration(ms)*time.Millisecond)
		}
	}
	set(model.PhaseCountdown, cfg.CountdownMs)
	set(model.PhaseBettingClosed, cfg.BettingClosedMs)
	set(model.PhaseWaitingResult, cfg.WaitingResultMs)
	set(model.PhasePayout, cfg.PayoutMs)
	set(model.PhaseInviteNext, cfg.InviteNextMs)
}

// pollSessions walks every table a few times a minute so phase advancement
// and trend data stay warm even with no client traffic.
func pollSessions(ctx context.Context, sessions *service.Sessions, registry *game.Registry) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, code := range registry.Codes() {
				rules, ok := registry.Get(code)
				if !ok {
					continue
				}
				for table := 1; table <= rules.Tables(); table++ {
					if _, err := sessions.GetCurrent(ctx, code, table); err != nil {
						log.Warn().Err(err).Str("game", code).Int("table", table).Msg("Session poll failed")
					}
				}
			}
		}
	}
}

// runMigrations executes database migrations.
func runMigrations(ctx context.Context, pool *db.Pool) error {
	log.Info().Msg("Running database migrations...")

	// Migration 1: Create users table
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id BIGINT PRIMARY KEY,
			username VARCHAR(255) NOT NULL,
			balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 1: users table created")

	// Migration 2: Create ledger transactions table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS ledger_transactions (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id),
			amount BIGINT NOT NULL,
			balance_before BIGINT NOT NULL,
			balance_after BIGINT NOT NULL,
			type VARCHAR(50) NOT NULL,
			description TEXT,
			ref_type VARCHAR(50),
			ref_id BIGINT,
			actor_id BIGINT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_ledger_user_time ON ledger_transactions(user_id, id DESC);
		CREATE INDEX IF NOT EXISTS idx_ledger_ref ON ledger_transactions(ref_type, ref_id);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 2: ledger_transactions table created")

	// Migration 3: Create sessions table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS sessions (
			id BIGSERIAL PRIMARY KEY,
			round_code UUID NOT NULL UNIQUE,
			game VARCHAR(30) NOT NULL,
			table_no INT NOT NULL,
			status VARCHAR(20) NOT NULL,
			phase VARCHAR(30),
			phase_started_at TIMESTAMPTZ,
			result_code VARCHAR(100),
			started_at TIMESTAMPTZ NOT NULL,
			ended_at TIMESTAMPTZ,
			CHECK ((phase IS NULL) = (phase_started_at IS NULL))
		);
		CREATE INDEX IF NOT EXISTS idx_sessions_table ON sessions(game, table_no, started_at DESC);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_one_running
			ON sessions(game, table_no) WHERE status = 'RUNNING';
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 3: sessions table created")

	// Migration 4: Create wagers table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS wagers (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id),
			session_id BIGINT NOT NULL REFERENCES sessions(id),
			code VARCHAR(100) NOT NULL,
			stake BIGINT NOT NULL CHECK (stake > 0),
			multiplier NUMERIC(12,2) NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
			win_amount BIGINT,
			result_code VARCHAR(100),
			placed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			settled_at TIMESTAMPTZ
		);
		CREATE INDEX IF NOT EXISTS idx_wagers_session_status ON wagers(session_id, status);
		CREATE INDEX IF NOT EXISTS idx_wagers_user_time ON wagers(user_id, id DESC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 4: wagers table created")

	// Migration 5: Create quick-bet catalog table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS quick_bet_configs (
			id BIGSERIAL PRIMARY KEY,
			game VARCHAR(30) NOT NULL,
			code VARCHAR(100) NOT NULL,
			display_name VARCHAR(255) NOT NULL,
			multiplier NUMERIC(12,2) NOT NULL,
			layout_group VARCHAR(50) NOT NULL DEFAULT '',
			sort_order INT NOT NULL DEFAULT 0,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (game, code)
		);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 5: quick_bet_configs table created")

	// Migration 6: Create result history table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS result_history (
			id BIGSERIAL PRIMARY KEY,
			session_id BIGINT NOT NULL UNIQUE REFERENCES sessions(id),
			game VARCHAR(30) NOT NULL,
			table_no INT NOT NULL,
			result_code VARCHAR(100) NOT NULL,
			category VARCHAR(30) NOT NULL,
			dice_sum INT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_history_table ON result_history(game, table_no, id DESC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 6: result_history table created")

	return nil
}
