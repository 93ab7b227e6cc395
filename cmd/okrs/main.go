package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/okrs/internal/auth"
	"github.com/gosuda/okrs/internal/config"
	"github.com/gosuda/okrs/internal/domain"
	"github.com/gosuda/okrs/internal/okr"
	"github.com/gosuda/okrs/internal/secrets"
	"github.com/gosuda/okrs/internal/server"
	"github.com/gosuda/okrs/internal/store/postgres"
	redisstore "github.com/gosuda/okrs/internal/store/redis"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	ctx := context.Background()

	// Load configuration from environment (and OKRS_CONFIG_PATH, if set).
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	setupLogging(cfg.Log)

	if cfg.Database.MaxConns < 0 || cfg.Database.MaxConns > math.MaxInt32 {
		return fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
	}

	if cfg.Database.Migrate {
		if err := postgres.Migrate(ctx, cfg.Database.DSN()); err != nil {
			return err
		}
		log.Info().Msg("database migrations applied")
	}

	// Connect to PostgreSQL.
	store, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
	if err != nil {
		return err
	}
	defer store.Close()

	// Connect to Redis for change events. An empty address disables them.
	var (
		events domain.EventPublisher
		health server.Pinger
	)
	if cfg.Redis.Addr != "" {
		pubsub, err := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer pubsub.Close()
		events, health = pubsub, pubsub
	} else {
		log.Warn().Msg("OKRS_REDIS_ADDR is empty; objective change events are disabled")
	}

	// Provider tokens are only stored when a vault key is configured.
	var vault *secrets.Vault
	if cfg.VaultKey != "" {
		key, err := secrets.ParseKey(cfg.VaultKey)
		if err != nil {
			return fmt.Errorf("vault key: %w", err)
		}
		if vault, err = secrets.NewVault(key); err != nil {
			return err
		}
	}

	var providers []auth.IdentityProvider
	if p := cfg.OAuth.GoogleProvider(); p.Enabled() {
		providers = append(providers, auth.NewGoogleProvider(p.ClientID, p.ClientSecret, p.RedirectURL))
	}
	if p := cfg.OAuth.GitHubProvider(); p.Enabled() {
		providers = append(providers, auth.NewGitHubProvider(p.ClientID, p.ClientSecret, p.RedirectURL))
	}
	if len(providers) == 0 {
		log.Warn().Msg("no identity provider configured; sign-in is unavailable")
	}

	authSvc := auth.NewService(
		store.Users(),
		vault,
		cfg.JWT.Secret,
		cfg.JWT.AccessTTL,
		cfg.JWT.RefreshTTL,
		domain.Role(cfg.OKR.DefaultRole),
		providers...,
	)

	orgs := okr.NewOrganizationResolver(store.Organizations(), cfg.OKR.Organization())
	objectives := okr.NewService(store, store.Tx(), orgs, events)

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Create HTTP server with all routes wired.
	srv := server.New(ctx, cfg, store, health, authSvc, objectives, orgs)

	// Start server in background goroutine.
	go func() {
		if startErr := srv.Start(ctx); startErr != nil {
			log.Error().Err(startErr).Msg("server error")
			cancel()
		}
	}()

	// Block until shutdown signal.
	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	log.Info().Msg("stopped")
	return nil
}

// setupLogging configures the global zerolog logger.
func setupLogging(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}
