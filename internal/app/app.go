package app

import (
	"context"
	"fmt"
	"io"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/webcrafter/webcrafter-server/internal/auth"
	"github.com/webcrafter/webcrafter-server/internal/broker"
	"github.com/webcrafter/webcrafter-server/internal/config"
	"github.com/webcrafter/webcrafter-server/internal/presence"
	"github.com/webcrafter/webcrafter-server/internal/realtime"
	"github.com/webcrafter/webcrafter-server/internal/service/chat"
	"github.com/webcrafter/webcrafter-server/internal/service/friends"
	"github.com/webcrafter/webcrafter-server/internal/service/projects"
	"github.com/webcrafter/webcrafter-server/internal/store"
	"github.com/webcrafter/webcrafter-server/internal/store/sqlite"
	transporthttp "github.com/webcrafter/webcrafter-server/internal/transport/http"
)

// App wires together storage, services, realtime delivery, and transport.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	store           store.Store
	closers         []io.Closer
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	var closers []io.Closer

	// Presence lives in-process unless a Redis URL is configured.
	var registry presence.Registry = presence.NewMemoryRegistry()
	if cfg.RedisURL != "" {
		redisRegistry, err := presence.NewRedisRegistry(context.Background(), cfg.RedisURL, logger)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("init redis presence: %w", err)
		}
		registry = redisRegistry
		closers = append(closers, redisRegistry)
		logger.Info().Msg("presence registry backed by redis")
	}

	hub := realtime.NewHub(logger)

	// All publishes go to the in-process hub; a configured broker gets a
	// mirror copy of every event.
	targets := []realtime.Publisher{hub}
	if cfg.BrokerURL != "" {
		amqpPub, err := broker.NewAMQPPublisher(cfg.BrokerURL)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("init broker: %w", err)
		}
		targets = append(targets, amqpPub)
		closers = append(closers, amqpPub)
		logger.Info().Msg("event mirror to rabbitmq enabled")
	}
	pub := realtime.NewMultiPublisher(logger, targets...)

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      24 * time.Hour,
	}

	authService := auth.NewService(st, jwtConfig)
	friendsService := friends.New(st, registry, pub, logger)
	chatService := chat.New(st, pub, cfg.ChatHistoryLimit, logger)
	projectsService := projects.New(st, pub, logger)
	lifecycle := realtime.NewLifecycle(registry, st, pub, logger)

	server := transporthttp.NewServer(transporthttp.Services{
		Auth:      authService,
		Friends:   friendsService,
		Chat:      chatService,
		Projects:  projectsService,
		Hub:       hub,
		Lifecycle: lifecycle,
		Store:     st,
	}, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		store:           st,
		closers:         closers,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes the database and optional backends.
func (a *App) cleanup() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close backend")
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
