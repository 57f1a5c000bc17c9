package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/contriboost/chat-relay/internal/config"
	"github.com/contriboost/chat-relay/internal/core"
	"github.com/contriboost/chat-relay/internal/store"
	"github.com/contriboost/chat-relay/internal/store/memory"
	"github.com/contriboost/chat-relay/internal/store/postgres"
	"github.com/contriboost/chat-relay/internal/store/sqlite"
	"github.com/contriboost/chat-relay/internal/telemetry"
	transporthttp "github.com/contriboost/chat-relay/internal/transport/http"
	"github.com/contriboost/chat-relay/internal/verify"
)

// App wires together store, verification, core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	store           store.Store
	redis           *redis.Client
	tracing         telemetry.Shutdown
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	tracing, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	st, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		_ = tracing(ctx)
		return nil, err
	}

	a := &App{
		shutdownTimeout: cfg.ShutdownTimeout,
		store:           st,
		tracing:         tracing,
		log:             logger,
	}

	verifier, err := a.newVerifier(ctx, cfg)
	if err != nil {
		a.cleanup(ctx)
		return nil, err
	}

	a.hub = core.NewHub(logger)
	manager := core.NewManager(st, a.hub,
		core.WithIOTimeout(cfg.IOTimeout),
		core.WithLogger(logger),
	)
	a.server = transporthttp.NewServer(manager, verifier, cfg, logger)

	return a, nil
}

// OpenStore opens and migrates the configured message store.
func OpenStore(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		st, err = sqlite.New(cfg.Store.SQLitePath)
	case config.DriverPostgres:
		st, err = postgres.New(ctx, cfg.Store.PostgresURL)
	case config.DriverMemory:
		st = memory.New()
	default:
		err = fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("migrate store: %w", err)
	}

	logger.Info().Str("driver", cfg.Store.Driver).Msg("store initialized")
	return st, nil
}

func (a *App) newVerifier(ctx context.Context, cfg *config.Config) (verify.Verifier, error) {
	var v verify.Verifier
	switch cfg.Verifier.Mode {
	case config.VerifierStatic:
		v = verify.NewStatic(cfg.Verifier.Participants)
	case config.VerifierRemote:
		v = verify.NewRemote(cfg.Verifier.RemoteURL, verify.WithHTTPClient(&stdhttp.Client{Timeout: cfg.IOTimeout}))
	case config.VerifierToken:
		v = verify.NewToken([]byte(cfg.Verifier.TokenSecret), cfg.Verifier.TokenIssuer)
	default:
		return nil, fmt.Errorf("unknown verifier mode %q", cfg.Verifier.Mode)
	}
	a.log.Info().Str("mode", cfg.Verifier.Mode).Msg("participant verification configured")

	if cfg.Redis.Addr == "" {
		return v, nil
	}

	a.redis = redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  cfg.IOTimeout,
		ReadTimeout:  cfg.IOTimeout,
		WriteTimeout: cfg.IOTimeout,
	})
	if err := a.redis.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis at %s: %w", cfg.Redis.Addr, err)
	}
	a.log.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.Redis.TTL).Msg("verification cache enabled")

	return verify.NewCached(v, verify.NewRedisCache(a.redis, "relay:verify:"), cfg.Redis.TTL, a.log), nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go a.hub.Run(hubCtx)

	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("relay listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		stopHub()
		a.cleanup(context.Background())
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		// Hijacked websocket connections are not tracked by Shutdown; closing
		// the hub ends their write loops.
		a.hub.Shutdown()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup(shutdownCtx)
			return err
		}

		a.cleanup(shutdownCtx)
		return <-serverErr
	}
}

// cleanup closes the store and other resources.
func (a *App) cleanup(ctx context.Context) {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close redis")
		}
	}
	if a.tracing != nil {
		if err := a.tracing(ctx); err != nil {
			a.log.Warn().Err(err).Msg("failed to flush traces")
		}
	}
}
