// Command authcore serves the authentication API.
//
// Configuration is read from the environment; JWT_SECRET, EMAIL_SECRET and
// PASSWORD_RESET_SECRET are required. Verification and reset mails are
// written to the log.
//
//	JWT_SECRET=... EMAIL_SECRET=... PASSWORD_RESET_SECRET=... go run ./cmd/authcore
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/httpapi"
	"github.com/MrEthical07/authcore/logging"
	"github.com/MrEthical07/authcore/metrics/export/prometheus"
	"github.com/MrEthical07/authcore/revocation"
	"github.com/MrEthical07/authcore/userstore"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "authcore:", err)
		os.Exit(1)
	}
}

func run() error {
	env, err := authcore.LoadEnvConfig()
	if err != nil {
		return err
	}

	logger, err := logging.New(env.LogLevel)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisOpts, err := redis.ParseURL(env.RedisURL)
	if err != nil {
		return fmt.Errorf("parse REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(redisOpts)
	defer func() { _ = rdb.Close() }()

	engineCfg := env.EngineConfig()
	revocations := revocation.NewStore(rdb, engineCfg.Revocation.KeyPrefix)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	rtt, err := revocations.Ping(pingCtx)
	cancel()
	if err != nil {
		// Verification fails closed while Redis is down; keep serving so
		// /readyz can report it.
		logger.Warn("redis unreachable at startup", zap.Error(err))
	} else {
		logger.Info("redis reachable", zap.Duration("rtt", rtt))
	}

	store, err := userstore.Open(env.DBDriver, env.DatabaseURL, userstore.WithGormLogger(userstore.ZapLogger(logger)))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	builder := authcore.New().
		WithConfig(engineCfg).
		WithRedis(rdb).
		WithUserProvider(store).
		WithLogger(logger)
	if env.AuditEnabled {
		builder = builder.WithAuditSink(authcore.NewZapAuditSink(logger))
	}
	engine, err := builder.Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer engine.Close()

	for _, risk := range engine.SecurityReport().ResidualRisks {
		logger.Info("residual risk", zap.String("risk", risk))
	}

	root := chi.NewRouter()
	if env.MetricsEnabled {
		root.Handle("/metrics", prometheus.NewExporter(engine).Handler())
	}
	root.Mount("/", httpapi.NewRouter(engine, httpapi.Options{
		Logger: logger,
		Checks: map[string]httpapi.Check{
			"redis": func(ctx context.Context) error {
				_, err := revocations.Ping(ctx)
				return err
			},
			"database": store.Ping,
		},
	}))

	srv := &http.Server{
		Addr:              env.HTTPAddr,
		Handler:           root,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", env.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
