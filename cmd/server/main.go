package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/memeboard/internal/adapter/httpserver"
	"github.com/pscheid92/memeboard/internal/adapter/metrics"
	"github.com/pscheid92/memeboard/internal/adapter/postgres"
	"github.com/pscheid92/memeboard/internal/adapter/redis"
	"github.com/pscheid92/memeboard/internal/adapter/token"
	"github.com/pscheid92/memeboard/internal/adapter/uploads"
	"github.com/pscheid92/memeboard/internal/app"
	"github.com/pscheid92/memeboard/internal/engagement"
	"github.com/pscheid92/memeboard/internal/platform/config"
	"github.com/pscheid92/memeboard/internal/platform/crypto"
	"github.com/pscheid92/memeboard/internal/platform/logging"
	"github.com/pscheid92/memeboard/internal/platform/retry"
	"github.com/pscheid92/memeboard/internal/platform/version"
	goredis "github.com/redis/go-redis/v9"
)

const (
	connectTimeout    = 60 * time.Second
	shutdownTimeout   = 10 * time.Second
	cacheEvictionTick = time.Minute
)

func connectPolicy(clock clockwork.Clock, target string) retry.Policy {
	return retry.Policy{
		MaxAttempts:    10,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
		Clock:          clock,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			slog.Warn("Connection attempt failed, retrying", "target", target, "attempt", attempt, "backoff", backoff, "error", err)
		},
	}
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config, clock clockwork.Clock, m *metrics.StoreMetrics) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	tracer := postgres.NewMetricsTracer(m)
	pool, err := retry.Do(ctx, connectPolicy(clock, "postgres"), postgres.ClassifyConnectError,
		func(ctx context.Context) (*pgxpool.Pool, error) {
			return postgres.Connect(ctx, cfg.DatabaseURL, tracer)
		})
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := postgres.RunMigrationsWithLock(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

// setupRedis returns nil when no REDIS_URL is configured; the meme-of-the-day
// cache then runs memory-only.
func setupRedis(cfg *config.Config, clock clockwork.Clock, m *metrics.StoreMetrics) *goredis.Client {
	if cfg.RedisURL == "" {
		slog.Info("REDIS_URL not set, meme-of-the-day cache is process-local")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	client, err := retry.Do(ctx, connectPolicy(clock, "redis"), retry.Always,
		func(ctx context.Context) (*goredis.Client, error) {
			return redis.NewClient(ctx, cfg.RedisURL, m)
		})
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

// healthChecks lists readiness dependencies. Redis only backs the
// meme-of-the-day cache, so losing it degrades rather than fails readiness.
func healthChecks(pool *pgxpool.Pool, rdb *goredis.Client, images *uploads.DiskStore) []httpserver.HealthCheck {
	checks := []httpserver.HealthCheck{
		{Name: "postgres", Check: pool.Ping},
		{Name: "uploads", Check: images.Ready},
	}
	if rdb != nil {
		checks = append(checks, httpserver.HealthCheck{
			Name:     "motd_cache",
			Check:    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
			Optional: true,
		})
	}
	return checks
}

func runGracefulShutdown(srv *httpserver.Server) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "version", version.Get().String(), "env", cfg.AppEnv, "port", cfg.Port)

	reg := metrics.NewRegistry()
	m := metrics.NewSet(reg)

	pool := setupDB(cfg, clock, m.Store)
	defer pool.Close()

	redisClient := setupRedis(cfg, clock, m.Store)
	var cacheBackend goredis.Cmdable
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
		cacheBackend = redisClient
	}

	motdCache := redis.NewMemeOfTheDayCache(cacheBackend, cfg.MemeOfTheDayCacheTTL, clock, m.Cache)
	stopEviction := motdCache.StartEvictionTimer(cacheEvictionTick)
	defer stopEviction()

	images, err := uploads.NewDiskStore(cfg.UploadDir, cfg.UploadURLPrefix, cfg.MaxUploadBytes, clock)
	if err != nil {
		slog.Error("Failed to prepare upload directory", "dir", cfg.UploadDir, "error", err)
		os.Exit(1)
	}

	hasher, err := crypto.NewBcryptHasher(crypto.DefaultCost)
	if err != nil {
		slog.Error("Failed to create password hasher", "error", err)
		os.Exit(1)
	}

	memes := postgres.NewMemeRepo(pool)
	engine := engagement.NewEngine(postgres.NewEngagementStore(pool), clock, m.Engagement)
	picker := app.NewMemeOfTheDayPicker(memes, postgres.NewMemeOfTheDayRepo(pool), motdCache, clock, m.Cache)

	appSvc := app.NewService(app.Deps{
		Users:        postgres.NewUserRepo(pool),
		Memes:        memes,
		Comments:     postgres.NewCommentRepo(pool),
		Engine:       engine,
		Images:       images,
		Hasher:       hasher,
		Tokens:       token.NewJWTIssuer(cfg.TokenSecret, cfg.TokenTTL, clock),
		Reconciler:   postgres.NewReconciler(pool),
		MemeOfTheDay: picker,
	})

	srv := httpserver.NewServer(cfg, appSvc, m.HTTP, metrics.Handler(reg), healthChecks(pool, redisClient, images))

	done := runGracefulShutdown(srv)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
