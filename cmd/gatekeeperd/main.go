package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/getsentry/sentry-go"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/cardpass/gatekeeper/adapters/events"
	"github.com/cardpass/gatekeeper/adapters/ledger"
	"github.com/cardpass/gatekeeper/adapters/ratelimit"
	"github.com/cardpass/gatekeeper/adapters/store"
	"github.com/cardpass/gatekeeper/adapters/tokenizer"
	"github.com/cardpass/gatekeeper/adapters/verifier"
	"github.com/cardpass/gatekeeper/config"
	"github.com/cardpass/gatekeeper/ports"
	"github.com/cardpass/gatekeeper/service"
	"github.com/cardpass/gatekeeper/transport/http"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Environment,
		}); err != nil {
			logger.Error("failed to init sentry", "error", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		redisClient *redis.Client
		challenges  ports.ChallengeStore
		limiter     ports.RateLimiter
		eventPub    ports.EventPublisher
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("failed to parse redis URL", "error", err)
			os.Exit(1)
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()

		challenges = store.NewRedisStore(redisClient)
		limiter = ratelimit.NewRedisLimiter(redisClient, cfg.RateLimitMax, cfg.RateLimitWindow)

		publisher, err := redisstream.NewPublisher(
			redisstream.PublisherConfig{Client: redisClient},
			watermill.NewStdLogger(false, false),
		)
		if err != nil {
			logger.Error("failed to create event publisher", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
		eventPub = events.NewWatermillPublisher(publisher)

		logger.Info("using redis backends", "url", cfg.RedisURL)
	} else {
		challenges = store.NewMemoryStore()
		limiter = ratelimit.NewMemoryLimiter(cfg.RateLimitMax, cfg.RateLimitWindow)
		logger.Info("using in-memory challenge store and rate limiter")
	}
	defer challenges.Close()

	var refreshLedger ports.RefreshLedger
	if cfg.DatabaseURL != "" {
		database, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer database.Close()

		if err := database.PingContext(ctx); err != nil {
			logger.Error("failed to ping database", "error", err)
			os.Exit(1)
		}

		pg := ledger.NewPostgresLedger(database)
		if err := pg.Migrate(ctx); err != nil {
			logger.Error("failed to migrate refresh ledger", "error", err)
			os.Exit(1)
		}
		refreshLedger = pg
		logger.Info("using postgres refresh ledger")
	} else {
		refreshLedger = ledger.NewMemoryLedger()
		logger.Info("using in-memory refresh ledger")
	}

	authService := service.NewAuthService(
		challenges,
		refreshLedger,
		tokenizer.NewJWTTokenizer([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL),
		verifier.NewEd25519Verifier(),
		eventPub,
		logger,
		service.Config{
			Domain:       cfg.Domain,
			ChallengeTTL: cfg.ChallengeTTL,
			RefreshTTL:   cfg.RefreshTTL,
		},
	)

	router := http.SetupRouter(authService, limiter, http.CookieConfig{
		AccessName:  cfg.AccessCookieName,
		RefreshName: cfg.RefreshCookieName,
		Domain:      cfg.CookieDomain,
		Path:        cfg.CookiePath,
		Secure:      cfg.CookieSecure,
		SameSite:    cfg.CookieSameSite,
		Partitioned: cfg.CookiePartitioned,
	}, logger)

	server := &nethttp.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", cfg.ListenAddr, "domain", cfg.Domain)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}
