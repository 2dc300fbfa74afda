package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/nightcity/redsheet/internal/auth"
	"github.com/nightcity/redsheet/internal/config"
	"github.com/nightcity/redsheet/internal/database"
	"github.com/nightcity/redsheet/internal/events"
	"github.com/nightcity/redsheet/internal/handler/feed"
	"github.com/nightcity/redsheet/internal/handler/health"
	"github.com/nightcity/redsheet/internal/metrics"
	"github.com/nightcity/redsheet/internal/migrations"
	"github.com/nightcity/redsheet/internal/ratelimit"
	"github.com/nightcity/redsheet/internal/server"
	"github.com/nightcity/redsheet/internal/service"
	"github.com/nightcity/redsheet/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(ctx, db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	checks := map[string]health.Checker{"sqlite": dbChecker{db}}

	// --- Rate limiting (Redis when configured) ---
	var limiter ratelimit.Limiter
	if cfg.RedisURL != "" {
		rdb, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()
		logger.Info("connected to redis")
		checks["redis"] = health.CheckFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
		limiter = ratelimit.NewRedis(rdb, cfg.RateLimitPerMinute)
	} else {
		local := ratelimit.NewLocal(cfg.RateLimitPerMinute, 10*time.Minute)
		defer local.Stop()
		limiter = local
	}

	// --- Metrics ---
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// --- Services ---
	s := store.New(db)
	broker := events.NewBroker()
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.JWTRefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	deps := server.Deps{
		Accounts:   service.NewAccounts(s, tokens, auth.NewPasswords(cfg.BcryptCost)),
		Characters: service.NewCharacters(s),
		Campaigns:  service.NewCampaigns(s, meteredPublisher{broker, m}, cfg.InviteTTL),
		Broker:     broker,
		Limiter:    limiter,
		Metrics:    m,
		SPADir:     cfg.SPADir,
	}

	if cfg.SeedDemo {
		if err := server.SeedDemo(ctx, logger, deps); err != nil {
			return fmt.Errorf("seeding demo data: %w", err)
		}
	}

	// --- HTTP Server ---
	authorize := func(ctx context.Context, token, campaignID string) (string, error) {
		userID, err := deps.Accounts.Authenticate(token)
		if err != nil {
			return "", err
		}
		return userID, deps.Campaigns.Authorize(ctx, campaignID, userID)
	}
	srv := server.New(cfg.HTTPAddr, logger, deps, func(r chi.Router) {
		r.Mount("/healthz", health.NewHandler(logger, checks).Routes())
		r.Mount("/ws", feed.NewHandler(logger, broker, authorize, m.FeedConnections.WithLabelValues("websocket")).Routes())
		r.Handle("/metrics", m.Handler())
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr, "env", cfg.AppEnv)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}

// dbChecker adapts *sql.DB to health.Checker.
type dbChecker struct{ db *sql.DB }

func (d dbChecker) Check(ctx context.Context) error { return d.db.PingContext(ctx) }

// meteredPublisher counts campaign events before fanning them out.
type meteredPublisher struct {
	broker  *events.Broker
	metrics *metrics.Metrics
}

func (p meteredPublisher) Publish(e events.Event) {
	p.metrics.DomainEvents.WithLabelValues(string(e.Type)).Inc()
	p.broker.Publish(e)
}
