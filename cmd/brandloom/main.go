package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	blhttp "github.com/brandloom/brandloom/internal/adapter/http"
	blnats "github.com/brandloom/brandloom/internal/adapter/nats"
	"github.com/brandloom/brandloom/internal/adapter/otel"
	"github.com/brandloom/brandloom/internal/adapter/postgres"
	"github.com/brandloom/brandloom/internal/adapter/ristretto"
	"github.com/brandloom/brandloom/internal/adapter/tiered"
	"github.com/brandloom/brandloom/internal/adapter/ws"
	"github.com/brandloom/brandloom/internal/config"
	"github.com/brandloom/brandloom/internal/fetchpool"
	"github.com/brandloom/brandloom/internal/logger"
	"github.com/brandloom/brandloom/internal/middleware"
	"github.com/brandloom/brandloom/internal/port/messagequeue"
	"github.com/brandloom/brandloom/internal/resilience"
	"github.com/brandloom/brandloom/internal/service"

	natskvcache "github.com/brandloom/brandloom/internal/adapter/natskv"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "admin" {
		if err := runAdmin(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(os.Args[1:]); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags, err := config.ParseFlags(args)
	if err != nil {
		return fmt.Errorf("flags: %w", err)
	}

	cfg, yamlPath, err := config.LoadWithCLI(flags)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, logCloser := logger.New(cfg.Logging)
	defer logCloser.Close()
	slog.SetDefault(log)

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"pass_threshold", cfg.Review.PassThreshold,
	)

	holder := config.NewHolder(cfg, yamlPath)

	ctx := context.Background()

	// --- Telemetry ---
	shutdownOtel, err := otel.Init(ctx, cfg.Logging.Service, cfg.Telemetry.Endpoint)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOtel(shutdownCtx); err != nil {
			slog.Error("otel shutdown failed", "error", err)
		}
	}()

	metrics, err := otel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Infrastructure ---

	// PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	// NATS
	queue, err := blnats.Connect(ctx, cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	defer func() {
		if err := queue.Drain(); err != nil {
			slog.Error("nats drain failed", "error", err)
		}
	}()

	idemKV, err := queue.KeyValue(ctx, cfg.Idempotency.Bucket, cfg.Idempotency.TTL)
	if err != nil {
		return fmt.Errorf("idempotency bucket: %w", err)
	}

	// Tiered snapshot cache: in-process ristretto in front of a shared
	// JetStream KV bucket.
	cacheKV, err := queue.KeyValue(ctx, cfg.Cache.L2Bucket, cfg.Cache.L2TTL)
	if err != nil {
		return fmt.Errorf("cache bucket: %w", err)
	}
	l1, err := ristretto.New(cfg.Cache.L1MaxSizeMB * 1024 * 1024)
	if err != nil {
		return fmt.Errorf("l1 cache: %w", err)
	}
	snapshots := tiered.New(l1, natskvcache.New(cacheKV), cfg.Review.SnapshotTTL)

	// --- Services ---
	hub := ws.NewHub()
	store := postgres.NewStore(pool)

	queueSvc := service.NewQueueService(store, snapshots, queue, hub, metrics, cfg.Review.PassThreshold)
	approvalSvc := service.NewApprovalService(store, snapshots, queue, hub, metrics, cfg.Review.PassThreshold)

	// Dispositions are derived on read, so a reloaded threshold applies to
	// the very next queue read or approval gate re-check.
	reloadDone := watchReload(holder, func(c *config.Config) {
		queueSvc.SetThreshold(c.Review.PassThreshold)
		approvalSvc.SetThreshold(c.Review.PassThreshold)
	})
	defer reloadDone()

	breakers := resilience.NewGroup(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout)
	fetchPool := fetchpool.NewPool(cfg.Review.MaxConcurrentFetches)
	dashboardSvc := service.NewDashboardService(queueSvc, snapshots, fetchPool, breakers, metrics,
		cfg.Review.FetchTimeout, cfg.Review.SnapshotTTL)

	// Ingest generator completions published by the content agents.
	stopGenerated, err := queue.Subscribe(ctx, messagequeue.SubjectReviewGenerated+".>", queueSvc.HandleGenerated)
	if err != nil {
		return fmt.Errorf("generated subscriber: %w", err)
	}
	defer stopGenerated()

	// --- HTTP ---
	handlers := &blhttp.Handlers{
		Queues:    queueSvc,
		Approvals: approvalSvc,
		Dashboard: dashboardSvc,
		Audit:     store,
	}

	rateLimiter := middleware.NewRateLimiter(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst)
	stopCleanup := rateLimiter.StartCleanup(cfg.Rate.CleanupInterval, cfg.Rate.MaxIdleTime)
	defer stopCleanup()

	r := chi.NewRouter()

	// Middleware
	r.Use(blhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(blhttp.SecurityHeaders)
	r.Use(middleware.RequestID)
	r.Use(blhttp.Logger)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(otel.HTTPMiddleware(cfg.Logging.Service))
	r.Use(middleware.TenantID)
	r.Use(rateLimiter.Handler)
	r.Use(middleware.Idempotency(idemKV))
	r.Use(chimw.Timeout(30 * time.Second))

	// Health endpoint with dependency status
	r.Get("/health", healthHandler(pool, queue))

	// WebSocket endpoint for live queue updates
	r.Get("/ws", hub.HandleWS)

	// API routes
	blhttp.MountRoutes(r, handlers, cfg.Webhook)

	addr := ":" + cfg.Server.Port

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// watchReload re-reads the config on SIGHUP and hands the fresh snapshot to
// onReload. The returned function stops the watcher.
func watchReload(holder *config.Holder, onReload func(*config.Config)) func() {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)

	go func() {
		for range hup {
			if err := holder.Reload(); err != nil {
				slog.Error("config reload failed", "error", err)
				continue
			}
			c := holder.Get()
			onReload(c)
			slog.Info("config reloaded",
				"log_level", c.Logging.Level,
				"pass_threshold", c.Review.PassThreshold,
			)
		}
	}()

	return func() {
		signal.Stop(hup)
		close(hup)
	}
}

// healthHandler reports the status of the service and its dependencies.
func healthHandler(pool *pgxpool.Pool, queue *blnats.Queue) http.HandlerFunc {
	type healthStatus struct {
		Status   string `json:"status"`
		Postgres string `json:"postgres"`
		NATS     string `json:"nats"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		status := healthStatus{Status: "ok", Postgres: "ok", NATS: "ok"}
		code := http.StatusOK

		pingCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			status.Postgres = "down"
			status.Status = "degraded"
			code = http.StatusServiceUnavailable
		}
		if !queue.IsConnected() {
			status.NATS = "down"
			status.Status = "degraded"
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(status)
	}
}
