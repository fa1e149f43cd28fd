package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/bradfortner/convergence-queue/internal/api"
	"github.com/bradfortner/convergence-queue/internal/catalog"
	"github.com/bradfortner/convergence-queue/internal/config"
	"github.com/bradfortner/convergence-queue/internal/db"
	"github.com/bradfortner/convergence-queue/internal/domain"
	"github.com/bradfortner/convergence-queue/internal/engine"
	"github.com/bradfortner/convergence-queue/internal/metrics"
	"github.com/bradfortner/convergence-queue/internal/playback"
	"github.com/bradfortner/convergence-queue/internal/playlog"
	"github.com/bradfortner/convergence-queue/internal/presentation"
	"github.com/bradfortner/convergence-queue/internal/queue"
	"github.com/bradfortner/convergence-queue/internal/ratelimiter"
	"github.com/bradfortner/convergence-queue/internal/rotation"
	"github.com/bradfortner/convergence-queue/internal/service"
	"github.com/bradfortner/convergence-queue/internal/store"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	// ---- configuration ----
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx := context.Background()

	// ---- metrics ----
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	// ---- queue store ----
	var st store.Store
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			logger.Fatal("failed to connect to database", zap.Error(err))
		}
		defer pool.Close()

		if err := db.Migrate(cfg.DatabaseURL); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
		logger.Info("database migrations applied")
		st = store.NewPgStore(pool)
	default:
		fs := store.NewFileStore(cfg.QueueFile, cfg.StoreRetries, cfg.StoreRetryDelay,
			logger.With(zap.String("component", "store")))
		fs.SetRetryHook(m.StoreRetries.Inc)
		st = fs
	}

	// ---- catalog ----
	cat, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		logger.Fatal("failed to load catalog", zap.Error(err))
	}
	if cat.Len() == 0 {
		logger.Fatal("catalog is empty", zap.String("path", cfg.CatalogFile))
	}
	logger.Info("catalog loaded", zap.Int("songs", cat.Len()))

	// ---- synchronizer + presentation ----
	notifiers := presentation.Multi{
		presentation.LogNotifier{Logger: logger.With(zap.String("component", "queue"))},
		presentation.FuncNotifier(m.QueueNotifier()),
	}
	sy := queue.NewSynchronizer(st, notifiers,
		logger.With(zap.String("component", "synchronizer")))

	// ---- engine ----
	var rot *rotation.Rotation
	if cfg.RotationEnabled {
		rot = rotation.New(cat.IDs())
	}
	player := playback.NewExecPlayer(cfg.PlayerCommand, cfg.PlayerArgs,
		logger.With(zap.String("component", "player")))
	history := playlog.New(cfg.PlayLogFile, logger.With(zap.String("component", "playlog")))

	eng := engine.New(sy, cat, player, rot, history,
		cfg.PollInterval, cfg.NowPlayingFile,
		logger.With(zap.String("component", "engine")),
		engine.MetricHooks{
			OnState: func(state string) { m.SetEngineState(state, engine.StateNames) },
			OnPlayed: func(source domain.PlaySource, outcome playback.Outcome, elapsed time.Duration) {
				m.PlaysTotal.WithLabelValues(string(source)).Inc()
				m.PlaybackSeconds.Observe(elapsed.Seconds())
				if outcome == playback.OutcomeFailed {
					m.PlaybackFailures.Inc()
				}
			},
		},
	)

	// Engine context: cancelled on shutdown signal. Exactly one engine runs.
	engineCtx, cancelEngine := context.WithCancel(ctx)
	defer cancelEngine()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		eng.Run(engineCtx)
	}()

	// ---- request service + HTTP server ----
	limiter := ratelimiter.New(cfg.SubmitRateLimit)
	svc := service.NewRequestService(sy, cat, limiter, eng,
		logger.With(zap.String("component", "service")))
	svc.SetMetricHooks(m.RequestsTotal.Inc, func(reason string) {
		m.RequestsRejected.WithLabelValues(reason).Inc()
	})

	router := api.NewRouter(svc, eng, reg, logger)
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start server in a goroutine so it does not block the shutdown listener.
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// ---- graceful shutdown ----
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutdown signal received")

	// 1. Stop accepting new submissions.
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// 2. Stop the engine. A song in flight is cut off; its request stays
	//    queued and plays again on the next boot.
	cancelEngine()

	// 3. Wait for the engine to unwind.
	wg.Wait()

	logger.Info("jukebox stopped cleanly")
}
