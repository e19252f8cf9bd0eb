package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/khadra/initiative-api/config"
	"github.com/khadra/initiative-api/internal/email"
	"github.com/khadra/initiative-api/internal/repository/postgres"
	lifecycleService "github.com/khadra/initiative-api/internal/service/lifecycle"
	notificationService "github.com/khadra/initiative-api/internal/service/notification"
	"github.com/khadra/initiative-api/pkg/logger"
	redisBroker "github.com/khadra/initiative-api/pkg/messaging/redis"
	"github.com/khadra/initiative-api/pkg/metrics"
	"github.com/khadra/initiative-api/pkg/scheduler"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := redisBroker.NewRedisBroker(cfg.ToBrokerConfig(), &log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer broker.Close()

	appMetrics := metrics.New("initiative_worker")
	appMetrics.MustRegister(prometheus.DefaultRegisterer)

	base := postgres.NewBaseRepository(db)
	userRepo := postgres.NewUserRepository(base)
	initiativeRepo := postgres.NewInitiativeRepository(base)
	reviewRepo := postgres.NewReviewRepository(base)
	notificationRepo := postgres.NewNotificationRepository(base)
	taskRepo := postgres.NewTaskRepository(base)

	emailSvc := email.NewService(cfg.Email)
	notificationSvc := notificationService.NewService(
		notificationRepo, userRepo, initiativeRepo, broker, emailSvc, appLogger, appMetrics,
	)

	sched := scheduler.New(taskRepo, appLogger)
	lifecycleSvc := lifecycleService.NewService(
		initiativeRepo, reviewRepo, sched, notificationSvc,
		lifecycleService.Config{
			ReviewPeriod:       cfg.Initiative.ReviewPeriod,
			MinReviewsRequired: cfg.Initiative.MinReviewsRequired,
		},
		appLogger,
	)

	runner := scheduler.NewRunner(taskRepo, cfg.Scheduler.ToRunnerConfig(), appLogger, appMetrics)
	lifecycleSvc.RegisterHandlers(runner)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Health and metrics endpoint for the worker process.
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	healthSrv := &http.Server{Addr: ":8081", Handler: mux}
	go func() {
		if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("health server failed")
		}
	}()

	go runner.Start(ctx)
	appLogger.Info("worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down worker")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := healthSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server shutdown failed")
	}
}
