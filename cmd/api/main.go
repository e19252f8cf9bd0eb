package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/khadra/initiative-api/config"
	"github.com/khadra/initiative-api/internal/email"
	authHandler "github.com/khadra/initiative-api/internal/handler/auth"
	"github.com/khadra/initiative-api/internal/handler/health"
	initiativeHandler "github.com/khadra/initiative-api/internal/handler/initiative"
	notificationHandler "github.com/khadra/initiative-api/internal/handler/notification"
	reviewHandler "github.com/khadra/initiative-api/internal/handler/review"
	"github.com/khadra/initiative-api/internal/middleware"
	"github.com/khadra/initiative-api/internal/repository/postgres"
	"github.com/khadra/initiative-api/internal/router"
	authService "github.com/khadra/initiative-api/internal/service/auth"
	geoService "github.com/khadra/initiative-api/internal/service/geo"
	initiativeService "github.com/khadra/initiative-api/internal/service/initiative"
	lifecycleService "github.com/khadra/initiative-api/internal/service/lifecycle"
	notificationService "github.com/khadra/initiative-api/internal/service/notification"
	reviewService "github.com/khadra/initiative-api/internal/service/review"
	"github.com/khadra/initiative-api/pkg/auth"
	"github.com/khadra/initiative-api/pkg/logger"
	redisBroker "github.com/khadra/initiative-api/pkg/messaging/redis"
	"github.com/khadra/initiative-api/pkg/metrics"
	"github.com/khadra/initiative-api/pkg/scheduler"
	"github.com/khadra/initiative-api/pkg/security"
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

	appMetrics := metrics.New("initiative_api")
	appMetrics.MustRegister(prometheus.DefaultRegisterer)

	base := postgres.NewBaseRepository(db)
	userRepo := postgres.NewUserRepository(base)
	cityRepo := postgres.NewCityRepository(base)
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

	geoSvc := geoService.NewService(cityRepo)
	initiativeSvc := initiativeService.NewService(
		initiativeRepo, userRepo, geoSvc, lifecycleSvc, notificationSvc,
		initiativeService.Config{MinLeadTime: cfg.Initiative.MinLeadTime},
	)
	reviewSvc := reviewService.NewService(reviewRepo, initiativeRepo, userRepo)

	jwtSvc := auth.NewJWTService(cfg.JWT)
	hasher := security.NewBcryptHasher(0)
	authSvc := authService.NewService(userRepo, hasher, jwtSvc)

	authMiddleware := middleware.NewAuthMiddleware(jwtSvc)

	r := router.NewRouter(
		authMiddleware,
		authHandler.NewHandler(authSvc),
		initiativeHandler.NewHandler(initiativeSvc, authMiddleware),
		reviewHandler.NewHandler(reviewSvc, authMiddleware),
		notificationHandler.NewHandler(notificationSvc),
		health.NewHandler(db),
		router.Config{
			RateLimitEnabled: cfg.RateLimit.Enabled,
			RateLimit:        rate.Limit(cfg.RateLimit.RequestsPerSecond),
			RateBurst:        cfg.RateLimit.Burst,
		},
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		appLogger.Info("starting API server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
}
