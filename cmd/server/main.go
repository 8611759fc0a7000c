package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/campushub/backend/api/handler"
	"github.com/campushub/backend/internal/config"
	"github.com/campushub/backend/internal/infrastructure/genai"
	googleInfra "github.com/campushub/backend/internal/infrastructure/google"
	"github.com/campushub/backend/internal/infrastructure/journal"
	"github.com/campushub/backend/internal/infrastructure/monitor"
	pgInfra "github.com/campushub/backend/internal/infrastructure/postgres"
	redisInfra "github.com/campushub/backend/internal/infrastructure/redis"
	"github.com/campushub/backend/internal/middleware"
	"github.com/campushub/backend/internal/router"
	"github.com/campushub/backend/internal/services"
	"github.com/campushub/backend/internal/services/lifecycle"
	"github.com/campushub/backend/pkg/httpcontext"
	"github.com/campushub/backend/pkg/logger"
	"github.com/campushub/backend/repository/gcal"
	"github.com/campushub/backend/repository/metafile"
	"github.com/campushub/backend/repository/postgres"
	redisRepo "github.com/campushub/backend/repository/redis"
	authUC "github.com/campushub/backend/usecase/auth"
	deadlineUC "github.com/campushub/backend/usecase/deadline"
	"github.com/campushub/backend/usecase/estimate"
	"github.com/campushub/backend/usecase/mirror"
	"github.com/campushub/backend/usecase/studyplan"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})

	redisClient, err := redisInfra.NewClient(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	journalStore, err := journal.Open(cfg.Sync.JournalPath, "runs")
	if err != nil {
		zapLogger.Fatal("failed to open run journal", zap.Error(err))
	}
	manager.Register("journal", func(ctx context.Context) error {
		return journalStore.Close()
	})

	mon := monitor.New(pool, redisClient, journalStore, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	calendarService, err := googleInfra.NewCalendarService(appCtx, cfg.Google, zapLogger)
	if err != nil {
		zapLogger.Fatal("google calendar connection failed", zap.Error(err))
	}

	timezone, err := cfg.Google.Location()
	if err != nil {
		zapLogger.Fatal("invalid calendar timezone", zap.String("timezone", cfg.Google.Timezone), zap.Error(err))
	}

	userRepo := postgres.NewUserRepository(pool)
	deadlineRepo := postgres.NewDeadlineRepository(pool)
	courseRepo := postgres.NewCourseRepository(pool)
	sessionRepo := redisRepo.NewSessionRepository(redisClient, cfg.JWT.SessionTTL)
	estimateCache := redisRepo.NewEstimateCache(redisClient, cfg.Planner.EstimateCacheTTL)
	metaStore := metafile.NewStore(cfg.Sync.DataDir, zapLogger)
	eventStore := gcal.NewEventStore(calendarService, cfg.Google.Timezone, zapLogger)

	estimator := genai.NewClient(cfg.Planner.EstimatorEndpoint, cfg.Planner.EstimatorAPIKey, cfg.Planner.EstimatorTimeout, zapLogger)
	estimateService := estimate.New(estimator, estimateCache, zapLogger)

	mirrorSyncer := mirror.New(deadlineRepo, userRepo, eventStore, metaStore, zapLogger, mirror.Config{
		EventDuration:   cfg.Google.EventDuration,
		ReminderMinutes: cfg.Google.ReminderMinutes,
		Timezone:        timezone,
	})

	slotFinder := studyplan.NewSlotFinder(eventStore, timezone, zapLogger)
	planner := studyplan.New(
		deadlineRepo,
		userRepo,
		eventStore,
		metaStore,
		courseRepo,
		estimateService,
		slotFinder,
		zapLogger,
		studyplan.Config{
			LookaheadDays: cfg.Planner.LookaheadDays,
			Timezone:      timezone,
		},
	)

	coordinator := services.NewSyncCoordinator(
		mirrorSyncer,
		planner,
		journalStore,
		zapLogger,
		cfg.Sync.PassTimeout,
		cfg.Sync.ChainStudyPlan,
	)

	scheduler := services.NewSyncScheduler(coordinator, userRepo, journalStore, zapLogger, services.SchedulerConfig{
		MirrorInterval:   cfg.Sync.MirrorInterval,
		StudyPlanSpec:    cfg.Sync.StudyPlanSpec,
		JournalRetention: cfg.Sync.JournalRetention,
		PassTimeout:      cfg.Sync.PassTimeout,
	})
	scheduler.Start()
	manager.Register("sync_scheduler", func(ctx context.Context) error {
		scheduler.Stop(ctx)
		return nil
	})

	authUseCase := authUC.New(userRepo, sessionRepo, cfg.JWT.Secret, cfg.JWT.Issuer, zapLogger)
	deadlineUseCase := deadlineUC.New(deadlineRepo, courseRepo, coordinator, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:     apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger, cfg.JWT.SessionTTL),
		Deadline: apiHandler.NewDeadlineHandler(deadlineUseCase, ctxAdapter, zapLogger),
		Sync:     apiHandler.NewSyncHandler(coordinator, journalStore, ctxAdapter, zapLogger),
		Health:   apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
