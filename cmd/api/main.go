package main

import (
	"context"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/oncall-service/internal/api/http"
	"github.com/spec-kit/oncall-service/internal/api/http/handlers"
	"github.com/spec-kit/oncall-service/internal/auth"
	"github.com/spec-kit/oncall-service/internal/config"
	"github.com/spec-kit/oncall-service/internal/domain"
	"github.com/spec-kit/oncall-service/internal/events"
	"github.com/spec-kit/oncall-service/internal/lock"
	"github.com/spec-kit/oncall-service/internal/observability"
	"github.com/spec-kit/oncall-service/internal/persistence"
	"github.com/spec-kit/oncall-service/internal/repository"
	"github.com/spec-kit/oncall-service/internal/repository/memory"
	"github.com/spec-kit/oncall-service/internal/scheduler"
	"github.com/spec-kit/oncall-service/internal/service"
	"github.com/spec-kit/oncall-service/internal/worker"
)

type repositories struct {
	people         repository.PersonRepository
	unavailability repository.UnavailabilityRepository
	workload       repository.WorkloadRepository
	shifts         repository.ShiftRepository
	notifications  repository.NotificationRepository
}

func newRepositories(pool *pgxpool.Pool) repositories {
	if pool == nil {
		store := memory.NewStore()
		return repositories{
			people:         store.People(),
			unavailability: store.Unavailability(),
			workload:       store.Workload(),
			shifts:         store.Shifts(),
			notifications:  store.Notifications(),
		}
	}
	return repositories{
		people:         repository.NewPersonRepository(pool),
		unavailability: repository.NewUnavailabilityRepository(pool),
		workload:       repository.NewWorkloadRepository(pool),
		shifts:         repository.NewShiftRepository(pool),
		notifications:  repository.NewNotificationRepository(pool),
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Name)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics("oncall")
	deps := map[string]handlers.Pinger{}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pool := pg.PoolHandle(); pool != nil {
		deps["postgres"] = pg
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pool, cfg.Postgres.MigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
	}
	repos := newRepositories(pg.PoolHandle())

	var locker lock.PersonLocker = lock.NewLocalLocker()
	if cfg.Scheduler.LockBackend == "redis" {
		redis := persistence.NewRedis(ctx, cfg.Redis, logger)
		defer redis.Close()
		deps["redis"] = redis
		locker = lock.NewRedisLocker(redis.Client, cfg.Scheduler.LockTTL(), logger)
	}

	template := domain.ShiftTemplate{Start: cfg.Scheduler.ShiftStart, End: cfg.Scheduler.ShiftEnd}
	if err := template.Validate(); err != nil {
		logger.Fatal("invalid shift template", zap.Error(err))
	}
	channel := domain.NotificationChannel(cfg.Scheduler.NotificationChannel)
	if !channel.Valid() {
		logger.Fatal("invalid notification channel", zap.String("channel", cfg.Scheduler.NotificationChannel))
	}
	var shuffler scheduler.Shuffler
	if cfg.Scheduler.RandomSeed != 0 {
		shuffler = rand.New(rand.NewSource(cfg.Scheduler.RandomSeed))
	}

	dispatcher := events.NewInMemoryDispatcher()

	notificationService := service.NewNotificationService(service.NotificationDependencies{
		Repo:       repos.notifications,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
	})
	notificationService.RegisterHandlers()

	engine := scheduler.NewEngine(scheduler.Dependencies{
		Oracle:   repos.unavailability,
		Ledger:   repos.workload,
		Sink:     repos.shifts,
		Emitter:  notificationService,
		Locker:   locker,
		Rand:     shuffler,
		Template: template,
		Channel:  channel,
		Logger:   logger.Named("scheduler"),
		Metrics:  metrics,
	})

	rotationService := service.NewRotationService(service.RotationDependencies{
		PersonRepo:      repos.people,
		ShiftRepo:       repos.shifts,
		Engine:          engine,
		Notifier:        notificationService,
		Dispatcher:      dispatcher,
		Logger:          logger,
		SeedFromHistory: cfg.Scheduler.SeedRestFromHistory,
		MaxRangeDays:    cfg.Scheduler.MaxRangeDays,
	})
	authService := service.NewAuthService(cfg.Auth, repos.people)
	if created, err := authService.EnsureAdmin(ctx, cfg.Auth.BootstrapAdminUsername, cfg.Auth.BootstrapAdminPassword); err != nil {
		logger.Fatal("failed to bootstrap admin", zap.Error(err))
	} else if created {
		logger.Info("bootstrap admin created", zap.String("username", cfg.Auth.BootstrapAdminUsername))
	}

	if cfg.Worker.Enabled {
		deliveryWorker := worker.NewDeliveryWorker(worker.DeliveryDependencies{
			Notifications: repos.notifications,
			People:        repos.people,
			Senders:       worker.NewSenders(cfg.Notification, logger),
			Interval:      cfg.Worker.PollInterval(),
			BatchSize:     cfg.Worker.BatchSize,
			Metrics:       metrics,
			Logger:        logger.Named("delivery"),
		})
		deliveryWorker.Subscribe(dispatcher)
		go deliveryWorker.Run(ctx)
	}

	app := httptransport.NewApp(cfg.App.Name, logger, metrics, cfg.App.RequestTimeout(), httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps),
		Auth:           handlers.NewAuthHandler(authService),
		Shifts:         handlers.NewShiftsHandler(rotationService),
		Unavailability: handlers.NewUnavailabilityHandler(service.NewUnavailabilityService(repos.unavailability)),
		Statistics:     handlers.NewStatisticsHandler(service.NewStatisticsService(repos.workload, repos.people)),
		Notifications:  handlers.NewNotificationsHandler(notificationService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), repos.people),
		Metrics:        metrics,
	})

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
