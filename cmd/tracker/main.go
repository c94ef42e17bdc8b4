package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"log/slog"

	"github.com/central-university-dev/go-reward-tracker/internal/api/handlers"
	"github.com/central-university-dev/go-reward-tracker/internal/common/metrics"
	"github.com/central-university-dev/go-reward-tracker/internal/common/middleware"
	"github.com/central-university-dev/go-reward-tracker/internal/config"
	"github.com/central-university-dev/go-reward-tracker/internal/database"
	"github.com/central-university-dev/go-reward-tracker/internal/extractor"
	"github.com/central-university-dev/go-reward-tracker/internal/extractor/sites"
	"github.com/central-university-dev/go-reward-tracker/internal/fingerprint"
	"github.com/central-university-dev/go-reward-tracker/internal/monitor"
	"github.com/central-university-dev/go-reward-tracker/internal/tracker/cache"
	"github.com/central-university-dev/go-reward-tracker/internal/tracker/clients"
	"github.com/central-university-dev/go-reward-tracker/internal/tracker/notify"
	"github.com/central-university-dev/go-reward-tracker/internal/tracker/repository"
	"github.com/central-university-dev/go-reward-tracker/internal/tracker/scheduler"
	"github.com/central-university-dev/go-reward-tracker/internal/tracker/service"
	"github.com/central-university-dev/go-reward-tracker/pkg"
	"github.com/central-university-dev/go-reward-tracker/pkg/txs"
)

type Scheduler interface {
	Start()
	Stop()
}

func gracefulShutdown(
	server *http.Server,
	sch Scheduler,
	cancel context.CancelFunc,
	stopCh <-chan struct{},
	appLogger *slog.Logger,
) {
	<-stopCh
	appLogger.Info("Получен сигнал завершения")

	sch.Stop()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Ошибка при остановке HTTP сервера",
			"error", err,
		)
	}

	appLogger.Info("Сервер успешно остановлен")
}

func startHTTPServer(server *http.Server, port int, stopCh chan<- struct{}, appLogger *slog.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		appLogger.Info("Получен системный сигнал",
			"signal", sig.String(),
		)
		close(stopCh)
	}()

	go func() {
		appLogger.Info("Запуск HTTP сервера трекера",
			"port", port,
		)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Ошибка при запуске HTTP сервера",
				"error", err,
			)
			close(stopCh)
		}
	}()
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка запуска сервиса: %v\n", err)
		os.Exit(1)
	}
}

//nolint:funlen // Длина функции обусловлена необходимостью последовательной инициализации всех компонентов.
func run() error {
	appLogger := pkg.NewLogger(os.Stdout)

	cfg := config.LoadConfig()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.NewPostgresDB(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Error("Ошибка при подключении к базе данных",
			"error", err,
		)

		return fmt.Errorf("ошибка подключения к базе данных: %w", err)
	}

	defer db.Close()

	if err := db.RunMigrations("migrations"); err != nil {
		appLogger.Error("Ошибка при применении миграций",
			"error", err,
		)

		return err
	}

	txManager := txs.NewTxManager(db.Pool, appLogger)

	repoFactory := repository.NewFactory(db, txManager, cfg, appLogger)

	fingerprintRepo, err := repoFactory.CreateFingerprintRepository()
	if err != nil {
		appLogger.Error("Ошибка при создании репозитория отпечатков",
			"error", err,
		)

		return err
	}

	monitoringRepo, err := repoFactory.CreateMonitoringRepository()
	if err != nil {
		appLogger.Error("Ошибка при создании репозитория мониторинга",
			"error", err,
		)

		return err
	}

	alertRepo, err := repoFactory.CreateAlertRepository()
	if err != nil {
		appLogger.Error("Ошибка при создании репозитория алертов",
			"error", err,
		)

		return err
	}

	var engineRepo fingerprint.Repository = fingerprintRepo

	cachedRepo, err := cache.NewCachedFingerprintRepository(
		ctx, fingerprintRepo, cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB, cfg.RedisCacheTTL, appLogger,
	)
	if err != nil {
		appLogger.Error("Ошибка при подключении к Redis для кэша отпечатков",
			"error", err,
		)

		appLogger.Warn("Продолжаем без кэша отпечатков")
	} else {
		engineRepo = cachedRepo

		defer func() {
			_ = cachedRepo.Close()
		}()
	}

	engine := fingerprint.NewEngine(engineRepo, appLogger)

	drift := monitor.NewDriftDetector(cfg.DriftHeadingThreshold, cfg.DriftSizeThreshold, cfg.DriftLinkThreshold)

	alertNotifier, err := notify.NewNotifierFactory(cfg, appLogger).CreateNotifier()
	if err != nil {
		appLogger.Warn("Транспорт алертов недоступен, алерты будут только сохраняться",
			"error", err,
		)
	}

	alertManager := monitor.NewAlertManager(alertRepo, alertNotifier, cfg, appLogger)
	healthTracker := monitor.NewHealthTracker(monitoringRepo, alertManager, drift, cfg, appLogger)

	registry := extractor.NewRegistry(appLogger)
	registry.Register(sites.NewSpinRewardsStrategy())
	registry.Register(sites.NewBonusArenaStrategy())
	registry.Register(sites.NewCoinBlitzStrategy())
	registry.Register(sites.NewPromoHuntStrategy())
	registry.Register(sites.NewRewardsDailyStrategy())

	if cfg.OpenAIAPIKey != "" {
		llmClient := clients.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, appLogger)
		registry.RegisterFallback(extractor.NewLLMFallbackStrategy(llmClient, cfg.LLMConfidenceThreshold, appLogger))
	} else {
		appLogger.Warn("Ключ OpenAI не задан, резервная стратегия извлечения отключена")
	}

	fetcher := clients.NewPageFetcher(cfg, appLogger)
	publisher := clients.NewWordPressClient(cfg, appLogger)

	trackerService := service.NewTrackerService(
		fetcher,
		registry,
		engine,
		healthTracker,
		publisher,
		cfg,
		appLogger,
	)

	var sch Scheduler

	if cfg.UseParallelScheduler {
		appLogger.Info("Использование параллельного планировщика",
			"workers", cfg.SchedulerWorkers,
		)

		sch = scheduler.NewParallelScheduler(
			trackerService,
			cfg,
			cfg.SchedulerCheckInterval,
			cfg.SchedulerWorkers,
			appLogger,
		)
	} else {
		sch = scheduler.NewScheduler(trackerService, cfg.SchedulerCheckInterval, appLogger)
	}

	sch.Start()

	metricsServer := metrics.NewMetricsServer(cfg.TrackerMetricsPort, appLogger)

	go func() {
		if err := metricsServer.Start(ctx); err != nil {
			appLogger.Error("Ошибка сервера метрик",
				"error", err,
			)
		}
	}()

	healthHandler := handlers.NewHealthHandler(healthTracker, appLogger)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/sources/health", healthHandler.GetSourcesHealth)

	rateLimiter := middleware.NewRateLimiterMiddleware(
		ctx,
		cfg.RateLimitRequests,
		cfg.RateLimitWindow,
		appLogger,
	)

	metricsMiddleware := middleware.NewMetricsMiddleware("tracker")

	serverWithMiddleware := rateLimiter.Middleware(metricsMiddleware.Middleware(mux))

	httpServer := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.TrackerServerPort),
		Handler:           serverWithMiddleware,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopCh := make(chan struct{})

	startHTTPServer(httpServer, cfg.TrackerServerPort, stopCh, appLogger)

	gracefulShutdown(httpServer, sch, cancel, stopCh, appLogger)

	return nil
}
