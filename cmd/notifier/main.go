package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/central-university-dev/go-reward-tracker/internal/common/metrics"
	"github.com/central-university-dev/go-reward-tracker/internal/config"
	"github.com/central-university-dev/go-reward-tracker/internal/database"
	"github.com/central-university-dev/go-reward-tracker/internal/notifier/clients"
	notifierkafka "github.com/central-university-dev/go-reward-tracker/internal/notifier/kafka"
	"github.com/central-university-dev/go-reward-tracker/internal/notifier/service"
	"github.com/central-university-dev/go-reward-tracker/internal/tracker/repository"
	"github.com/central-university-dev/go-reward-tracker/pkg"
	"github.com/central-university-dev/go-reward-tracker/pkg/txs"
)

const (
	pendingSweepInterval = 1 * time.Minute
	pendingSweepLimit    = 50
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка запуска сервиса: %v\n", err)
		os.Exit(1)
	}
}

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

	txManager := txs.NewTxManager(db.Pool, appLogger)

	repoFactory := repository.NewFactory(db, txManager, cfg, appLogger)

	alertRepo, err := repoFactory.CreateAlertRepository()
	if err != nil {
		appLogger.Error("Ошибка при создании репозитория алертов",
			"error", err,
		)

		return err
	}

	telegramClient := clients.NewTelegramClient(cfg.TelegramBotToken, cfg.TelegramChatID, appLogger)

	notifierService := service.NewNotifierService(telegramClient, alertRepo, appLogger)

	brokers := strings.Split(cfg.KafkaBrokers, ",")

	consumer := notifierkafka.NewConsumer(
		brokers,
		cfg.KafkaGroupID,
		cfg.TopicAlerts,
		cfg.TopicDeadLetterQueue,
		notifierService,
		appLogger,
	)

	defer func() {
		if err := consumer.Close(); err != nil {
			appLogger.Error("Ошибка при закрытии потребителя Kafka",
				"error", err,
			)
		}
	}()

	consumer.Start(ctx)

	go sweepPending(ctx, notifierService, appLogger)

	metricsServer := metrics.NewMetricsServer(cfg.NotifierMetricsPort, appLogger)

	go func() {
		if err := metricsServer.Start(ctx); err != nil {
			appLogger.Error("Ошибка сервера метрик",
				"error", err,
			)
		}
	}()

	appLogger.Info("Нотификатор запущен")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	appLogger.Info("Получен системный сигнал",
		"signal", sig.String(),
	)

	cancel()

	appLogger.Info("Нотификатор успешно остановлен")

	return nil
}

// sweepPending периодически добирает алерты, не пришедшие через Kafka.
func sweepPending(ctx context.Context, notifierService *service.NotifierService, appLogger *slog.Logger) {
	ticker := time.NewTicker(pendingSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := notifierService.ProcessPending(ctx, pendingSweepLimit); err != nil {
				appLogger.Error("Ошибка при обходе недоставленных алертов",
					"error", err,
				)
			}
		}
	}
}
