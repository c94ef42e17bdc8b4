package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/central-university-dev/go-reward-tracker/internal/common"
	"github.com/central-university-dev/go-reward-tracker/internal/config"
)

type SourceProcessor interface {
	ProcessSource(ctx context.Context, source config.SourceConfig, date string) error
}

// ParallelScheduler раздаёт источники пулу воркеров. Сбой одного
// источника логируется и не мешает остальным.
type ParallelScheduler struct {
	scheduler *gocron.Scheduler
	processor SourceProcessor
	config    *config.Config
	logger    *slog.Logger
	interval  time.Duration
	workers   int
}

func NewParallelScheduler(
	processor SourceProcessor,
	cfg *config.Config,
	interval time.Duration,
	workers int,
	logger *slog.Logger,
) *ParallelScheduler {
	scheduler := gocron.NewScheduler(time.UTC)

	if workers <= 0 {
		workers = 4
	}

	return &ParallelScheduler{
		scheduler: scheduler,
		processor: processor,
		config:    cfg,
		logger:    logger,
		interval:  interval,
		workers:   workers,
	}
}

func (s *ParallelScheduler) Start() {
	s.logger.Info("Запуск параллельного планировщика",
		"interval", s.interval.String(),
		"workers", s.workers,
	)

	_, err := s.scheduler.Every(s.interval).Do(func() {
		ctx := context.Background()
		s.ProcessSources(ctx, common.Today())
	})

	if err != nil {
		s.logger.Error("Ошибка при настройке планировщика",
			"error", err,
		)

		return
	}

	s.scheduler.StartAsync()
}

func (s *ParallelScheduler) Stop() {
	s.logger.Info("Остановка параллельного планировщика")
	s.scheduler.Stop()
}

func (s *ParallelScheduler) ProcessSources(ctx context.Context, date string) {
	sources, err := s.config.Sources()
	if err != nil {
		s.logger.Error("Ошибка при разборе конфигурации источников",
			"error", err,
		)

		return
	}

	if len(sources) == 0 {
		s.logger.Warn("Список источников пуст, обрабатывать нечего")
		return
	}

	s.logger.Info("Начало параллельной обработки источников",
		"date", date,
		"sources", len(sources),
	)

	sourceCh := make(chan config.SourceConfig)
	wg := sync.WaitGroup{}

	for i := 0; i < s.workers; i++ {
		workerID := i + 1

		wg.Add(1)

		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, sourceCh, date, workerID)
		}(workerID)
	}

	for _, source := range sources {
		sourceCh <- source
	}

	close(sourceCh)
	wg.Wait()

	s.logger.Info("Обработка источников завершена",
		"date", date,
		"sources", len(sources),
	)
}

func (s *ParallelScheduler) worker(ctx context.Context, sourceCh <-chan config.SourceConfig, date string, workerID int) {
	for source := range sourceCh {
		s.logger.Debug("Воркер обрабатывает источник",
			"worker", workerID,
			"url", source.URL,
		)

		if err := s.processor.ProcessSource(ctx, source, date); err != nil {
			s.logger.Error("Ошибка при обработке источника",
				"worker", workerID,
				"url", source.URL,
				"error", err,
			)

			continue
		}

		s.logger.Info("Источник обработан",
			"worker", workerID,
			"url", source.URL,
		)
	}

	s.logger.Debug("Воркер завершил работу",
		"worker", workerID,
	)
}
