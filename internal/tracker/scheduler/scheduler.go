package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/central-university-dev/go-reward-tracker/internal/common"
)

type TrackerService interface {
	ProcessAll(ctx context.Context, date string) error
}

// Scheduler запускает последовательную обработку всех источников по
// расписанию. Дата берётся на момент запуска проверки, не на момент
// старта планировщика.
type Scheduler struct {
	scheduler      *gocron.Scheduler
	trackerService TrackerService
	logger         *slog.Logger
	interval       time.Duration
}

func NewScheduler(trackerService TrackerService, interval time.Duration, logger *slog.Logger) *Scheduler {
	scheduler := gocron.NewScheduler(time.UTC)

	return &Scheduler{
		scheduler:      scheduler,
		trackerService: trackerService,
		logger:         logger,
		interval:       interval,
	}
}

func (s *Scheduler) Start() {
	s.logger.Info("Запуск планировщика",
		"interval", s.interval.String(),
	)

	_, err := s.scheduler.Every(s.interval).Do(func() {
		date := common.Today()

		s.logger.Info("Запуск обработки источников",
			"date", date,
		)

		ctx := context.Background()
		if err := s.trackerService.ProcessAll(ctx, date); err != nil {
			s.logger.Error("Ошибка при обработке источников",
				"error", err,
			)
		}
	})

	if err != nil {
		s.logger.Error("Ошибка при настройке планировщика",
			"error", err,
		)

		return
	}

	s.scheduler.StartAsync()
}

func (s *Scheduler) Stop() {
	s.logger.Info("Остановка планировщика")
	s.scheduler.Stop()
}
