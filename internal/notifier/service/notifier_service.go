package service

import (
	"context"
	"log/slog"

	"github.com/central-university-dev/go-reward-tracker/internal/common/metrics"
	"github.com/central-university-dev/go-reward-tracker/internal/domain/models"
	"github.com/central-university-dev/go-reward-tracker/internal/tracker/repository"
)

type AlertSender interface {
	SendAlert(ctx context.Context, alert *models.Alert) error
}

// NotifierService доставляет алерты оператору и помечает их
// доставленными. Недоставленный алерт остаётся в хранилище и будет
// подхвачен фоновым обходом.
type NotifierService struct {
	sender    AlertSender
	alertRepo repository.AlertRepository
	logger    *slog.Logger
}

func NewNotifierService(sender AlertSender, alertRepo repository.AlertRepository, logger *slog.Logger) *NotifierService {
	return &NotifierService{
		sender:    sender,
		alertRepo: alertRepo,
		logger:    logger,
	}
}

func (s *NotifierService) HandleAlert(ctx context.Context, alert *models.Alert) error {
	if err := s.sender.SendAlert(ctx, alert); err != nil {
		metrics.RecordAlertDelivered("telegram", "error")
		return err
	}

	metrics.RecordAlertDelivered("telegram", "success")

	if alert.ID == 0 {
		return nil
	}

	if err := s.alertRepo.MarkNotified(ctx, alert.ID); err != nil {
		s.logger.Warn("Алерт доставлен, но не помечен в хранилище",
			"alertID", alert.ID,
			"error", err,
		)
	}

	return nil
}

// ProcessPending добирает алерты, не доставленные через основной
// транспорт, например накопленные за время простоя нотификатора.
func (s *NotifierService) ProcessPending(ctx context.Context, limit int) error {
	alerts, err := s.alertRepo.FindUnnotified(ctx, limit)
	if err != nil {
		return err
	}

	if len(alerts) == 0 {
		return nil
	}

	s.logger.Info("Обнаружены недоставленные алерты",
		"count", len(alerts),
	)

	for _, alert := range alerts {
		if err := s.HandleAlert(ctx, alert); err != nil {
			s.logger.Error("Ошибка при доставке отложенного алерта",
				"alertID", alert.ID,
				"error", err,
			)
		}
	}

	return nil
}
