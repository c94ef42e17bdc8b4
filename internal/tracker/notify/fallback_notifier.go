package notify

import (
	"context"
	"log/slog"

	"go.uber.org/multierr"

	"github.com/central-university-dev/go-reward-tracker/internal/domain/models"
)

type FallbackAlertNotifier struct {
	primary   AlertNotifier
	secondary AlertNotifier
	logger    *slog.Logger
}

func NewFallbackAlertNotifier(primary, secondary AlertNotifier, logger *slog.Logger) *FallbackAlertNotifier {
	return &FallbackAlertNotifier{
		primary:   primary,
		secondary: secondary,
		logger:    logger,
	}
}

func (n *FallbackAlertNotifier) SendAlert(ctx context.Context, alert *models.Alert) error {
	err := n.primary.SendAlert(ctx, alert)
	if err == nil {
		return nil
	}

	n.logger.Warn("Основной транспорт недоступен, переключаемся на резервный",
		"primaryError", err,
		"alertID", alert.ID,
	)

	fallbackErr := n.secondary.SendAlert(ctx, alert)
	if fallbackErr != nil {
		return multierr.Append(err, fallbackErr)
	}

	n.logger.Info("Алерт успешно отправлен через резервный транспорт",
		"alertID", alert.ID,
	)

	return nil
}
