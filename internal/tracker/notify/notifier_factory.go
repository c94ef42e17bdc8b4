package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/central-university-dev/go-reward-tracker/internal/config"
	"github.com/central-university-dev/go-reward-tracker/internal/domain/models"
)

type NotifierType string

const (
	HTTPNotifier  NotifierType = "HTTP"
	KafkaNotifier NotifierType = "KAFKA"
)

type NotifierFactory struct {
	config *config.Config
	logger *slog.Logger
}

func NewNotifierFactory(config *config.Config, logger *slog.Logger) *NotifierFactory {
	return &NotifierFactory{
		config: config,
		logger: logger,
	}
}

func (f *NotifierFactory) CreateNotifier() (AlertNotifier, error) {
	primary, err := f.createByType(f.config.AlertTransport)
	if err != nil {
		return nil, err
	}

	if !f.config.FallbackEnabled {
		return primary, nil
	}

	secondary, err := f.createByType(f.config.FallbackTransport)
	if err != nil {
		f.logger.Warn("Резервный транспорт недоступен, алерты пойдут только через основной",
			"error", err,
		)

		return primary, nil
	}

	return NewFallbackAlertNotifier(primary, secondary, f.logger), nil
}

func (f *NotifierFactory) createByType(transport string) (AlertNotifier, error) {
	notifierType := NotifierType(strings.ToUpper(transport))

	f.logger.Info("Создание нотификатора алертов",
		"type", notifierType,
	)

	switch notifierType {
	case HTTPNotifier:
		return NewHTTPAlertNotifier(f.config.AlertWebhookURL, f.config, f.logger)
	case KafkaNotifier:
		brokers := strings.Split(f.config.KafkaBrokers, ",")
		return NewKafkaAlertNotifier(brokers, f.config.TopicAlerts, f.config.TopicDeadLetterQueue, f.logger), nil
	default:
		return nil, fmt.Errorf("неизвестный тип нотификатора: %s", notifierType)
	}
}

type AlertNotifier interface {
	SendAlert(ctx context.Context, alert *models.Alert) error
}
