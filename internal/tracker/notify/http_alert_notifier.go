package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/central-university-dev/go-reward-tracker/internal/common/httputil"
	"github.com/central-university-dev/go-reward-tracker/internal/common/metrics"
	"github.com/central-university-dev/go-reward-tracker/internal/config"
	"github.com/central-university-dev/go-reward-tracker/internal/domain/models"
)

// HTTPAlertNotifier доставляет алерты на вебхук оператора.
type HTTPAlertNotifier struct {
	client     *resty.Client
	webhookURL string
	logger     *slog.Logger
}

func NewHTTPAlertNotifier(webhookURL string, cfg *config.Config, logger *slog.Logger) (*HTTPAlertNotifier, error) {
	if webhookURL == "" {
		return nil, fmt.Errorf("не задан URL вебхука для алертов")
	}

	resilientClient := httputil.CreateResilientHTTPClient(cfg, logger, "alert_webhook")

	return &HTTPAlertNotifier{
		client:     resilientClient,
		webhookURL: webhookURL,
		logger:     logger,
	}, nil
}

func (n *HTTPAlertNotifier) SendAlert(ctx context.Context, alert *models.Alert) error {
	n.logger.Info("Отправка алерта на вебхук",
		"alertID", alert.ID,
		"type", alert.Type,
		"source", alert.SourceURL,
	)

	details, err := models.MarshalAlertDetails(alert.Details)
	if err != nil {
		return fmt.Errorf("ошибка при сериализации деталей алерта: %w", err)
	}

	message := AlertMessage{
		ID:        alert.ID,
		Type:      alert.Type,
		SourceURL: alert.SourceURL,
		Severity:  alert.Severity,
		Message:   alert.Message,
		Timestamp: alert.Timestamp,
		Details:   json.RawMessage(details),
	}

	resp, err := n.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(message).
		Post(n.webhookURL)
	if err != nil {
		n.logger.Error("Ошибка при отправке алерта на вебхук",
			"error", err,
		)

		metrics.RecordAlertDelivered("http", "error")

		return fmt.Errorf("ошибка при отправке алерта на вебхук: %w", err)
	}

	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusAccepted {
		metrics.RecordAlertDelivered("http", "error")

		return fmt.Errorf("вебхук вернул статус: %d", resp.StatusCode())
	}

	metrics.RecordAlertDelivered("http", "success")

	n.logger.Info("Алерт успешно отправлен")

	return nil
}
