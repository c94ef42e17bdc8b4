package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/central-university-dev/go-reward-tracker/internal/common/metrics"
	"github.com/central-university-dev/go-reward-tracker/internal/domain/models"
)

type KafkaAlertNotifier struct {
	producer    *kafka.Writer
	dlqProducer *kafka.Writer
	logger      *slog.Logger
	alertTopic  string
	dlqTopic    string
}

// AlertMessage — сообщение об алерте на проводе. Details сериализуются
// заранее, чтобы потребитель мог разобрать их по alertType.
type AlertMessage struct {
	ID        int64                `json:"id"`
	Type      models.AlertType     `json:"alertType"`
	SourceURL string               `json:"sourceUrl"`
	Severity  models.AlertSeverity `json:"severity"`
	Message   string               `json:"message"`
	Timestamp time.Time            `json:"timestamp"`
	Details   json.RawMessage      `json:"details,omitempty"`
}

func NewKafkaAlertNotifier(brokers []string, alertTopic, dlqTopic string, logger *slog.Logger) *KafkaAlertNotifier {
	producer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        alertTopic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		Logger:       kafka.LoggerFunc(logger.Debug),
		ErrorLogger:  kafka.LoggerFunc(logger.Error),
	}

	dlqProducer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        dlqTopic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		Logger:       kafka.LoggerFunc(logger.Debug),
		ErrorLogger:  kafka.LoggerFunc(logger.Error),
	}

	return &KafkaAlertNotifier{
		producer:    producer,
		dlqProducer: dlqProducer,
		logger:      logger,
		alertTopic:  alertTopic,
		dlqTopic:    dlqTopic,
	}
}

func (n *KafkaAlertNotifier) SendAlert(ctx context.Context, alert *models.Alert) error {
	n.logger.Info("Отправка алерта в Kafka",
		"alertID", alert.ID,
		"type", alert.Type,
		"source", alert.SourceURL,
		"topic", n.alertTopic,
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
		Details:   details,
	}

	value, err := json.Marshal(message)
	if err != nil {
		n.logger.Error("Ошибка при сериализации сообщения",
			"error", err,
		)

		return fmt.Errorf("ошибка при сериализации сообщения: %w", err)
	}

	err = n.producer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(alert.SourceURL),
		Value: value,
		Time:  time.Now(),
	})

	if err != nil {
		n.logger.Error("Ошибка при отправке сообщения в Kafka",
			"error", err,
		)

		metrics.RecordAlertDelivered("kafka", "error")

		return fmt.Errorf("ошибка при отправке сообщения в Kafka: %w", err)
	}

	metrics.RecordAlertDelivered("kafka", "success")

	n.logger.Info("Алерт успешно отправлен в Kafka")

	return nil
}

func (n *KafkaAlertNotifier) SendToDLQ(ctx context.Context, message []byte, errMsg string) error {
	n.logger.Info("Отправка сообщения в DLQ",
		"error", errMsg,
		"topic", n.dlqTopic,
	)

	err := n.dlqProducer.WriteMessages(ctx, kafka.Message{
		Key:   []byte("error"),
		Value: message,
		Headers: []kafka.Header{
			{Key: "error", Value: []byte(errMsg)},
			{Key: "timestamp", Value: []byte(time.Now().Format(time.RFC3339))},
		},
		Time: time.Now(),
	})

	if err != nil {
		n.logger.Error("Ошибка при отправке сообщения в DLQ",
			"error", err,
		)

		return fmt.Errorf("ошибка при отправке сообщения в DLQ: %w", err)
	}

	n.logger.Info("Сообщение успешно отправлено в DLQ")

	return nil
}

func (n *KafkaAlertNotifier) Close() error {
	if err := n.producer.Close(); err != nil {
		return err
	}

	return n.dlqProducer.Close()
}
