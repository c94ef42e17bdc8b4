package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/central-university-dev/go-reward-tracker/internal/domain/models"
	"github.com/central-university-dev/go-reward-tracker/internal/tracker/notify"
)

type AlertHandler interface {
	HandleAlert(ctx context.Context, alert *models.Alert) error
}

type Consumer struct {
	reader       *kafka.Reader
	dlqWriter    *kafka.Writer
	alertHandler AlertHandler
	logger       *slog.Logger
	alertTopic   string
	dlqTopic     string
}

func NewConsumer(
	brokers []string,
	groupID string,
	alertTopic string,
	dlqTopic string,
	alertHandler AlertHandler,
	logger *slog.Logger,
) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        groupID,
		Topic:          alertTopic,
		MinBytes:       10e3,
		MaxBytes:       10e6,
		CommitInterval: 1 * time.Second,
		Logger:         kafka.LoggerFunc(logger.Debug),
		ErrorLogger:    kafka.LoggerFunc(logger.Error),
	})

	dlqWriter := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        dlqTopic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		Logger:       kafka.LoggerFunc(logger.Debug),
		ErrorLogger:  kafka.LoggerFunc(logger.Error),
	}

	return &Consumer{
		reader:       reader,
		dlqWriter:    dlqWriter,
		alertHandler: alertHandler,
		logger:       logger,
		alertTopic:   alertTopic,
		dlqTopic:     dlqTopic,
	}
}

func (c *Consumer) Start(ctx context.Context) {
	c.logger.Info("Запуск потребления алертов из Kafka",
		"topic", c.alertTopic,
	)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.logger.Info("Остановка потребления алертов из Kafka")
				return
			default:
				msg, err := c.reader.ReadMessage(ctx)
				if err != nil {
					c.logger.Error("Ошибка при чтении сообщения из Kafka",
						"error", err,
					)

					continue
				}

				c.logger.Info("Получено сообщение из Kafka",
					"topic", msg.Topic,
					"partition", msg.Partition,
					"offset", msg.Offset,
				)

				if err := c.processMessage(ctx, &msg); err != nil {
					c.logger.Error("Ошибка при обработке сообщения",
						"error", err,
					)
				}
			}
		}
	}()
}

func (c *Consumer) processMessage(ctx context.Context, msg *kafka.Message) error {
	var alertMessage notify.AlertMessage

	if err := json.Unmarshal(msg.Value, &alertMessage); err != nil {
		c.logger.Error("Ошибка при десериализации сообщения",
			"error", err,
		)

		if sendErr := c.sendToDLQ(ctx, msg.Value, fmt.Sprintf("Ошибка десериализации: %s", err)); sendErr != nil {
			c.logger.Error("Ошибка при отправке сообщения в DLQ",
				"error", sendErr,
			)
		}

		return fmt.Errorf("ошибка при десериализации сообщения: %w", err)
	}

	if alertMessage.SourceURL == "" || alertMessage.Type == "" {
		errMsg := "в сообщении отсутствуют обязательные поля sourceUrl или alertType"
		c.logger.Error(errMsg)

		if sendErr := c.sendToDLQ(ctx, msg.Value, errMsg); sendErr != nil {
			c.logger.Error("Ошибка при отправке сообщения в DLQ",
				"error", sendErr,
			)
		}

		return fmt.Errorf("%s", errMsg)
	}

	details, err := models.UnmarshalAlertDetails(alertMessage.Type, alertMessage.Details)
	if err != nil {
		c.logger.Warn("Не удалось разобрать детали алерта, доставка продолжается без них",
			"alertID", alertMessage.ID,
			"error", err,
		)
	}

	alert := &models.Alert{
		ID:        alertMessage.ID,
		Type:      alertMessage.Type,
		SourceURL: alertMessage.SourceURL,
		Severity:  alertMessage.Severity,
		Message:   alertMessage.Message,
		Timestamp: alertMessage.Timestamp,
		Details:   details,
	}

	if err := c.alertHandler.HandleAlert(ctx, alert); err != nil {
		c.logger.Error("Ошибка при обработке алерта",
			"error", err,
		)

		return fmt.Errorf("ошибка при обработке алерта: %w", err)
	}

	c.logger.Info("Сообщение успешно обработано")

	return nil
}

func (c *Consumer) sendToDLQ(ctx context.Context, message []byte, errMsg string) error {
	c.logger.Info("Отправка сообщения в DLQ",
		"error", errMsg,
		"topic", c.dlqTopic,
	)

	err := c.dlqWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte("error"),
		Value: message,
		Headers: []kafka.Header{
			{Key: "error", Value: []byte(errMsg)},
			{Key: "timestamp", Value: []byte(time.Now().Format(time.RFC3339))},
		},
		Time: time.Now(),
	})

	if err != nil {
		c.logger.Error("Ошибка при отправке сообщения в DLQ",
			"error", err,
		)

		return fmt.Errorf("ошибка при отправке сообщения в DLQ: %w", err)
	}

	c.logger.Info("Сообщение успешно отправлено в DLQ")

	return nil
}

func (c *Consumer) Close() error {
	if err := c.reader.Close(); err != nil {
		return err
	}

	return c.dlqWriter.Close()
}
