package sql

import (
	"context"
	"fmt"
	"time"

	"github.com/central-university-dev/go-reward-tracker/internal/database"
	customerrors "github.com/central-university-dev/go-reward-tracker/internal/domain/errors"
	"github.com/central-university-dev/go-reward-tracker/internal/domain/models"
)

type AlertRepository struct {
	db *database.PostgresDB
}

func NewAlertRepository(db *database.PostgresDB) *AlertRepository {
	return &AlertRepository{db: db}
}

func (r *AlertRepository) Append(ctx context.Context, alert *models.Alert) error {
	details, err := models.MarshalAlertDetails(alert.Details)
	if err != nil {
		return err
	}

	var id int64

	err = r.db.Pool.QueryRow(ctx,
		"INSERT INTO alerts (alert_type, source_url, severity, message, details, notified, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id",
		string(alert.Type), alert.SourceURL, string(alert.Severity), alert.Message, details, alert.Notified, alert.Timestamp).Scan(&id)
	if err != nil {
		return fmt.Errorf("ошибка при сохранении алерта: %w", err)
	}

	alert.ID = id

	return nil
}

func (r *AlertRepository) ExistsRecent(ctx context.Context, sourceURL string, alertType models.AlertType, since time.Time) (bool, error) {
	var exists bool

	err := r.db.Pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM alerts WHERE source_url = $1 AND alert_type = $2 AND created_at >= $3)",
		sourceURL, string(alertType), since).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ошибка при проверке недавних алертов: %w", err)
	}

	return exists, nil
}

func (r *AlertRepository) FindUnnotified(ctx context.Context, limit int) ([]*models.Alert, error) {
	rows, err := r.db.Pool.Query(ctx,
		"SELECT id, alert_type, source_url, severity, message, details, notified, created_at FROM alerts WHERE NOT notified ORDER BY created_at ASC LIMIT $1",
		limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка при чтении неотправленных алертов: %w", err)
	}
	defer rows.Close()

	var alerts []*models.Alert

	for rows.Next() {
		alert := &models.Alert{}

		var (
			alertType string
			severity  string
			details   []byte
		)

		if err := rows.Scan(&alert.ID, &alertType, &alert.SourceURL, &severity, &alert.Message, &details, &alert.Notified, &alert.Timestamp); err != nil {
			return nil, fmt.Errorf("ошибка при сканировании алерта: %w", err)
		}

		alert.Type = models.AlertType(alertType)
		alert.Severity = models.AlertSeverity(severity)

		parsed, err := models.UnmarshalAlertDetails(alert.Type, details)
		if err != nil {
			return nil, err
		}

		alert.Details = parsed

		alerts = append(alerts, alert)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка при чтении неотправленных алертов: %w", err)
	}

	return alerts, nil
}

func (r *AlertRepository) MarkNotified(ctx context.Context, alertID int64) error {
	tag, err := r.db.Pool.Exec(ctx, "UPDATE alerts SET notified = TRUE WHERE id = $1", alertID)
	if err != nil {
		return fmt.Errorf("ошибка при отметке алерта отправленным: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return &customerrors.ErrAlertNotFound{AlertID: alertID}
	}

	return nil
}
