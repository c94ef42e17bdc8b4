package repository

import (
	"context"
	"time"

	"github.com/central-university-dev/go-reward-tracker/internal/domain/models"
)

type FingerprintRepository interface {
	GetSet(ctx context.Context, key models.FingerprintKey) (map[string]struct{}, error)
	AddToSet(ctx context.Context, key models.FingerprintKey, fingerprints []string) error

	// DeleteSet — административное удаление; набор отпечатков сам по
	// себе только растёт.
	DeleteSet(ctx context.Context, key models.FingerprintKey) error
}

type MonitoringRepository interface {
	Get(ctx context.Context, sourceURL string) (*models.SourceMonitoring, error)
	Save(ctx context.Context, monitoring *models.SourceMonitoring) error
	GetAll(ctx context.Context) ([]*models.SourceMonitoring, error)
}

type AlertRepository interface {
	Append(ctx context.Context, alert *models.Alert) error
	ExistsRecent(ctx context.Context, sourceURL string, alertType models.AlertType, since time.Time) (bool, error)
	FindUnnotified(ctx context.Context, limit int) ([]*models.Alert, error)
	MarkNotified(ctx context.Context, alertID int64) error
}
