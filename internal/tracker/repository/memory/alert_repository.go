package memory

import (
	"context"
	"sync"
	"time"

	"github.com/central-university-dev/go-reward-tracker/internal/domain/errors"
	"github.com/central-university-dev/go-reward-tracker/internal/domain/models"
)

type AlertRepository struct {
	alerts []*models.Alert
	nextID int64
	mu     sync.RWMutex
}

func NewAlertRepository() *AlertRepository {
	return &AlertRepository{
		nextID: 1,
	}
}

func (r *AlertRepository) Append(ctx context.Context, alert *models.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *alert
	stored.ID = r.nextID
	r.nextID++

	r.alerts = append(r.alerts, &stored)
	alert.ID = stored.ID

	return nil
}

func (r *AlertRepository) ExistsRecent(ctx context.Context, sourceURL string, alertType models.AlertType, since time.Time) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, alert := range r.alerts {
		if alert.SourceURL == sourceURL && alert.Type == alertType && !alert.Timestamp.Before(since) {
			return true, nil
		}
	}

	return false, nil
}

func (r *AlertRepository) FindUnnotified(ctx context.Context, limit int) ([]*models.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.Alert, 0)

	for _, alert := range r.alerts {
		if alert.Notified {
			continue
		}

		copied := *alert
		result = append(result, &copied)

		if limit > 0 && len(result) >= limit {
			break
		}
	}

	return result, nil
}

func (r *AlertRepository) MarkNotified(ctx context.Context, alertID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, alert := range r.alerts {
		if alert.ID == alertID {
			alert.Notified = true
			return nil
		}
	}

	return &errors.ErrAlertNotFound{AlertID: alertID}
}

// All возвращает все накопленные алерты в порядке создания.
func (r *AlertRepository) All() []*models.Alert {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.Alert, 0, len(r.alerts))

	for _, alert := range r.alerts {
		copied := *alert
		result = append(result, &copied)
	}

	return result
}
