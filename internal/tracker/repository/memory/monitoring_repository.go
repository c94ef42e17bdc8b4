package memory

import (
	"context"
	"sync"

	"github.com/central-university-dev/go-reward-tracker/internal/domain/errors"
	"github.com/central-university-dev/go-reward-tracker/internal/domain/models"
)

type MonitoringRepository struct {
	records map[string]*models.SourceMonitoring
	mu      sync.RWMutex
}

func NewMonitoringRepository() *MonitoringRepository {
	return &MonitoringRepository{
		records: make(map[string]*models.SourceMonitoring),
	}
}

func (r *MonitoringRepository) Get(ctx context.Context, sourceURL string) (*models.SourceMonitoring, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, exists := r.records[sourceURL]
	if !exists {
		return nil, &errors.ErrSourceNotFound{URL: sourceURL}
	}

	return copyMonitoring(record), nil
}

func (r *MonitoringRepository) Save(ctx context.Context, monitoring *models.SourceMonitoring) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[monitoring.SourceURL] = copyMonitoring(monitoring)

	return nil
}

func (r *MonitoringRepository) GetAll(ctx context.Context) ([]*models.SourceMonitoring, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.SourceMonitoring, 0, len(r.records))
	for _, record := range r.records {
		result = append(result, copyMonitoring(record))
	}

	return result, nil
}

func copyMonitoring(src *models.SourceMonitoring) *models.SourceMonitoring {
	dst := *src

	if src.Fingerprint != nil {
		fp := *src.Fingerprint
		fp.HeadingStructure = append([]string(nil), src.Fingerprint.HeadingStructure...)
		fp.CriticalSelectors = append([]string(nil), src.Fingerprint.CriticalSelectors...)
		dst.Fingerprint = &fp
	}

	dst.History = append([]models.ExtractionRecord(nil), src.History...)

	return &dst
}
