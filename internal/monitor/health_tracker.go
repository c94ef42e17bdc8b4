package monitor

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/central-university-dev/go-reward-tracker/internal/config"
	"github.com/central-university-dev/go-reward-tracker/internal/domain/errors"
	"github.com/central-university-dev/go-reward-tracker/internal/domain/models"
	"github.com/central-university-dev/go-reward-tracker/pkg/keymutex"
)

type MonitoringRepository interface {
	Get(ctx context.Context, sourceURL string) (*models.SourceMonitoring, error)
	Save(ctx context.Context, monitoring *models.SourceMonitoring) error
	GetAll(ctx context.Context) ([]*models.SourceMonitoring, error)
}

// Observation — результат одного извлечения, передаваемый трекеру.
type Observation struct {
	SourceURL  string
	Date       string
	LinksFound int
	Confidence float64
	Success    bool
	Error      string
	HTML       string
}

// HealthTracker ведёт историю извлечений по источникам и машину
// состояний healthy/warning/failing/unknown. Статус определяется
// только последними наблюдениями: источник, который перестали
// опрашивать, навсегда сохраняет последний статус.
type HealthTracker struct {
	repo   MonitoringRepository
	alerts *AlertManager
	drift  *DriftDetector
	cfg    *config.Config
	keys   *keymutex.KeyMutex
	logger *slog.Logger
	now    func() time.Time
}

func NewHealthTracker(
	repo MonitoringRepository,
	alerts *AlertManager,
	drift *DriftDetector,
	cfg *config.Config,
	logger *slog.Logger,
) *HealthTracker {
	return &HealthTracker{
		repo:   repo,
		alerts: alerts,
		drift:  drift,
		cfg:    cfg,
		keys:   keymutex.New(),
		logger: logger,
		now:    time.Now,
	}
}

// RecordExtraction записывает наблюдение и обновляет состояние
// источника. Записи по одному источнику сериализуются: конкурентные
// задания не должны затирать историю друг друга.
func (t *HealthTracker) RecordExtraction(ctx context.Context, obs Observation) error {
	return t.keys.WithLock(obs.SourceURL, func() error {
		return t.recordLocked(ctx, obs)
	})
}

func (t *HealthTracker) recordLocked(ctx context.Context, obs Observation) error {
	mon := t.getOrCreate(ctx, obs.SourceURL)

	mon.History = append(mon.History, models.ExtractionRecord{
		Date:       obs.Date,
		LinksFound: obs.LinksFound,
		Confidence: obs.Confidence,
		Success:    obs.Success,
		Error:      obs.Error,
		Timestamp:  t.now().UTC(),
	})

	if len(mon.History) > t.cfg.HistoryLimit {
		mon.History = mon.History[len(mon.History)-t.cfg.HistoryLimit:]
	}

	if obs.HTML != "" {
		t.updateFingerprint(ctx, mon, obs.HTML)
	}

	if obs.Success {
		mon.ConsecutiveFailures = 0
	} else {
		mon.ConsecutiveFailures++
	}

	mon.Status = t.deriveStatus(mon.ConsecutiveFailures)
	mon.LastCheck = t.now().UTC()

	if err := t.repo.Save(ctx, mon); err != nil {
		return err
	}

	t.alerts.Evaluate(ctx, mon)

	return nil
}

// updateFingerprint сравнивает новый отпечаток со старым и при
// структурном сдвиге поднимает алерт. Новый отпечаток сохраняется в
// любом случае.
func (t *HealthTracker) updateFingerprint(ctx context.Context, mon *models.SourceMonitoring, html string) {
	newFP, err := ComputeFingerprint(html)
	if err != nil {
		t.logger.Warn("Не удалось построить структурный отпечаток страницы",
			"sourceUrl", mon.SourceURL,
			"error", err,
		)

		return
	}

	if mon.Fingerprint != nil {
		changed, reasons := t.drift.Compare(mon.Fingerprint, newFP)
		if changed {
			t.logger.Warn("Обнаружен структурный сдвиг страницы",
				"sourceUrl", mon.SourceURL,
				"reasons", reasons,
			)

			t.alerts.RaiseStructureChange(ctx, mon.SourceURL, reasons)
		}
	}

	mon.Fingerprint = newFP
}

// CheckStructureChange сравнивает страницу с последним сохранённым
// отпечатком, не изменяя состояния. На самой первой проверке источника
// сдвиг не фиксируется: сравнивать не с чем.
func (t *HealthTracker) CheckStructureChange(ctx context.Context, sourceURL, html string) (bool, []string, error) {
	mon, err := t.repo.Get(ctx, sourceURL)
	if err != nil || mon.Fingerprint == nil {
		if err != nil && !stderrors.Is(err, &errors.ErrSourceNotFound{}) {
			return false, nil, err
		}

		return false, []string{ReasonFirstCheck}, nil
	}

	newFP, err := ComputeFingerprint(html)
	if err != nil {
		return false, nil, err
	}

	changed, reasons := t.drift.Compare(mon.Fingerprint, newFP)

	return changed, reasons, nil
}

func (t *HealthTracker) GetSourceHealth(ctx context.Context, sourceURL string) (*models.SourceMonitoring, error) {
	return t.repo.Get(ctx, sourceURL)
}

func (t *HealthTracker) GetAllHealth(ctx context.Context) ([]*models.SourceMonitoring, error) {
	return t.repo.GetAll(ctx)
}

// getOrCreate лениво создаёт запись мониторинга. Недоступность
// хранилища деградирует до свежей записи: конвейер важнее полноты
// истории.
func (t *HealthTracker) getOrCreate(ctx context.Context, sourceURL string) *models.SourceMonitoring {
	mon, err := t.repo.Get(ctx, sourceURL)
	if err == nil {
		return mon
	}

	if !stderrors.Is(err, &errors.ErrSourceNotFound{}) {
		t.logger.Warn("Хранилище мониторинга недоступно, начинаем с пустой записи",
			"sourceUrl", sourceURL,
			"error", err,
		)
	}

	return &models.SourceMonitoring{
		SourceURL: sourceURL,
		Status:    models.StatusUnknown,
	}
}

func (t *HealthTracker) deriveStatus(consecutiveFailures int) models.SourceStatus {
	switch {
	case consecutiveFailures >= t.cfg.FailingThreshold:
		return models.StatusFailing
	case consecutiveFailures > 0:
		return models.StatusWarning
	default:
		return models.StatusHealthy
	}
}
