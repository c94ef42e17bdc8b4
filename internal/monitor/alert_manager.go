package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/central-university-dev/go-reward-tracker/internal/common"
	"github.com/central-university-dev/go-reward-tracker/internal/common/metrics"
	"github.com/central-university-dev/go-reward-tracker/internal/config"
	"github.com/central-university-dev/go-reward-tracker/internal/domain/models"
)

type AlertRepository interface {
	Append(ctx context.Context, alert *models.Alert) error
	ExistsRecent(ctx context.Context, sourceURL string, alertType models.AlertType, since time.Time) (bool, error)
}

// AlertPublisher доставляет созданный алерт во внешний транспорт.
// nil-паблишер допустим: алерты остаются в хранилище и добираются
// фоновым обходом нотификатора.
type AlertPublisher interface {
	SendAlert(ctx context.Context, alert *models.Alert) error
}

// AlertManager превращает наблюдения за источником в алерты с
// подавлением дубликатов: повторный алерт того же типа по тому же
// источнику в пределах окна подавления молча отбрасывается.
type AlertManager struct {
	repo      AlertRepository
	publisher AlertPublisher
	cfg       *config.Config
	logger    *slog.Logger
	now       func() time.Time
}

func NewAlertManager(repo AlertRepository, publisher AlertPublisher, cfg *config.Config, logger *slog.Logger) *AlertManager {
	return &AlertManager{
		repo:      repo,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Evaluate проверяет условия алертов по обновлённой истории источника.
// Вызывается один раз на каждое записанное извлечение.
func (m *AlertManager) Evaluate(ctx context.Context, mon *models.SourceMonitoring) {
	now := m.now().UTC()
	today := common.FormatDate(now)

	m.checkZeroLinks(ctx, mon, today, now)
	m.checkLowConfidence(ctx, mon, today)
	m.checkConsecutiveFailures(ctx, mon)
	m.checkLinkCountDrop(ctx, mon, today)
}

// RaiseStructureChange публикует алерт о структурном сдвиге страницы.
func (m *AlertManager) RaiseStructureChange(ctx context.Context, sourceURL string, reasons []string) {
	m.emit(ctx, &models.Alert{
		Type:      models.AlertStructureChanged,
		SourceURL: sourceURL,
		Severity:  models.SeverityWarning,
		Message:   fmt.Sprintf("структура страницы источника изменилась (%d причин)", len(reasons)),
		Details:   &models.StructureChangedDetails{Reasons: reasons},
	})
}

/// checkZeroLinks: за сегодня не извлечено ни одной ссылки. До
// ZeroLinksAlertHour по UTC не срабатывает — источники обновляются
// не с самого утра.
func (m *AlertManager) checkZeroLinks(ctx context.Context, mon *models.SourceMonitoring, today string, now time.Time) {
	if now.Hour() < m.cfg.ZeroLinksAlertHour {
		return
	}

	todayRecords := recordsForDate(mon.History, today)
	if len(todayRecords) == 0 {
		return
	}

	total := 0
	for _, record := range todayRecords {
		total += record.LinksFound
	}

	if total > 0 {
		return
	}

	m.emit(ctx, &models.Alert{
		Type:      models.AlertZeroLinks,
		SourceURL: mon.SourceURL,
		Severity:  models.SeverityCritical,
		Message:   fmt.Sprintf("за %s не извлечено ни одной ссылки (%d проверок)", today, len(todayRecords)),
		Details:   &models.ZeroLinksDetails{ChecksToday: len(todayRecords)},
	})
}

// checkLowConfidence: исторически уверенный источник внезапно стал
// давать низкую уверенность извлечения.
func (m *AlertManager) checkLowConfidence(ctx context.Context, mon *models.SourceMonitoring, today string) {
	if len(mon.History) <= m.cfg.LowConfidenceMinRuns {
		return
	}

	var historical, todaySum float64

	var historicalCount, todayCount int

	for _, record := range mon.History {
		if record.Date == today {
			todaySum += record.Confidence
			todayCount++
		} else {
			historical += record.Confidence
			historicalCount++
		}
	}

	if historicalCount == 0 || todayCount == 0 {
		return
	}

	historicalAvg := historical / float64(historicalCount)
	todayAvg := todaySum / float64(todayCount)

	if historicalAvg <= m.cfg.HistoricalConfidence || todayAvg >= m.cfg.TodayConfidence {
		return
	}

	m.emit(ctx, &models.Alert{
		Type:      models.AlertLowConfidence,
		SourceURL: mon.SourceURL,
		Severity:  models.SeverityWarning,
		Message: fmt.Sprintf("уверенность извлечения упала: исторически %.2f, сегодня %.2f",
			historicalAvg, todayAvg),
		Details: &models.LowConfidenceDetails{
			HistoricalAverage: historicalAvg,
			TodayAverage:      todayAvg,
		},
	})
}

func (m *AlertManager) checkConsecutiveFailures(ctx context.Context, mon *models.SourceMonitoring) {
	if mon.ConsecutiveFailures < m.cfg.FailingThreshold {
		return
	}

	lastError := ""
	if len(mon.History) > 0 {
		lastError = mon.History[len(mon.History)-1].Error
	}

	m.emit(ctx, &models.Alert{
		Type:      models.AlertConsecutiveFailures,
		SourceURL: mon.SourceURL,
		Severity:  models.SeverityCritical,
		Message:   fmt.Sprintf("%d извлечений подряд завершились ошибкой", mon.ConsecutiveFailures),
		Details: &models.ConsecutiveFailuresDetails{
			Count:     mon.ConsecutiveFailures,
			LastError: lastError,
		},
	})
}

// checkLinkCountDrop: среднее число ссылок за сегодня внутри последнего
// окна упало более чем вдвое относительно предыдущего окна.
func (m *AlertManager) checkLinkCountDrop(ctx context.Context, mon *models.SourceMonitoring, today string) {
	window := m.cfg.LinkDropWindow
	if len(mon.History) <= window {
		return
	}

	recent := mon.History[len(mon.History)-window:]

	previousStart := len(mon.History) - 2*window
	if previousStart < 0 {
		previousStart = 0
	}

	previous := mon.History[previousStart : len(mon.History)-window]
	if len(previous) == 0 {
		return
	}

	var todaySum float64

	todayCount := 0

	for _, record := range recent {
		if record.Date == today {
			todaySum += float64(record.LinksFound)
			todayCount++
		}
	}

	if todayCount == 0 {
		return
	}

	var previousSum float64
	for _, record := range previous {
		previousSum += float64(record.LinksFound)
	}

	previousAvg := previousSum / float64(len(previous))
	todayAvg := todaySum / float64(todayCount)

	if previousAvg <= m.cfg.LinkDropMinAverage || todayAvg >= previousAvg*m.cfg.LinkDropRatio {
		return
	}

	m.emit(ctx, &models.Alert{
		Type:      models.AlertLinkCountDrop,
		SourceURL: mon.SourceURL,
		Severity:  models.SeverityWarning,
		Message: fmt.Sprintf("число извлекаемых ссылок упало: было в среднем %.1f, сегодня %.1f",
			previousAvg, todayAvg),
		Details: &models.LinkCountDropDetails{
			PreviousAverage: previousAvg,
			CurrentAverage:  todayAvg,
		},
	})
}

// emit сохраняет алерт, если такой же (источник, тип) не создавался в
// пределах окна подавления. Ошибка проверки окна трактуется как
// отсутствие недавнего алерта: лучше лишний алерт, чем потерянный.
func (m *AlertManager) emit(ctx context.Context, alert *models.Alert) {
	now := m.now().UTC()
	alert.Timestamp = now

	since := now.Add(-m.cfg.AlertSuppressionWindow)

	exists, err := m.repo.ExistsRecent(ctx, alert.SourceURL, alert.Type, since)
	if err != nil {
		m.logger.Warn("Не удалось проверить окно подавления алертов",
			"sourceUrl", alert.SourceURL,
			"type", string(alert.Type),
			"error", err,
		)
	}

	if exists {
		m.logger.Debug("Алерт подавлен: аналогичный создан недавно",
			"sourceUrl", alert.SourceURL,
			"type", string(alert.Type),
		)

		return
	}

	if err := m.repo.Append(ctx, alert); err != nil {
		m.logger.Error("Ошибка при сохранении алерта",
			"sourceUrl", alert.SourceURL,
			"type", string(alert.Type),
			"error", err,
		)

		return
	}

	metrics.RecordAlertCreated(string(alert.Type), string(alert.Severity))

	m.logger.Info("Создан алерт",
		"sourceUrl", alert.SourceURL,
		"type", string(alert.Type),
		"severity", string(alert.Severity),
		"message", alert.Message,
	)

	if m.publisher == nil {
		return
	}

	if err := m.publisher.SendAlert(ctx, alert); err != nil {
		m.logger.Warn("Алерт сохранён, но не отправлен в транспорт",
			"sourceUrl", alert.SourceURL,
			"type", string(alert.Type),
			"error", err,
		)
	}
}

func recordsForDate(history []models.ExtractionRecord, date string) []models.ExtractionRecord {
	var records []models.ExtractionRecord

	for _, record := range history {
		if record.Date == date {
			records = append(records, record)
		}
	}

	return records
}
