package clients

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/central-university-dev/go-reward-tracker/internal/domain/models"
)

func TestFormatAlert_Critical(t *testing.T) {
	t.Parallel()

	text := formatAlert(&models.Alert{
		Type:      models.AlertConsecutiveFailures,
		SourceURL: "https://rewards.example.com",
		Severity:  models.SeverityCritical,
		Message:   "3 извлечений подряд завершились ошибкой",
		Timestamp: time.Date(2026, 8, 26, 14, 30, 0, 0, time.UTC),
	})

	assert.Contains(t, text, "Критический алерт")
	assert.Contains(t, text, "consecutive_failures")
	assert.Contains(t, text, "https://rewards.example.com")
	assert.Contains(t, text, "2026-08-26 14:30:00")
	assert.Contains(t, text, "3 извлечений подряд завершились ошибкой")
}

func TestFormatAlert_SeverityHeaders(t *testing.T) {
	t.Parallel()

	warning := formatAlert(&models.Alert{Severity: models.SeverityWarning})
	assert.Contains(t, warning, "Предупреждение")

	info := formatAlert(&models.Alert{Severity: models.SeverityInfo})
	assert.Contains(t, info, "Алерт")
}
