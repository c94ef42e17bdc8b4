package notify_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/central-university-dev/go-reward-tracker/internal/domain/models"
	"github.com/central-university-dev/go-reward-tracker/internal/tracker/notify"
	"github.com/central-university-dev/go-reward-tracker/pkg"
)

type recordingNotifier struct {
	err   error
	sent  []*models.Alert
	calls int
}

func (n *recordingNotifier) SendAlert(_ context.Context, alert *models.Alert) error {
	n.calls++

	if n.err != nil {
		return n.err
	}

	n.sent = append(n.sent, alert)

	return nil
}

func testAlert() *models.Alert {
	return &models.Alert{
		ID:        7,
		SourceURL: "https://rewards.example.com/daily",
		Type:      models.AlertZeroLinks,
		Severity:  models.SeverityCritical,
		Message:   "За день не найдено ни одной ссылки",
		Timestamp: time.Date(2026, 8, 26, 14, 0, 0, 0, time.UTC),
	}
}

func TestFallbackNotifier_PrimarySucceeds(t *testing.T) {
	primary := &recordingNotifier{}
	secondary := &recordingNotifier{}
	notifier := notify.NewFallbackAlertNotifier(primary, secondary, pkg.NewDiscardLogger())

	err := notifier.SendAlert(context.Background(), testAlert())

	require.NoError(t, err)
	assert.Len(t, primary.sent, 1)
	assert.Zero(t, secondary.calls)
}

func TestFallbackNotifier_SwitchesToSecondary(t *testing.T) {
	primary := &recordingNotifier{err: errors.New("брокер недоступен")}
	secondary := &recordingNotifier{}
	notifier := notify.NewFallbackAlertNotifier(primary, secondary, pkg.NewDiscardLogger())

	err := notifier.SendAlert(context.Background(), testAlert())

	require.NoError(t, err)
	assert.Equal(t, 1, primary.calls)
	assert.Len(t, secondary.sent, 1)
}

func TestFallbackNotifier_BothFailReturnsCombinedError(t *testing.T) {
	primary := &recordingNotifier{err: errors.New("брокер недоступен")}
	secondary := &recordingNotifier{err: errors.New("вебхук вернул 500")}
	notifier := notify.NewFallbackAlertNotifier(primary, secondary, pkg.NewDiscardLogger())

	err := notifier.SendAlert(context.Background(), testAlert())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "брокер недоступен")
	assert.Contains(t, err.Error(), "вебхук вернул 500")
}
