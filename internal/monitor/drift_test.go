package monitor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/central-university-dev/go-reward-tracker/internal/domain/models"
	"github.com/central-university-dev/go-reward-tracker/internal/monitor"
)

func newDetector() *monitor.DriftDetector {
	return monitor.NewDriftDetector(0.20, 0.40, 0.30)
}

func baseFingerprint() *models.HTMLFingerprint {
	return &models.HTMLFingerprint{
		DOMHash:           "aaaa111122223333",
		HeadingStructure:  []string{"h1:Награды", "h2:26 August 2026"},
		CriticalSelectors: []string{".reward-link", ".links-container"},
		HTMLSize:          10000,
		HeadingCount:      10,
		LinkCount:         20,
	}
}

func TestDriftDetector_NoChanges(t *testing.T) {
	t.Parallel()

	changed, reasons := newDetector().Compare(baseFingerprint(), baseFingerprint())

	assert.False(t, changed)
	assert.Empty(t, reasons)
}

func TestDriftDetector_DOMHashChange(t *testing.T) {
	t.Parallel()

	newFP := baseFingerprint()
	newFP.DOMHash = "bbbb444455556666"

	changed, reasons := newDetector().Compare(baseFingerprint(), newFP)

	assert.True(t, changed)
	assert.Len(t, reasons, 1)
	assert.Contains(t, reasons[0], "хэш структуры DOM")
}

func TestDriftDetector_HeadingCountOverThreshold(t *testing.T) {
	t.Parallel()

	newFP := baseFingerprint()
	newFP.HeadingCount = 7 // -30% при пороге 20%

	changed, reasons := newDetector().Compare(baseFingerprint(), newFP)

	assert.True(t, changed)
	assert.Contains(t, reasons[0], "число заголовков")
}

func TestDriftDetector_HeadingCountWithinThreshold(t *testing.T) {
	t.Parallel()

	newFP := baseFingerprint()
	newFP.HeadingCount = 11

	changed, reasons := newDetector().Compare(baseFingerprint(), newFP)

	assert.False(t, changed)
	assert.Empty(t, reasons)
}

func TestDriftDetector_SizeOverThreshold(t *testing.T) {
	t.Parallel()

	newFP := baseFingerprint()
	newFP.HTMLSize = 4000 // -60% при пороге 40%

	changed, reasons := newDetector().Compare(baseFingerprint(), newFP)

	assert.True(t, changed)
	assert.Contains(t, reasons[0], "размер страницы")
}

func TestDriftDetector_MissingCriticalSelector(t *testing.T) {
	t.Parallel()

	newFP := baseFingerprint()
	newFP.CriticalSelectors = []string{".links-container"}

	changed, reasons := newDetector().Compare(baseFingerprint(), newFP)

	assert.True(t, changed)
	assert.Contains(t, reasons, "пропал критический селектор: .reward-link")
}

func TestDriftDetector_NewSelectorIsNotDrift(t *testing.T) {
	t.Parallel()

	newFP := baseFingerprint()
	newFP.CriticalSelectors = []string{".reward-link", ".links-container", ".daily-rewards"}

	changed, reasons := newDetector().Compare(baseFingerprint(), newFP)

	assert.False(t, changed)
	assert.Empty(t, reasons)
}

// Колебание числа ссылок даёт причину, но не считается структурным
// сдвигом само по себе.
func TestDriftDetector_LinkCountDropReasonOnly(t *testing.T) {
	t.Parallel()

	newFP := baseFingerprint()
	newFP.LinkCount = 5 // -75% при пороге 30%

	changed, reasons := newDetector().Compare(baseFingerprint(), newFP)

	assert.False(t, changed)
	assert.Len(t, reasons, 1)
	assert.Contains(t, reasons[0], "число ссылок")
}

func TestDriftDetector_ZeroOldLinkCountSkipsRule(t *testing.T) {
	t.Parallel()

	oldFP := baseFingerprint()
	oldFP.LinkCount = 0

	newFP := baseFingerprint()
	newFP.LinkCount = 15

	changed, reasons := newDetector().Compare(oldFP, newFP)

	assert.False(t, changed)
	assert.Empty(t, reasons)
}

func TestDriftDetector_MultipleReasons(t *testing.T) {
	t.Parallel()

	newFP := baseFingerprint()
	newFP.DOMHash = "bbbb444455556666"
	newFP.HeadingCount = 2
	newFP.CriticalSelectors = nil
	newFP.LinkCount = 1

	changed, reasons := newDetector().Compare(baseFingerprint(), newFP)

	assert.True(t, changed)
	assert.Len(t, reasons, 5)
}
