package monitor_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/central-university-dev/go-reward-tracker/internal/monitor"
)

const samplePage = `
<html><body>
<h1>Ежедневные награды</h1>
<div class="links-container">
	<h2>26 August 2026</h2>
	<a class="reward-link" href="https://example.com/claim/1">50 вращений</a>
	<a class="reward-link" href="https://example.com/claim/2">25 монет</a>
	<a href="/relative/path">навигация</a>
</div>
<p><strong>25 August 2026</strong></p>
</body></html>`

func TestComputeFingerprint_Deterministic(t *testing.T) {
	t.Parallel()

	first, err := monitor.ComputeFingerprint(samplePage)
	require.NoError(t, err)

	second, err := monitor.ComputeFingerprint(samplePage)
	require.NoError(t, err)

	assert.Equal(t, first.DOMHash, second.DOMHash)
	assert.Equal(t, first.HeadingStructure, second.HeadingStructure)
	assert.Equal(t, first.CriticalSelectors, second.CriticalSelectors)
	assert.Len(t, first.DOMHash, 16)
}

func TestComputeFingerprint_TextChangeKeepsDOMHash(t *testing.T) {
	t.Parallel()

	changedText := `
<html><body>
<h1>Совсем другой заголовок</h1>
<div class="links-container">
	<h2>27 August 2026</h2>
	<a class="reward-link" href="https://example.com/claim/99">100 вращений</a>
	<a class="reward-link" href="https://example.com/claim/100">10 монет</a>
	<a href="/other">навигация</a>
</div>
<p><strong>26 August 2026</strong></p>
</body></html>`

	first, err := monitor.ComputeFingerprint(samplePage)
	require.NoError(t, err)

	second, err := monitor.ComputeFingerprint(changedText)
	require.NoError(t, err)

	assert.Equal(t, first.DOMHash, second.DOMHash)
}

func TestComputeFingerprint_ClassChangeChangesDOMHash(t *testing.T) {
	t.Parallel()

	changedMarkup := `
<html><body>
<h1>Ежедневные награды</h1>
<div class="rewards-wrapper">
	<h2>26 August 2026</h2>
	<a class="reward-link" href="https://example.com/claim/1">50 вращений</a>
	<a class="reward-link" href="https://example.com/claim/2">25 монет</a>
	<a href="/relative/path">навигация</a>
</div>
<p><strong>25 August 2026</strong></p>
</body></html>`

	first, err := monitor.ComputeFingerprint(samplePage)
	require.NoError(t, err)

	second, err := monitor.ComputeFingerprint(changedMarkup)
	require.NoError(t, err)

	assert.NotEqual(t, first.DOMHash, second.DOMHash)
}

func TestComputeFingerprint_CountsAbsoluteLinksOnly(t *testing.T) {
	t.Parallel()

	fp, err := monitor.ComputeFingerprint(samplePage)
	require.NoError(t, err)

	assert.Equal(t, 2, fp.LinkCount)
}

func TestComputeFingerprint_CriticalSelectors(t *testing.T) {
	t.Parallel()

	fp, err := monitor.ComputeFingerprint(samplePage)
	require.NoError(t, err)

	assert.Contains(t, fp.CriticalSelectors, ".reward-link")
	assert.Contains(t, fp.CriticalSelectors, ".links-container")
	assert.NotContains(t, fp.CriticalSelectors, ".daily-rewards")
}

func TestComputeFingerprint_HeadingStructure(t *testing.T) {
	t.Parallel()

	fp, err := monitor.ComputeFingerprint(samplePage)
	require.NoError(t, err)

	assert.Contains(t, fp.HeadingStructure, "h1:Ежедневные награды")
	assert.Contains(t, fp.HeadingStructure, "h2:26 August 2026")
	assert.Contains(t, fp.HeadingStructure, "strong:25 August 2026")
}

func TestComputeFingerprint_LongHeadingTruncatedOnRuneBoundary(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("Ежедневные награды и бонусы ", 4)

	fp, err := monitor.ComputeFingerprint("<html><body><h1>" + long + "</h1></body></html>")
	require.NoError(t, err)

	require.Len(t, fp.HeadingStructure, 1)

	entry := fp.HeadingStructure[0]
	assert.True(t, utf8.ValidString(entry))

	text := strings.TrimPrefix(entry, "h1:")
	assert.Equal(t, 50, utf8.RuneCountInString(text))
}

func TestComputeFingerprint_HeadingListCapped(t *testing.T) {
	t.Parallel()

	var html string
	for i := 0; i < 40; i++ {
		html += "<h2>Heading number " + string(rune('A'+i%26)) + "</h2>"
	}

	fp, err := monitor.ComputeFingerprint("<html><body>" + html + "</body></html>")
	require.NoError(t, err)

	assert.Len(t, fp.HeadingStructure, 30)
	assert.Equal(t, 40, fp.HeadingCount)
}
