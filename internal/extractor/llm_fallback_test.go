package extractor_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/central-university-dev/go-reward-tracker/internal/extractor"
	"github.com/central-university-dev/go-reward-tracker/pkg"
)

const fallbackPage = `<!DOCTYPE html>
<html><body>
<h1>Daily Rewards Hub</h1>
<h2>26 August 2026</h2>
<p><a href="https://rewards.example.com/claim/1">Reward 1</a></p>
<p><a href="https://rewards.example.com/claim/2">Reward 2</a></p>
<h2>25 August 2026</h2>
<p><a href="https://rewards.example.com/claim/0">Old reward</a></p>
</body></html>`

// scriptedLLMClient отдаёт заранее подготовленные JSON-ответы по
// порядку вызовов и запоминает полученные подсказки.
type scriptedLLMClient struct {
	responses []string
	err       error
	prompts   []string
}

func (c *scriptedLLMClient) Infer(_ context.Context, prompt string, result any) error {
	c.prompts = append(c.prompts, prompt)

	if c.err != nil {
		return c.err
	}

	if len(c.responses) == 0 {
		return errors.New("сценарий ответов исчерпан")
	}

	response := c.responses[0]
	c.responses = c.responses[1:]

	return json.Unmarshal([]byte(response), result)
}

func newFallback(client *scriptedLLMClient) *extractor.LLMFallbackStrategy {
	return extractor.NewLLMFallbackStrategy(client, 0.7, pkg.NewDiscardLogger())
}

func TestLLMFallback_TwoStageExtraction(t *testing.T) {
	t.Parallel()

	client := &scriptedLLMClient{responses: []string{
		`{"headings": ["26 August 2026"], "confidence": 0.9}`,
		`{"links": [{"url": "https://rewards.example.com/claim/1", "title": "Reward 1"}], "confidence": 0.85}`,
	}}

	links, confidence, err := newFallback(client).Extract(context.Background(), fallbackPage, "2026-08-26")
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "https://rewards.example.com/claim/1", links[0].URL)
	assert.Equal(t, "Reward 1", links[0].Title)
	assert.Equal(t, "2026-08-26", links[0].PublishedDate)

	// Итоговая уверенность — меньшая из самооценок двух стадий.
	assert.InDelta(t, 0.85, confidence, 0.001)

	// Вторая подсказка содержит только выбранную секцию.
	require.Len(t, client.prompts, 2)
	assert.Contains(t, client.prompts[1], "claim/1")
	assert.NotContains(t, client.prompts[1], "claim/0")
}

func TestLLMFallback_LowConfidenceHeadingSelection(t *testing.T) {
	t.Parallel()

	client := &scriptedLLMClient{responses: []string{
		`{"headings": ["26 August 2026"], "confidence": 0.4}`,
	}}

	links, confidence, err := newFallback(client).Extract(context.Background(), fallbackPage, "2026-08-26")
	require.NoError(t, err)
	assert.Empty(t, links)
	assert.Len(t, client.prompts, 1)
	// Отброшенный результат всё равно сообщает низкую самооценку модели.
	assert.InDelta(t, 0.4, confidence, 0.001)
}

func TestLLMFallback_LowConfidenceExtraction(t *testing.T) {
	t.Parallel()

	client := &scriptedLLMClient{responses: []string{
		`{"headings": ["26 August 2026"], "confidence": 0.9}`,
		`{"links": [{"url": "https://rewards.example.com/claim/1", "title": "Reward 1"}], "confidence": 0.3}`,
	}}

	links, confidence, err := newFallback(client).Extract(context.Background(), fallbackPage, "2026-08-26")
	require.NoError(t, err)
	assert.Empty(t, links)
	assert.InDelta(t, 0.3, confidence, 0.001)
}

func TestLLMFallback_NoHeadingsSkipsModel(t *testing.T) {
	t.Parallel()

	client := &scriptedLLMClient{}

	links, confidence, err := newFallback(client).Extract(context.Background(), "<html><body><p>без заголовков</p></body></html>", "2026-08-26")
	require.NoError(t, err)
	assert.Empty(t, links)
	assert.Empty(t, client.prompts)
	assert.InDelta(t, 1.0, confidence, 0.001)
}

func TestLLMFallback_ClientErrorPropagates(t *testing.T) {
	t.Parallel()

	client := &scriptedLLMClient{err: errors.New("модель недоступна")}

	_, _, err := newFallback(client).Extract(context.Background(), fallbackPage, "2026-08-26")
	assert.Error(t, err)
}

func TestLLMFallback_HandlesAnyURL(t *testing.T) {
	t.Parallel()

	strategy := newFallback(&scriptedLLMClient{})

	assert.True(t, strategy.CanHandle("https://whatever.example.com"))
	assert.Equal(t, "llm_fallback", strategy.Name())
}

func TestLLMFallback_EmptyURLsFiltered(t *testing.T) {
	t.Parallel()

	client := &scriptedLLMClient{responses: []string{
		`{"headings": ["26 August 2026"], "confidence": 0.9}`,
		`{"links": [{"url": "  ", "title": "пусто"}, {"url": "https://rewards.example.com/claim/2", "title": "Reward 2"}], "confidence": 0.9}`,
	}}

	links, _, err := newFallback(client).Extract(context.Background(), fallbackPage, "2026-08-26")
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, "https://rewards.example.com/claim/2", links[0].URL)
}
