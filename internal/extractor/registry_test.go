package extractor_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/central-university-dev/go-reward-tracker/internal/domain/errors"
	"github.com/central-university-dev/go-reward-tracker/internal/domain/models"
	"github.com/central-university-dev/go-reward-tracker/internal/extractor"
	"github.com/central-university-dev/go-reward-tracker/pkg"
)

type stubStrategy struct {
	extractor.BaseStrategy

	name   string
	domain string
}

func (s *stubStrategy) Name() string {
	return s.name
}

func (s *stubStrategy) CanHandle(url string) bool {
	return s.domain == "" || strings.Contains(url, s.domain)
}

func (s *stubStrategy) Extract(_ context.Context, _, _ string) ([]*models.Link, float64, error) {
	return nil, 1, nil
}

func TestRegistry_ResolveFirstMatch(t *testing.T) {
	t.Parallel()

	registry := extractor.NewRegistry(pkg.NewDiscardLogger())
	registry.Register(&stubStrategy{name: "first", domain: "rewards.example.com"})
	registry.Register(&stubStrategy{name: "second", domain: "rewards.example.com"})

	strategy, err := registry.Resolve("https://rewards.example.com/daily")
	require.NoError(t, err)
	assert.Equal(t, "first", strategy.Name())
}

func TestRegistry_FallbackResolvedLast(t *testing.T) {
	t.Parallel()

	registry := extractor.NewRegistry(pkg.NewDiscardLogger())

	// Резервная стратегия зарегистрирована первой, но не затеняет
	// специализированную.
	registry.RegisterFallback(&stubStrategy{name: "fallback"})
	registry.Register(&stubStrategy{name: "specialized", domain: "rewards.example.com"})

	strategy, err := registry.Resolve("https://rewards.example.com/daily")
	require.NoError(t, err)
	assert.Equal(t, "specialized", strategy.Name())

	strategy, err = registry.Resolve("https://unknown.example.com")
	require.NoError(t, err)
	assert.Equal(t, "fallback", strategy.Name())
}

func TestRegistry_UnknownSource(t *testing.T) {
	t.Parallel()

	registry := extractor.NewRegistry(pkg.NewDiscardLogger())
	registry.Register(&stubStrategy{name: "specialized", domain: "rewards.example.com"})

	_, err := registry.Resolve("https://unknown.example.com")
	assert.ErrorIs(t, err, &errors.ErrUnknownSource{})
}

func TestRegistry_StrategiesIncludesFallbackLast(t *testing.T) {
	t.Parallel()

	registry := extractor.NewRegistry(pkg.NewDiscardLogger())
	registry.RegisterFallback(&stubStrategy{name: "fallback"})
	registry.Register(&stubStrategy{name: "a", domain: "a.example.com"})
	registry.Register(&stubStrategy{name: "b", domain: "b.example.com"})

	strategies := registry.Strategies()
	require.Len(t, strategies, 3)
	assert.Equal(t, "a", strategies[0].Name())
	assert.Equal(t, "b", strategies[1].Name())
	assert.Equal(t, "fallback", strategies[2].Name())
}
