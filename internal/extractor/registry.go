package extractor

import (
	"log/slog"

	"github.com/central-university-dev/go-reward-tracker/internal/domain/errors"
)

// Registry хранит упорядоченный список стратегий. Resolve возвращает
// первую, чей CanHandle истинен; резервная стратегия с безусловным
// предикатом хранится отдельно и проверяется строго последней, чтобы
// не затенять специализированные стратегии.
type Registry struct {
	strategies []Strategy
	fallback   Strategy
	logger     *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger: logger,
	}
}

func (r *Registry) Register(strategy Strategy) {
	r.logger.Info("Регистрация стратегии извлечения",
		"strategy", strategy.Name(),
	)

	r.strategies = append(r.strategies, strategy)
}

func (r *Registry) RegisterFallback(strategy Strategy) {
	r.logger.Info("Регистрация резервной стратегии извлечения",
		"strategy", strategy.Name(),
	)

	r.fallback = strategy
}

func (r *Registry) Resolve(url string) (Strategy, error) {
	for _, strategy := range r.strategies {
		if strategy.CanHandle(url) {
			return strategy, nil
		}
	}

	if r.fallback != nil {
		return r.fallback, nil
	}

	return nil, &errors.ErrUnknownSource{URL: url}
}

func (r *Registry) Strategies() []Strategy {
	result := make([]Strategy, len(r.strategies))
	copy(result, r.strategies)

	if r.fallback != nil {
		result = append(result, r.fallback)
	}

	return result
}
