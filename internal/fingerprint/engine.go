package fingerprint

import (
	"context"
	"log/slog"

	"github.com/central-university-dev/go-reward-tracker/internal/common"
	"github.com/central-university-dev/go-reward-tracker/internal/domain/models"
)

type Repository interface {
	GetSet(ctx context.Context, key models.FingerprintKey) (map[string]struct{}, error)
	AddToSet(ctx context.Context, key models.FingerprintKey, fingerprints []string) error
}

// Engine объединяет чистые функции дедупликации с персистентными
// наборами отпечатков.
type Engine struct {
	repo   Repository
	logger *slog.Logger
}

func NewEngine(repo Repository, logger *slog.Logger) *Engine {
	return &Engine{
		repo:   repo,
		logger: logger,
	}
}

// KnownWithLookback собирает известные отпечатки для ключа key и,
// если previousDays > 0, объединяет их с наборами за previousDays
// предшествующих календарных дней. Некоторые источники держат на
// странице вчерашние записи до полуночи: без объединения такие записи
// каждый день всплывали бы как новые.
//
// Ошибка чтения хранилища намеренно деградирует до пустого набора:
// доступность конвейера важнее риска повторной публикации.
func (e *Engine) KnownWithLookback(ctx context.Context, key models.FingerprintKey, previousDays int) (map[string]struct{}, error) {
	known := e.getSetOrEmpty(ctx, key)

	if previousDays <= 0 {
		return known, nil
	}

	days, err := common.PreviousDays(key.Date, previousDays)
	if err != nil {
		return nil, err
	}

	for _, day := range days {
		dayKey := key
		dayKey.Date = day

		for fp := range e.getSetOrEmpty(ctx, dayKey) {
			known[fp] = struct{}{}
		}
	}

	return known, nil
}

func (e *Engine) Remember(ctx context.Context, key models.FingerprintKey, fingerprints []string) error {
	if len(fingerprints) == 0 {
		return nil
	}

	return e.repo.AddToSet(ctx, key, fingerprints)
}

func (e *Engine) getSetOrEmpty(ctx context.Context, key models.FingerprintKey) map[string]struct{} {
	set, err := e.repo.GetSet(ctx, key)
	if err != nil {
		e.logger.Warn("Хранилище отпечатков недоступно, используем пустой набор",
			"postId", key.PostID,
			"date", key.Date,
			"siteKey", key.SiteKey,
			"type", string(key.Type),
			"error", err,
		)

		return make(map[string]struct{})
	}

	if set == nil {
		return make(map[string]struct{})
	}

	return set
}
