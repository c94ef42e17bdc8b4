package extractor

import (
	"context"

	"github.com/central-university-dev/go-reward-tracker/internal/domain/models"
)

// Strategy — алгоритм извлечения наград для одного известного макета
// сайта. Реализации не держат состояния: Extract — чистая функция от
// страницы и даты. На битой разметке стратегия обязана возвращать
// пустой срез, а не ошибку.
type Strategy interface {
	Name() string

	// CanHandle — дешёвый предикат по строке URL, без сети и парсинга.
	CanHandle(url string) bool

	// Extract вторым значением возвращает уверенность извлечения в
	// [0, 1]. Детерминированные парсеры всегда сообщают 1; стратегии
	// на основе модели передают её самооценку, даже когда результат
	// отброшен как ненадёжный.
	Extract(ctx context.Context, html, date string) ([]*models.Link, float64, error)

	// SupportsPromoCodes — явный запрос возможности: диспетчеру не
	// приходится гадать по типу.
	SupportsPromoCodes() bool

	ExtractPromoCodes(ctx context.Context, html, date string) ([]*models.PromoCode, error)

	// CheckPreviousDays объявляет, за сколько дней до запрошенной даты
	// вывод стратегии может содержать записи. Слою дедупликации это
	// говорит, как далеко назад смотреть.
	CheckPreviousDays() int
}

// BaseStrategy задаёт поведение по умолчанию для необязательных
// возможностей стратегий.
type BaseStrategy struct{}

func (BaseStrategy) SupportsPromoCodes() bool {
	return false
}

func (BaseStrategy) ExtractPromoCodes(_ context.Context, _, _ string) ([]*models.PromoCode, error) {
	return nil, nil
}

func (BaseStrategy) CheckPreviousDays() int {
	return 0
}
