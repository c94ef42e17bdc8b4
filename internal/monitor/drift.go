package monitor

import (
	"fmt"

	"github.com/central-university-dev/go-reward-tracker/internal/domain/models"
)

// ReasonFirstCheck возвращается при самой первой проверке источника,
// когда сравнивать ещё не с чем.
const ReasonFirstCheck = "первая проверка"

// DriftDetector сравнивает два структурных отпечатка страницы и
// объясняет различия. Пороги задаются конфигурацией.
type DriftDetector struct {
	headingThreshold float64
	sizeThreshold    float64
	linkThreshold    float64
}

func NewDriftDetector(headingThreshold, sizeThreshold, linkThreshold float64) *DriftDetector {
	return &DriftDetector{
		headingThreshold: headingThreshold,
		sizeThreshold:    sizeThreshold,
		linkThreshold:    linkThreshold,
	}
}

// Compare применяет независимые правила, каждое добавляет причину.
// Смена domHash, сильное изменение числа заголовков или размера
// страницы и пропажа критического селектора означают структурный
// сдвиг. Колебание числа ссылок фиксируется как причина, но само по
// себе сдвигом не считается: объём контента легитимно меняется день
// ото дня.
func (d *DriftDetector) Compare(oldFP, newFP *models.HTMLFingerprint) (changed bool, reasons []string) {
	if d.domHashChanged(oldFP, newFP) {
		changed = true

		reasons = append(reasons, fmt.Sprintf("изменился хэш структуры DOM: %s -> %s", oldFP.DOMHash, newFP.DOMHash))
	}

	if ratio := varianceRatio(oldFP.HeadingCount, newFP.HeadingCount); ratio > d.headingThreshold {
		changed = true

		reasons = append(reasons, fmt.Sprintf("число заголовков изменилось на %.0f%%: %d -> %d",
			ratio*100, oldFP.HeadingCount, newFP.HeadingCount))
	}

	if ratio := varianceRatio(oldFP.HTMLSize, newFP.HTMLSize); ratio > d.sizeThreshold {
		changed = true

		reasons = append(reasons, fmt.Sprintf("размер страницы изменился на %.0f%%: %d -> %d байт",
			ratio*100, oldFP.HTMLSize, newFP.HTMLSize))
	}

	for _, selector := range missingSelectors(oldFP.CriticalSelectors, newFP.CriticalSelectors) {
		changed = true

		reasons = append(reasons, "пропал критический селектор: "+selector)
	}

	if oldFP.LinkCount > 0 {
		ratio := varianceRatio(oldFP.LinkCount, newFP.LinkCount)
		if ratio > d.linkThreshold {
			reasons = append(reasons, fmt.Sprintf("число ссылок изменилось на %.0f%%: %d -> %d",
				ratio*100, oldFP.LinkCount, newFP.LinkCount))
		}
	}

	return changed, reasons
}

func (d *DriftDetector) domHashChanged(oldFP, newFP *models.HTMLFingerprint) bool {
	return oldFP.DOMHash != newFP.DOMHash
}

func varianceRatio(oldValue, newValue int) float64 {
	delta := oldValue - newValue
	if delta < 0 {
		delta = -delta
	}

	base := oldValue
	if base < 1 {
		base = 1
	}

	return float64(delta) / float64(base)
}

func missingSelectors(oldSelectors, newSelectors []string) []string {
	present := make(map[string]struct{}, len(newSelectors))
	for _, s := range newSelectors {
		present[s] = struct{}{}
	}

	var missing []string

	for _, s := range oldSelectors {
		if _, ok := present[s]; !ok {
			missing = append(missing, s)
		}
	}

	return missing
}
