package fingerprint

import (
	"github.com/central-university-dev/go-reward-tracker/internal/domain/models"
)

// Delimiter разделяет URL и дату публикации внутри отпечатка.
const Delimiter = "||"

// Fingerprint — детерминированная идентичность записи. Две записи с
// одинаковыми URL и датой публикации всегда считаются одной и той же,
// независимо от заголовка и описания.
func Fingerprint(url, publishedDate string) string {
	return url + Delimiter + publishedDate
}

func LinkFingerprint(link *models.Link) string {
	return Fingerprint(link.URL, link.PublishedDate)
}

// PromoCodeFingerprint — сам код, без даты: промокод, переопубликованный
// на следующий день, остаётся тем же промокодом.
func PromoCodeFingerprint(code *models.PromoCode) string {
	return code.Code
}

// DedupeLinks возвращает записи, отпечатков которых нет в known,
// подавляя и дубликаты внутри самой пачки. Порядок первого вхождения
// сохраняется, входной срез не изменяется.
func DedupeLinks(links []*models.Link, known map[string]struct{}) []*models.Link {
	seen := make(map[string]struct{}, len(links))
	result := make([]*models.Link, 0, len(links))

	for _, link := range links {
		fp := LinkFingerprint(link)

		if _, ok := known[fp]; ok {
			continue
		}

		if _, ok := seen[fp]; ok {
			continue
		}

		seen[fp] = struct{}{}

		result = append(result, link)
	}

	return result
}

func DedupePromoCodes(codes []*models.PromoCode, known map[string]struct{}) []*models.PromoCode {
	seen := make(map[string]struct{}, len(codes))
	result := make([]*models.PromoCode, 0, len(codes))

	for _, code := range codes {
		fp := PromoCodeFingerprint(code)

		if _, ok := known[fp]; ok {
			continue
		}

		if _, ok := seen[fp]; ok {
			continue
		}

		seen[fp] = struct{}{}

		result = append(result, code)
	}

	return result
}

// FilterOnlyToday отбрасывает записи с датой публикации, отличной от date.
// Не используется вместе с lookback-механизмом экстракторов: тот путь
// намеренно сохраняет вчерашние записи ради дедупликации.
func FilterOnlyToday(links []*models.Link, date string) []*models.Link {
	result := make([]*models.Link, 0, len(links))

	for _, link := range links {
		if link.PublishedDate == date {
			result = append(result, link)
		}
	}

	return result
}

func LinkFingerprints(links []*models.Link) []string {
	fps := make([]string, 0, len(links))
	for _, link := range links {
		fps = append(fps, LinkFingerprint(link))
	}

	return fps
}

func PromoCodeFingerprints(codes []*models.PromoCode) []string {
	fps := make([]string, 0, len(codes))
	for _, code := range codes {
		fps = append(fps, PromoCodeFingerprint(code))
	}

	return fps
}
