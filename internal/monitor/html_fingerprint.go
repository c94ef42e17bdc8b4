package monitor

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"github.com/central-university-dev/go-reward-tracker/internal/domain/models"
)

const (
	maxHeadingEntries = 30
	maxHeadingLength  = 50
	domHashLength     = 16
)

// criticalSelectors — фиксированный набор селекторов, исчезновение
// которых почти наверняка означает поломку извлечения.
var criticalSelectors = []string{
	".reward-link",
	"a[data-reward-url]",
	"a.bonus-btn",
	".links-container",
	".daily-rewards",
	"a[data-code]",
}

// ComputeFingerprint строит структурный отпечаток страницы: хэш формы
// DOM, список заголовков, присутствующие критические селекторы и
// количественные характеристики. Текст тела страницы на отпечаток не
// влияет, поэтому ежедневная смена контента хэш не меняет.
func ComputeFingerprint(html string) (*models.HTMLFingerprint, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	headings, headingCount := collectHeadings(doc)

	present := make([]string, 0, len(criticalSelectors))

	for _, selector := range criticalSelectors {
		if doc.Find(selector).Length() > 0 {
			present = append(present, selector)
		}
	}

	return &models.HTMLFingerprint{
		DOMHash:           computeDOMHash(doc),
		HeadingStructure:  headings,
		CriticalSelectors: present,
		HTMLSize:          len(html),
		HeadingCount:      headingCount,
		LinkCount:         countAbsoluteLinks(doc),
		CapturedAt:        time.Now().UTC(),
	}, nil
}

// collectHeadings собирает тексты h1-h6 и выделенные фрагменты,
// похожие на даты-маркеры секций. Возвращает список, усечённый до
// maxHeadingEntries, и полное число найденных записей.
func collectHeadings(doc *goquery.Document) (headings []string, total int) {
	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}

		text = truncateRunes(text, maxHeadingLength)

		total++

		if len(headings) < maxHeadingEntries {
			headings = append(headings, goquery.NodeName(s)+":"+text)
		}
	})

	doc.Find("strong, b").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" || len(text) >= maxHeadingLength || !containsDigit(text) {
			return
		}

		total++

		if len(headings) < maxHeadingEntries {
			headings = append(headings, goquery.NodeName(s)+":"+text)
		}
	})

	return headings, total
}

// computeDOMHash хэширует последовательность сигнатур tag.class1.class2
// структурных элементов в порядке документа. Чувствителен к изменению
// вёрстки, нечувствителен к смене текста.
func computeDOMHash(doc *goquery.Document) string {
	var builder strings.Builder

	doc.Find("h1, h2, h3, h4, h5, h6, section, article, div").Each(func(_ int, s *goquery.Selection) {
		builder.WriteString(goquery.NodeName(s))

		if classes, exists := s.Attr("class"); exists {
			for _, class := range strings.Fields(classes) {
				builder.WriteString(".")
				builder.WriteString(class)
			}
		}

		builder.WriteString(";")
	})

	sum := sha256.Sum256([]byte(builder.String()))

	return hex.EncodeToString(sum[:])[:domHashLength]
}

func countAbsoluteLinks(doc *goquery.Document) int {
	count := 0

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")

		parsed, err := url.Parse(strings.TrimSpace(href))
		if err == nil && parsed.IsAbs() {
			count++
		}
	})

	return count
}

// truncateRunes усечёт строку до limit рун, не разрезая многобайтовые
// символы посередине.
func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}

	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}

	return string(runes[:limit])
}

func containsDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}

	return false
}
