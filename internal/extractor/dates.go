package extractor

import (
	"regexp"
	"strings"
	"time"

	"github.com/central-university-dev/go-reward-tracker/internal/common"
)

// headingDateLayouts — форматы дат, встречающиеся в заголовках секций
// на известных источниках.
var headingDateLayouts = []string{
	"January 2, 2006",
	"January 2 2006",
	"2 January 2006",
	"02.01.2006",
	"2.1.2006",
	common.DateLayout,
}

var headingDatePattern = regexp.MustCompile(
	`(\d{4}-\d{2}-\d{2}|\d{1,2}\.\d{1,2}\.\d{4}|[A-Z][a-z]+ \d{1,2},? \d{4}|\d{1,2} [A-Z][a-z]+ \d{4})`,
)

// ParseHeadingDate выделяет дату из текста заголовка секции и приводит
// её к формату YYYY-MM-DD. Заголовки без распознаваемой даты
// пропускаются вызывающим кодом.
func ParseHeadingDate(text string) (string, bool) {
	match := headingDatePattern.FindString(strings.TrimSpace(text))
	if match == "" {
		return "", false
	}

	for _, layout := range headingDateLayouts {
		if parsed, err := time.Parse(layout, match); err == nil {
			return common.FormatDate(parsed), true
		}
	}

	return "", false
}
