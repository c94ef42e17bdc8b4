package common

import (
	"time"

	"github.com/central-university-dev/go-reward-tracker/internal/domain/errors"
)

// DateLayout — формат дат публикации во всех записях и ключах.
const DateLayout = "2006-01-02"

func ParseDate(value string) (time.Time, error) {
	parsed, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, &errors.ErrMalformedDate{Value: value}
	}

	return parsed, nil
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// PreviousDays возвращает n календарных дней, предшествующих date,
// от ближайшего к date к самому раннему.
func PreviousDays(date string, n int) ([]string, error) {
	parsed, err := ParseDate(date)
	if err != nil {
		return nil, err
	}

	days := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		days = append(days, FormatDate(parsed.AddDate(0, 0, -i)))
	}

	return days, nil
}

func Today() string {
	return FormatDate(time.Now().UTC())
}
