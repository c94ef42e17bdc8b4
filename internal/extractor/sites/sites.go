package sites

import (
	"github.com/central-university-dev/go-reward-tracker/internal/common"
)

// allowedDates — запрошенная дата плюс previousDays предшествующих
// дней. Стратегии с lookback намеренно извлекают и вчерашние записи:
// слой дедупликации отсеет уже опубликованные.
func allowedDates(date string, previousDays int) (map[string]struct{}, error) {
	wanted := map[string]struct{}{date: {}}

	if previousDays <= 0 {
		return wanted, nil
	}

	days, err := common.PreviousDays(date, previousDays)
	if err != nil {
		return nil, err
	}

	for _, day := range days {
		wanted[day] = struct{}{}
	}

	return wanted, nil
}
