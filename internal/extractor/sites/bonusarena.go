package sites

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/central-university-dev/go-reward-tracker/internal/domain/models"
	"github.com/central-university-dev/go-reward-tracker/internal/extractor"
)

// BonusArenaStrategy разбирает bonusarena.io: контейнеры
// div.links-container с атрибутом data-date, внутри ссылки
// a[data-reward-url]. Сайт держит на странице и вчерашнюю секцию до
// следующего обновления, поэтому стратегия объявляет lookback в один
// день.
type BonusArenaStrategy struct {
	extractor.BaseStrategy
}

func NewBonusArenaStrategy() *BonusArenaStrategy {
	return &BonusArenaStrategy{}
}

func (s *BonusArenaStrategy) Name() string {
	return "bonusarena"
}

func (s *BonusArenaStrategy) CanHandle(url string) bool {
	return strings.Contains(url, "bonusarena.io")
}

func (s *BonusArenaStrategy) CheckPreviousDays() int {
	return 1
}

func (s *BonusArenaStrategy) Extract(_ context.Context, html, date string) ([]*models.Link, float64, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, 1, nil
	}

	wanted, err := allowedDates(date, s.CheckPreviousDays())
	if err != nil {
		return nil, 1, nil
	}

	var links []*models.Link

	doc.Find("div.links-container").Each(func(_ int, container *goquery.Selection) {
		containerDate, exists := container.Attr("data-date")
		if !exists {
			return
		}

		if _, ok := wanted[containerDate]; !ok {
			return
		}

		container.Find("a[data-reward-url]").Each(func(_ int, anchor *goquery.Selection) {
			rewardURL, _ := anchor.Attr("data-reward-url")
			if strings.TrimSpace(rewardURL) == "" {
				return
			}

			summary, _ := anchor.Attr("title")

			links = append(links, &models.Link{
				URL:           strings.TrimSpace(rewardURL),
				Title:         strings.TrimSpace(anchor.Text()),
				PublishedDate: containerDate,
				Summary:       strings.TrimSpace(summary),
				Category:      "bonus",
				Target:        models.TargetBlank,
			})
		})
	})

	return links, 1, nil
}
