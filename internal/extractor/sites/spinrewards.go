package sites

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/central-university-dev/go-reward-tracker/internal/domain/models"
	"github.com/central-university-dev/go-reward-tracker/internal/extractor"
)

// SpinRewardsStrategy разбирает spinrewards.net: страница разбита на
// секции заголовками h2 с датой, под каждым заголовком список ссылок
// a.reward-link. Публикуется только текущий день.
type SpinRewardsStrategy struct {
	extractor.BaseStrategy
}

func NewSpinRewardsStrategy() *SpinRewardsStrategy {
	return &SpinRewardsStrategy{}
}

func (s *SpinRewardsStrategy) Name() string {
	return "spinrewards"
}

func (s *SpinRewardsStrategy) CanHandle(url string) bool {
	return strings.Contains(url, "spinrewards.net")
}

func (s *SpinRewardsStrategy) Extract(_ context.Context, html, date string) ([]*models.Link, float64, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, 1, nil
	}

	var links []*models.Link

	doc.Find("h2").Each(func(_ int, heading *goquery.Selection) {
		headingDate, ok := extractor.ParseHeadingDate(heading.Text())
		if !ok || headingDate != date {
			return
		}

		// Ссылки секции лежат между этим заголовком и следующим h2.
		heading.NextUntil("h2").Find("a.reward-link").Each(func(_ int, anchor *goquery.Selection) {
			href, exists := anchor.Attr("href")
			if !exists || strings.TrimSpace(href) == "" {
				return
			}

			links = append(links, &models.Link{
				URL:           strings.TrimSpace(href),
				Title:         strings.TrimSpace(anchor.Text()),
				PublishedDate: headingDate,
				Category:      "spins",
				Target:        models.TargetBlank,
			})
		})
	})

	return links, 1, nil
}
