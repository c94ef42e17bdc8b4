package sites

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/central-university-dev/go-reward-tracker/internal/domain/models"
	"github.com/central-university-dev/go-reward-tracker/internal/extractor"
)

// RewardsDailyStrategy разбирает rewardsdaily.net: вместо заголовков
// секции размечены выделенными датами <strong>26 August 2026</strong>,
// за которыми до следующего маркера идут обычные якоря. Категория
// берётся из ближайшего родительского section[data-category].
type RewardsDailyStrategy struct {
	extractor.BaseStrategy
}

func NewRewardsDailyStrategy() *RewardsDailyStrategy {
	return &RewardsDailyStrategy{}
}

func (s *RewardsDailyStrategy) Name() string {
	return "rewardsdaily"
}

func (s *RewardsDailyStrategy) CanHandle(url string) bool {
	return strings.Contains(url, "rewardsdaily.net")
}

func (s *RewardsDailyStrategy) Extract(_ context.Context, html, date string) ([]*models.Link, float64, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, 1, nil
	}

	var links []*models.Link

	doc.Find("strong").Each(func(_ int, marker *goquery.Selection) {
		markerDate, ok := extractor.ParseHeadingDate(marker.Text())
		if !ok || markerDate != date {
			return
		}

		category := "rewards"
		if value, exists := marker.Closest("section[data-category]").Attr("data-category"); exists {
			category = value
		}

		marker.Parent().NextUntil("p:has(strong)").Find("a[href]").Each(func(_ int, anchor *goquery.Selection) {
			href, _ := anchor.Attr("href")
			if !strings.HasPrefix(href, "http") {
				return
			}

			links = append(links, &models.Link{
				URL:           strings.TrimSpace(href),
				Title:         strings.TrimSpace(anchor.Text()),
				PublishedDate: markerDate,
				Category:      category,
				Target:        models.TargetSelf,
			})
		})
	})

	return links, 1, nil
}
