package sites

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/central-university-dev/go-reward-tracker/internal/domain/models"
	"github.com/central-university-dev/go-reward-tracker/internal/extractor"
)

// PromoHuntStrategy разбирает promohunt.app: блок div.daily-rewards со
// ссылками на сегодня и список li[data-code] с промокодами. Даты на
// странице нет — сайт показывает только текущий день, поэтому все
// записи датируются запрошенной датой.
type PromoHuntStrategy struct {
	extractor.BaseStrategy
}

func NewPromoHuntStrategy() *PromoHuntStrategy {
	return &PromoHuntStrategy{}
}

func (s *PromoHuntStrategy) Name() string {
	return "promohunt"
}

func (s *PromoHuntStrategy) CanHandle(url string) bool {
	return strings.Contains(url, "promohunt.app")
}

func (s *PromoHuntStrategy) SupportsPromoCodes() bool {
	return true
}

func (s *PromoHuntStrategy) Extract(_ context.Context, html, date string) ([]*models.Link, float64, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, 1, nil
	}

	var links []*models.Link

	doc.Find("div.daily-rewards a[href]").Each(func(_ int, anchor *goquery.Selection) {
		href, _ := anchor.Attr("href")
		if !strings.HasPrefix(href, "http") {
			return
		}

		links = append(links, &models.Link{
			URL:           strings.TrimSpace(href),
			Title:         strings.TrimSpace(anchor.Text()),
			PublishedDate: date,
			Category:      "rewards",
			Target:        models.TargetBlank,
		})
	})

	return links, 1, nil
}

func (s *PromoHuntStrategy) ExtractPromoCodes(_ context.Context, html, date string) ([]*models.PromoCode, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, nil
	}

	var codes []*models.PromoCode

	doc.Find("li[data-code]").Each(func(_ int, item *goquery.Selection) {
		code, _ := item.Attr("data-code")
		if strings.TrimSpace(code) == "" {
			return
		}

		codes = append(codes, &models.PromoCode{
			Code:          strings.TrimSpace(code),
			Description:   strings.TrimSpace(item.Text()),
			PublishedDate: date,
			Category:      "rewards",
		})
	})

	return codes, nil
}
