package sites

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/central-university-dev/go-reward-tracker/internal/common"
	"github.com/central-university-dev/go-reward-tracker/internal/domain/models"
	"github.com/central-university-dev/go-reward-tracker/internal/extractor"
)

// CoinBlitzStrategy разбирает coinblitz.fun: статьи article с
// заголовками h3 вида "26.08.2026" и кнопками a.bonus-btn, плюс
// таблица промокодов table.promo-codes. Сайт держит записи за два
// предыдущих дня.
type CoinBlitzStrategy struct {
	extractor.BaseStrategy
}

func NewCoinBlitzStrategy() *CoinBlitzStrategy {
	return &CoinBlitzStrategy{}
}

func (s *CoinBlitzStrategy) Name() string {
	return "coinblitz"
}

func (s *CoinBlitzStrategy) CanHandle(url string) bool {
	return strings.Contains(url, "coinblitz.fun")
}

func (s *CoinBlitzStrategy) CheckPreviousDays() int {
	return 2
}

func (s *CoinBlitzStrategy) SupportsPromoCodes() bool {
	return true
}

func (s *CoinBlitzStrategy) Extract(_ context.Context, html, date string) ([]*models.Link, float64, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, 1, nil
	}

	wanted, err := allowedDates(date, s.CheckPreviousDays())
	if err != nil {
		return nil, 1, nil
	}

	var links []*models.Link

	doc.Find("article").Each(func(_ int, article *goquery.Selection) {
		articleDate, ok := extractor.ParseHeadingDate(article.Find("h3").First().Text())
		if !ok {
			return
		}

		if _, wantedDay := wanted[articleDate]; !wantedDay {
			return
		}

		article.Find("a.bonus-btn").Each(func(_ int, anchor *goquery.Selection) {
			href, exists := anchor.Attr("href")
			if !exists || strings.TrimSpace(href) == "" {
				return
			}

			links = append(links, &models.Link{
				URL:           strings.TrimSpace(href),
				Title:         strings.TrimSpace(anchor.Text()),
				PublishedDate: articleDate,
				Category:      "coins",
				Target:        models.TargetBlank,
			})
		})
	})

	return links, 1, nil
}

// ExtractPromoCodes разбирает таблицу промокодов. Строки с нечитаемой
// датой истечения не отбрасываются целиком: пропускается только дата.
func (s *CoinBlitzStrategy) ExtractPromoCodes(_ context.Context, html, date string) ([]*models.PromoCode, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, nil
	}

	var codes []*models.PromoCode

	doc.Find("table.promo-codes tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}

		code := strings.TrimSpace(cells.Eq(0).Text())
		if code == "" {
			return
		}

		expiry := ""

		if raw := strings.TrimSpace(cells.Eq(2).Text()); raw != "" {
			if parsed, parseErr := common.ParseDate(raw); parseErr == nil {
				expiry = common.FormatDate(parsed)
			}
		}

		codes = append(codes, &models.PromoCode{
			Code:          code,
			Description:   strings.TrimSpace(cells.Eq(1).Text()),
			PublishedDate: date,
			ExpiryDate:    expiry,
			Category:      "coins",
		})
	})

	return codes, nil
}
