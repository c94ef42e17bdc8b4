package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/central-university-dev/go-reward-tracker/internal/domain/models"
)

// LLMClient — внешний коллаборатор для структурированного вывода
// модели. Реализация отвечает за таймауты и повторы.
type LLMClient interface {
	Infer(ctx context.Context, prompt string, result any) error
}

const maxFallbackHeadings = 40

type headingSelection struct {
	Headings   []string `json:"headings"`
	Confidence float64  `json:"confidence"`
}

type extractedRecords struct {
	Links []struct {
		URL   string `json:"url"`
		Title string `json:"title"`
	} `json:"links"`
	Confidence float64 `json:"confidence"`
}

// LLMFallbackStrategy — резервная стратегия для сайтов без
// специализированного парсера. Работает в два запроса: сначала модель
// выбирает заголовки, под которыми опубликован контент запрошенной
// даты, затем извлекает записи только из этих секций. Результат с
// уверенностью ниже порога отбрасывается целиком: пустой ответ лучше
// догадки.
type LLMFallbackStrategy struct {
	BaseStrategy

	client              LLMClient
	confidenceThreshold float64
	logger              *slog.Logger
}

func NewLLMFallbackStrategy(client LLMClient, confidenceThreshold float64, logger *slog.Logger) *LLMFallbackStrategy {
	return &LLMFallbackStrategy{
		client:              client,
		confidenceThreshold: confidenceThreshold,
		logger:              logger,
	}
}

func (s *LLMFallbackStrategy) Name() string {
	return "llm_fallback"
}

// CanHandle безусловно истинен: стратегия регистрируется резервной и
// проверяется последней.
func (s *LLMFallbackStrategy) CanHandle(_ string) bool {
	return true
}

// Extract сообщает уверенностью меньшую из самооценок двух стадий:
// отброшенный по порогу результат возвращается пустым, но с честной
// низкой уверенностью, чтобы трекер здоровья её увидел.
func (s *LLMFallbackStrategy) Extract(ctx context.Context, html, date string) ([]*models.Link, float64, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, 1, nil
	}

	headings := collectPageHeadings(doc)
	if len(headings) == 0 {
		return nil, 1, nil
	}

	selected, selectionConfidence, err := s.selectHeadings(ctx, headings, date)
	if err != nil {
		return nil, 0, err
	}

	if len(selected) == 0 {
		return nil, selectionConfidence, nil
	}

	sections := cutSections(doc, selected)
	if len(sections) == 0 {
		return nil, selectionConfidence, nil
	}

	links, extractionConfidence, err := s.extractFromSections(ctx, sections, date)
	if err != nil {
		return nil, 0, err
	}

	return links, min(selectionConfidence, extractionConfidence), nil
}

// selectHeadings — первая стадия: ранжированный выбор максимум двух
// заголовков, вводящих контент запрошенной даты.
func (s *LLMFallbackStrategy) selectHeadings(ctx context.Context, headings []string, date string) ([]string, float64, error) {
	prompt := fmt.Sprintf(
		"Ниже список заголовков страницы с ежедневными наградами. "+
			"Выбери не более двух заголовков, под которыми скорее всего опубликован контент за %s, "+
			"в порядке убывания вероятности. "+
			"Ответь JSON вида {\"headings\": [\"...\"], \"confidence\": 0.0-1.0}.\n\n%s",
		date, strings.Join(headings, "\n"),
	)

	var selection headingSelection
	if err := s.client.Infer(ctx, prompt, &selection); err != nil {
		return nil, 0, err
	}

	if selection.Confidence < s.confidenceThreshold {
		s.logger.Info("Выбор заголовков отброшен из-за низкой уверенности",
			"confidence", selection.Confidence,
			"threshold", s.confidenceThreshold,
		)

		return nil, selection.Confidence, nil
	}

	if len(selection.Headings) > 2 {
		selection.Headings = selection.Headings[:2]
	}

	return selection.Headings, selection.Confidence, nil
}

// extractFromSections — вторая стадия: структурированное извлечение
// записей только из выбранных секций.
func (s *LLMFallbackStrategy) extractFromSections(ctx context.Context, sections []string, date string) ([]*models.Link, float64, error) {
	prompt := fmt.Sprintf(
		"Извлеки ссылки на награды из следующих фрагментов HTML. "+
			"Ответь JSON вида {\"links\": [{\"url\": \"...\", \"title\": \"...\"}], \"confidence\": 0.0-1.0}.\n\n%s",
		strings.Join(sections, "\n\n"),
	)

	var records extractedRecords
	if err := s.client.Infer(ctx, prompt, &records); err != nil {
		return nil, 0, err
	}

	if records.Confidence < s.confidenceThreshold {
		s.logger.Info("Результат извлечения отброшен из-за низкой уверенности",
			"confidence", records.Confidence,
			"threshold", s.confidenceThreshold,
		)

		return nil, records.Confidence, nil
	}

	links := make([]*models.Link, 0, len(records.Links))

	for _, record := range records.Links {
		if strings.TrimSpace(record.URL) == "" {
			continue
		}

		links = append(links, &models.Link{
			URL:           strings.TrimSpace(record.URL),
			Title:         strings.TrimSpace(record.Title),
			PublishedDate: date,
			Target:        models.TargetBlank,
		})
	}

	return links, records.Confidence, nil
}

func collectPageHeadings(doc *goquery.Document) []string {
	var headings []string

	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, heading *goquery.Selection) {
		text := strings.TrimSpace(heading.Text())
		if text == "" || len(headings) >= maxFallbackHeadings {
			return
		}

		headings = append(headings, text)
	})

	return headings
}

// cutSections возвращает HTML от выбранного заголовка до следующего
// заголовка того же или более высокого уровня.
func cutSections(doc *goquery.Document, selected []string) []string {
	wanted := make(map[string]struct{}, len(selected))
	for _, text := range selected {
		wanted[strings.TrimSpace(text)] = struct{}{}
	}

	var sections []string

	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, heading *goquery.Selection) {
		if _, ok := wanted[strings.TrimSpace(heading.Text())]; !ok {
			return
		}

		var builder strings.Builder

		if outer, err := goquery.OuterHtml(heading); err == nil {
			builder.WriteString(outer)
		}

		heading.NextUntil("h1, h2, h3, h4, h5, h6").Each(func(_ int, sibling *goquery.Selection) {
			if outer, err := goquery.OuterHtml(sibling); err == nil {
				builder.WriteString(outer)
			}
		})

		sections = append(sections, builder.String())
	})

	return sections
}
