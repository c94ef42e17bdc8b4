package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/central-university-dev/go-reward-tracker/internal/common"
	"github.com/central-university-dev/go-reward-tracker/internal/common/metrics"
	"github.com/central-university-dev/go-reward-tracker/internal/config"
	"github.com/central-university-dev/go-reward-tracker/internal/domain/models"
	"github.com/central-university-dev/go-reward-tracker/internal/extractor"
	"github.com/central-university-dev/go-reward-tracker/internal/fingerprint"
	"github.com/central-university-dev/go-reward-tracker/internal/monitor"
)

type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}

type Publisher interface {
	GetPostContent(ctx context.Context, postID int64) (string, error)
	UpdatePostContent(ctx context.Context, postID int64, content string) error
}

// TrackerService — цикл обработки одного источника: загрузка страницы,
// извлечение, дедупликация по отпечаткам, публикация и учёт здоровья.
// Сбой любого источника не прерывает обработку остальных.
type TrackerService struct {
	fetcher   Fetcher
	registry  *extractor.Registry
	engine    *fingerprint.Engine
	health    *monitor.HealthTracker
	publisher Publisher
	config    *config.Config
	logger    *slog.Logger
}

func NewTrackerService(
	fetcher Fetcher,
	registry *extractor.Registry,
	engine *fingerprint.Engine,
	health *monitor.HealthTracker,
	publisher Publisher,
	config *config.Config,
	logger *slog.Logger,
) *TrackerService {
	return &TrackerService{
		fetcher:   fetcher,
		registry:  registry,
		engine:    engine,
		health:    health,
		publisher: publisher,
		config:    config,
		logger:    logger,
	}
}

// ProcessAll обрабатывает все источники из конфигурации за указанную
// дату и возвращает накопленные ошибки одним значением.
func (s *TrackerService) ProcessAll(ctx context.Context, date string) error {
	sources, err := s.config.Sources()
	if err != nil {
		return fmt.Errorf("ошибка при разборе конфигурации источников: %w", err)
	}

	if len(sources) == 0 {
		s.logger.Warn("Список источников пуст, обрабатывать нечего")
		return nil
	}

	var errs error

	for _, source := range sources {
		if err := s.ProcessSource(ctx, source, date); err != nil {
			s.logger.Error("Ошибка при обработке источника",
				"url", source.URL,
				"error", err,
			)

			errs = multierr.Append(errs, err)
		}
	}

	return errs
}

func (s *TrackerService) ProcessSource(ctx context.Context, source config.SourceConfig, date string) error {
	started := time.Now()

	strategy, err := s.registry.Resolve(source.URL)
	if err != nil {
		s.recordFailure(ctx, source.URL, date, "", err)
		return err
	}

	html, err := s.fetcher.Fetch(ctx, source.URL)
	if err != nil {
		s.recordFailure(ctx, source.URL, date, html, err)
		metrics.RecordExtractionRun(source.URL, strategy.Name(), "error", time.Since(started))

		return err
	}

	links, codes, confidence, err := s.extract(ctx, strategy, html, date)
	if err != nil {
		s.recordFailure(ctx, source.URL, date, html, err)
		metrics.RecordExtractionRun(source.URL, strategy.Name(), "error", time.Since(started))

		return err
	}

	s.logger.Info("Извлечение завершено",
		"url", source.URL,
		"strategy", strategy.Name(),
		"links", len(links),
		"promoCodes", len(codes),
	)

	freshLinks, freshCodes, err := s.dedupe(ctx, source, strategy, date, links, codes)
	if err != nil {
		s.recordFailure(ctx, source.URL, date, html, err)
		metrics.RecordExtractionRun(source.URL, strategy.Name(), "error", time.Since(started))

		return err
	}

	freshCodes = filterActivePromoCodes(freshCodes, date)

	if err := s.publish(ctx, source, date, freshLinks, freshCodes); err != nil {
		s.recordFailure(ctx, source.URL, date, html, err)
		metrics.RecordExtractionRun(source.URL, strategy.Name(), "error", time.Since(started))

		return err
	}

	if err := s.remember(ctx, source, freshLinks, freshCodes); err != nil {
		s.logger.Error("Не удалось сохранить отпечатки, возможны повторные публикации",
			"url", source.URL,
			"error", err,
		)
	}

	metrics.RecordExtractionRun(source.URL, strategy.Name(), "success", time.Since(started))
	metrics.RecordLinksExtracted(source.URL, string(models.RecordTypeLink), len(freshLinks))
	metrics.RecordLinksExtracted(source.URL, string(models.RecordTypePromoCode), len(freshCodes))
	metrics.RecordDuplicatesSkipped(source.URL, string(models.RecordTypeLink), len(links)-len(freshLinks))

	// В здоровье уходит результат извлечения, а не публикации: после
	// дедупликации свежих записей в течение дня закономерно ноль.
	obs := monitor.Observation{
		SourceURL:  source.URL,
		Date:       date,
		LinksFound: len(links),
		Confidence: confidence,
		Success:    true,
		HTML:       html,
	}

	if err := s.health.RecordExtraction(ctx, obs); err != nil {
		s.logger.Warn("Не удалось зафиксировать результат извлечения",
			"url", source.URL,
			"error", err,
		)
	}

	s.updateHealthMetric(ctx, source.URL)

	return nil
}

// extract изолирует паники стратегий: сломанная разметка одного сайта
// превращается в ошибку извлечения, а не роняет процесс.
func (s *TrackerService) extract(
	ctx context.Context,
	strategy extractor.Strategy,
	html, date string,
) (links []*models.Link, codes []*models.PromoCode, confidence float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Паника в стратегии извлечения",
				"strategy", strategy.Name(),
				"panic", r,
			)

			links = nil
			codes = nil
			confidence = 0
			err = fmt.Errorf("паника в стратегии %s: %v", strategy.Name(), r)
		}
	}()

	links, confidence, err = strategy.Extract(ctx, html, date)
	if err != nil {
		return nil, nil, 0, err
	}

	if strategy.SupportsPromoCodes() {
		codes, err = strategy.ExtractPromoCodes(ctx, html, date)
		if err != nil {
			return nil, nil, 0, err
		}
	}

	return links, codes, confidence, nil
}

func (s *TrackerService) dedupe(
	ctx context.Context,
	source config.SourceConfig,
	strategy extractor.Strategy,
	date string,
	links []*models.Link,
	codes []*models.PromoCode,
) ([]*models.Link, []*models.PromoCode, error) {
	linkKey := models.FingerprintKey{
		PostID:  source.PostID,
		Date:    date,
		SiteKey: source.SiteKey,
		Type:    models.RecordTypeLink,
	}

	knownLinks, err := s.engine.KnownWithLookback(ctx, linkKey, strategy.CheckPreviousDays())
	if err != nil {
		return nil, nil, err
	}

	freshLinks := fingerprint.DedupeLinks(links, knownLinks)

	var freshCodes []*models.PromoCode

	if len(codes) > 0 {
		codeKey := models.FingerprintKey{
			PostID:  source.PostID,
			Date:    date,
			SiteKey: source.SiteKey,
			Type:    models.RecordTypePromoCode,
		}

		knownCodes, err := s.engine.KnownWithLookback(ctx, codeKey, strategy.CheckPreviousDays())
		if err != nil {
			return nil, nil, err
		}

		freshCodes = fingerprint.DedupePromoCodes(codes, knownCodes)
	}

	return freshLinks, freshCodes, nil
}

func (s *TrackerService) publish(
	ctx context.Context,
	source config.SourceConfig,
	date string,
	links []*models.Link,
	codes []*models.PromoCode,
) error {
	if len(links) == 0 && len(codes) == 0 {
		s.logger.Info("Новых записей нет, публикация не требуется",
			"url", source.URL,
		)

		return nil
	}

	content, err := s.publisher.GetPostContent(ctx, source.PostID)
	if err != nil {
		return err
	}

	content += renderBlock(date, links, codes)

	return s.publisher.UpdatePostContent(ctx, source.PostID, content)
}

// remember раскладывает отпечатки по наборам их дат публикации, чтобы
// записи за вчера попадали во вчерашний набор и просмотр назад их видел.
func (s *TrackerService) remember(
	ctx context.Context,
	source config.SourceConfig,
	links []*models.Link,
	codes []*models.PromoCode,
) error {
	var errs error

	byDate := make(map[string][]string)
	for _, link := range links {
		byDate[link.PublishedDate] = append(byDate[link.PublishedDate], fingerprint.LinkFingerprint(link))
	}

	for date, fps := range byDate {
		key := models.FingerprintKey{
			PostID:  source.PostID,
			Date:    date,
			SiteKey: source.SiteKey,
			Type:    models.RecordTypeLink,
		}

		errs = multierr.Append(errs, s.engine.Remember(ctx, key, fps))
	}

	codesByDate := make(map[string][]string)
	for _, code := range codes {
		codesByDate[code.PublishedDate] = append(codesByDate[code.PublishedDate], fingerprint.PromoCodeFingerprint(code))
	}

	for date, fps := range codesByDate {
		key := models.FingerprintKey{
			PostID:  source.PostID,
			Date:    date,
			SiteKey: source.SiteKey,
			Type:    models.RecordTypePromoCode,
		}

		errs = multierr.Append(errs, s.engine.Remember(ctx, key, fps))
	}

	return errs
}

func (s *TrackerService) recordFailure(ctx context.Context, sourceURL, date, html string, cause error) {
	obs := monitor.Observation{
		SourceURL: sourceURL,
		Date:      date,
		Success:   false,
		Error:     cause.Error(),
		HTML:      html,
	}

	if err := s.health.RecordExtraction(ctx, obs); err != nil {
		s.logger.Warn("Не удалось зафиксировать сбой извлечения",
			"url", sourceURL,
			"error", err,
		)
	}

	s.updateHealthMetric(ctx, sourceURL)
}

func (s *TrackerService) updateHealthMetric(ctx context.Context, sourceURL string) {
	mon, err := s.health.GetSourceHealth(ctx, sourceURL)
	if err != nil {
		return
	}

	metrics.UpdateSourceHealth(sourceURL, healthStatusCode(mon.Status))
}

func healthStatusCode(status models.SourceStatus) float64 {
	switch status {
	case models.StatusHealthy:
		return 0
	case models.StatusWarning:
		return 1
	case models.StatusFailing:
		return 2
	default:
		return 3
	}
}

// filterActivePromoCodes отбрасывает промокоды с истёкшим сроком.
// Пустая или нечитаемая дата истечения трактуется как бессрочная.
func filterActivePromoCodes(codes []*models.PromoCode, date string) []*models.PromoCode {
	if len(codes) == 0 {
		return codes
	}

	today, err := common.ParseDate(date)
	if err != nil {
		return codes
	}

	active := make([]*models.PromoCode, 0, len(codes))

	for _, code := range codes {
		if code.ExpiryDate != "" {
			expiry, err := common.ParseDate(code.ExpiryDate)
			if err == nil && expiry.Before(today) {
				continue
			}
		}

		active = append(active, code)
	}

	return active
}

func renderBlock(date string, links []*models.Link, codes []*models.PromoCode) string {
	var b strings.Builder

	b.WriteString("\n<!-- rewards:" + date + " -->\n")

	if len(links) > 0 {
		b.WriteString("<ul class=\"reward-links\">\n")

		for _, link := range links {
			b.WriteString("<li><a href=\"" + link.URL + "\" target=\"" + string(link.Target) + "\" rel=\"noopener\">")
			b.WriteString(htmlEscape(link.Title))
			b.WriteString("</a></li>\n")
		}

		b.WriteString("</ul>\n")
	}

	if len(codes) > 0 {
		b.WriteString("<ul class=\"promo-codes\">\n")

		for _, code := range codes {
			b.WriteString("<li><code>" + htmlEscape(code.Code) + "</code>")

			if code.Description != "" {
				b.WriteString(" — " + htmlEscape(code.Description))
			}

			b.WriteString("</li>\n")
		}

		b.WriteString("</ul>\n")
	}

	return b.String()
}

func htmlEscape(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
	)

	return r.Replace(s)
}
