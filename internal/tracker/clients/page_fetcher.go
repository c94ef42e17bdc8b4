package clients

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/central-university-dev/go-reward-tracker/internal/common/httputil"
	"github.com/central-university-dev/go-reward-tracker/internal/config"
	"github.com/central-university-dev/go-reward-tracker/internal/domain/errors"
)

const fetcherUserAgent = "Mozilla/5.0 (compatible; RewardTracker/1.0)"

// PageFetcher забирает HTML страниц источников. Сетевые сбои и ответы 5xx
// покрываются ретраями и circuit breaker'ом резилентного клиента.
type PageFetcher struct {
	client *resty.Client
	logger *slog.Logger
}

func NewPageFetcher(cfg *config.Config, logger *slog.Logger) *PageFetcher {
	client := httputil.CreateResilientHTTPClient(cfg, logger, "page_fetcher")
	client.SetHeader("User-Agent", fetcherUserAgent)

	return &PageFetcher{
		client: client,
		logger: logger,
	}
}

func (f *PageFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		Get(pageURL)
	if err != nil {
		return "", &errors.ErrExtractionFailed{URL: pageURL, Cause: err}
	}

	if resp.StatusCode() != http.StatusOK {
		return "", &errors.ErrExtractionFailed{
			URL:   pageURL,
			Cause: &errors.HTTPError{StatusCode: resp.StatusCode()},
		}
	}

	html := resp.String()
	if strings.TrimSpace(html) == "" {
		return "", &errors.ErrEmptyPage{URL: pageURL}
	}

	f.logger.Debug("Страница источника получена",
		"url", pageURL,
		"size", len(html),
	)

	return html, nil
}
