package clients

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/central-university-dev/go-reward-tracker/internal/common/httputil"
	"github.com/central-university-dev/go-reward-tracker/internal/config"
)

// WordPressClient публикует результаты извлечения, дописывая их в
// содержимое поста через WordPress REST API (аутентификация по
// application password).
type WordPressClient struct {
	client  *resty.Client
	baseURL string
	logger  *slog.Logger
}

func NewWordPressClient(cfg *config.Config, logger *slog.Logger) *WordPressClient {
	client := httputil.CreateResilientHTTPClient(cfg, logger, "wordpress")
	client.SetBasicAuth(cfg.WordPressUser, cfg.WordPressAppPassword)

	return &WordPressClient{
		client:  client,
		baseURL: cfg.WordPressBaseURL,
		logger:  logger,
	}
}

type wpPost struct {
	Content struct {
		Raw      string `json:"raw"`
		Rendered string `json:"rendered"`
	} `json:"content"`
}

func (c *WordPressClient) GetPostContent(ctx context.Context, postID int64) (string, error) {
	var post wpPost

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("context", "edit").
		SetResult(&post).
		Get(fmt.Sprintf("%s/wp-json/wp/v2/posts/%d", c.baseURL, postID))
	if err != nil {
		return "", fmt.Errorf("ошибка при запросе поста %d: %w", postID, err)
	}

	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("WordPress API вернул статус %d для поста %d", resp.StatusCode(), postID)
	}

	if post.Content.Raw != "" {
		return post.Content.Raw, nil
	}

	return post.Content.Rendered, nil
}

func (c *WordPressClient) UpdatePostContent(ctx context.Context, postID int64, content string) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"content": content}).
		Post(fmt.Sprintf("%s/wp-json/wp/v2/posts/%d", c.baseURL, postID))
	if err != nil {
		return fmt.Errorf("ошибка при обновлении поста %d: %w", postID, err)
	}

	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("WordPress API вернул статус %d при обновлении поста %d", resp.StatusCode(), postID)
	}

	c.logger.Info("Содержимое поста обновлено",
		"postID", postID,
		"size", len(content),
	)

	return nil
}
