package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient — структурированный вывод модели: ответ запрашивается
// в формате json_object и десериализуется в переданную структуру.
type OpenAIClient struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

func NewOpenAIClient(apiKey, model string, logger *slog.Logger) *OpenAIClient {
	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		model:  model,
		logger: logger,
	}
}

func (c *OpenAIClient) Infer(ctx context.Context, prompt string, result any) error {
	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		},
	)
	if err != nil {
		return fmt.Errorf("ошибка при запросе к модели: %w", err)
	}

	if len(resp.Choices) == 0 {
		return fmt.Errorf("модель вернула пустой ответ")
	}

	content := resp.Choices[0].Message.Content

	if err := json.Unmarshal([]byte(content), result); err != nil {
		c.logger.Warn("Не удалось разобрать ответ модели",
			"model", c.model,
			"error", err,
		)

		return fmt.Errorf("ошибка при разборе ответа модели: %w", err)
	}

	return nil
}
