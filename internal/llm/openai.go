// internal/llm/openai.go
package llm

import (
	"context"

	openai "github.com/sashabaranov/go-openai"

	"hr-assistant/internal/common/config"
	apperrors "hr-assistant/internal/common/errors"
	"hr-assistant/internal/common/logger"
	"hr-assistant/internal/models"
)

// OpenAIClient implements ChatClient over the OpenAI chat completions API.
// Any OpenAI-compatible endpoint works via BaseURL.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float64
	logger      logger.Logger
}

func NewOpenAIClient(cfg config.LLMConfig, log logger.Logger) *OpenAIClient {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIClient{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		logger:      log.With(map[string]interface{}{"component": "llm"}),
	}
}

func (c *OpenAIClient) Send(ctx context.Context, messages []models.Message, opts SendOptions) (*ChatResult, error) {
	model := opts.Model
	if model == "" {
		model = c.model
	}
	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.maxTokens
	}
	temperature := opts.Temperature
	if temperature == 0 {
		temperature = c.temperature
	}

	chatMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		chatMessages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    chatMessages,
		MaxTokens:   maxTokens,
		Temperature: float32(temperature),
	})
	if err != nil {
		c.logger.Error("chat completion failed", map[string]interface{}{
			"model": model,
			"error": err.Error(),
		})
		return nil, apperrors.NewLLMCallError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, apperrors.NewLLMCallError(nil)
	}

	choice := resp.Choices[0]
	result := &ChatResult{
		Content: choice.Message.Content,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
	for _, tc := range choice.Message.ToolCalls {
		result.ToolCalls = append(result.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return result, nil
}
