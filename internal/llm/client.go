// Package llm is the outbound chat boundary. The engine makes exactly one
// call per query through ChatClient; retry and backoff belong to the
// transport layer above, never here.
package llm

import (
	"context"

	"hr-assistant/internal/models"
)

// Usage reports the provider's token accounting for one call.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// ToolCall is a structured action the model requested instead of (or beside)
// text content.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ChatResult is the structured result of one chat completion.
type ChatResult struct {
	Content   string     `json:"content"`
	Usage     Usage      `json:"usage"`
	ToolCalls []ToolCall `json:"toolCalls,omitempty"`
}

// SendOptions tunes one call. Zero values defer to the client's defaults.
type SendOptions struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

// ChatClient performs a single chat completion.
type ChatClient interface {
	Send(ctx context.Context, messages []models.Message, opts SendOptions) (*ChatResult, error)
}
