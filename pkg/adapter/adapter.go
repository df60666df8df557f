// Package adapter provides LLM provider backends for program generation
// and result interpretation.
package adapter

import "context"

// Adapter is the interface for LLM provider backends.
type Adapter interface {
	// Generate sends a prompt to the model and returns the response text.
	Generate(ctx context.Context, model string, prompt string) (*Response, error)

	// Name returns the adapter's identifier.
	Name() string

	// Models returns the list of supported models.
	Models() []string
}

// Usage captures normalized token usage.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response wraps an adapter output and optional usage data.
type Response struct {
	Content string
	Usage   *Usage
}
