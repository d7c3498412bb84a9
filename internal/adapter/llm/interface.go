// Package llm provides the gateway to OpenAI-compatible chat-completion providers.
package llm

import "context"

// LLMClient defines the interface for LLM API operations.
type LLMClient interface {
	// Provider names the upstream the client is bound to.
	Provider() string
	// DefaultModel is used when a request names no model.
	DefaultModel() string
	// Preset is the prompt set used by Suggest and Analyze.
	Preset() *Preset

	// Complete sends a single-turn completion.
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
	// Suggest applies the suggestion prompt for t to text.
	Suggest(ctx context.Context, text, model string, t SuggestionType) (*Completion, error)
	// Analyze applies the analysis prompt for t to text.
	Analyze(ctx context.Context, text, model string, t AnalysisType) (*Completion, error)

	// CreateChatCompletion forwards a raw chat completion request (non-streaming).
	CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error)
}

// Ensure Client implements LLMClient interface.
var _ LLMClient = (*Client)(nil)
