package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ANAVHEOBA/softwaresystem/internal/domain"
)

const mockModel = "mock-model"

// MockClient is an offline implementation of LLMClient. Replies are derived
// from the request so they are deterministic.
type MockClient struct {
	preset *Preset

	mu       sync.Mutex
	requests []*ChatCompletionRequest
	err      error
}

// MockOption configures a MockClient.
type MockOption func(*MockClient)

// WithMockPreset selects the prompt preset used by Suggest and Analyze.
func WithMockPreset(p *Preset) MockOption {
	return func(m *MockClient) {
		if p != nil {
			m.preset = p
		}
	}
}

// WithMockError makes every call fail with err.
func WithMockError(err error) MockOption {
	return func(m *MockClient) { m.err = err }
}

// NewMockClient creates a new mock LLM client.
func NewMockClient(opts ...MockOption) *MockClient {
	m := &MockClient{preset: StandardPreset}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Ensure MockClient implements LLMClient interface.
var _ LLMClient = (*MockClient)(nil)

// Provider returns "mock".
func (m *MockClient) Provider() string { return "mock" }

// DefaultModel returns the mock model name.
func (m *MockClient) DefaultModel() string { return mockModel }

// Preset returns the prompt set used by Suggest and Analyze.
func (m *MockClient) Preset() *Preset { return m.preset }

// Complete returns a mock completion.
func (m *MockClient) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	resp, err := m.CreateChatCompletion(ctx, toChatRequest(req, mockModel))
	if err != nil {
		return nil, err
	}
	return fromChatResponse(resp)
}

// Suggest returns a mock suggestion.
func (m *MockClient) Suggest(ctx context.Context, text, model string, t SuggestionType) (*Completion, error) {
	return m.Complete(ctx, m.preset.SuggestRequest(text, model, t))
}

// Analyze returns a mock analysis.
func (m *MockClient) Analyze(ctx context.Context, text, model string, t AnalysisType) (*Completion, error) {
	return m.Complete(ctx, m.preset.AnalyzeRequest(text, model, t))
}

// CreateChatCompletion returns a mock response.
func (m *MockClient) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Model == "" {
		req.Model = mockModel
	}

	m.mu.Lock()
	m.requests = append(m.requests, req)
	err := m.err
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	content := generateMockResponse(req)
	prompt := estimateTokens(req)
	completion := len(content) / 4

	return &ChatCompletionResponse{
		ID:      "mock-chatcmpl-" + uuid.NewString(),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []Choice{
			{
				Index:        0,
				Message:      &ChatMessage{Role: domain.RoleAssistant, Content: content},
				FinishReason: "stop",
			},
		},
		Usage: &domain.Usage{
			PromptTokens:     prompt,
			CompletionTokens: completion,
			TotalTokens:      prompt + completion,
		},
	}, nil
}

// Requests returns the requests received so far.
func (m *MockClient) Requests() []*ChatCompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*ChatCompletionRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// generateMockResponse echoes the last user message.
func generateMockResponse(req *ChatCompletionRequest) string {
	var lastUserMessage string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == domain.RoleUser {
			lastUserMessage = req.Messages[i].Content
			break
		}
	}

	if lastUserMessage == "" {
		return "[MOCK] This is a mock response from the LLM client."
	}

	return fmt.Sprintf("[MOCK] Received your message: %q. This is a mock response.", truncate(lastUserMessage, 100))
}

// estimateTokens provides a rough token count estimate.
func estimateTokens(req *ChatCompletionRequest) int {
	total := 0
	for _, msg := range req.Messages {
		total += len(msg.Content) / 4
	}
	return total
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
