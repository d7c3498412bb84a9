package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ANAVHEOBA/softwaresystem/internal/config"
	"github.com/ANAVHEOBA/softwaresystem/internal/domain"
	"github.com/ANAVHEOBA/softwaresystem/internal/logging"
	"github.com/ANAVHEOBA/softwaresystem/internal/metrics"
)

// DefaultTimeout bounds every upstream call.
const DefaultTimeout = 30 * time.Second

// ChatCompletionRequest represents the OpenAI chat completion request.
type ChatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
	TopP        *float64      `json:"top_p,omitempty"`
	Stop        interface{}   `json:"stop,omitempty"`
}

// ChatMessage represents a chat message.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Name    string `json:"name,omitempty"`
}

// ChatCompletionResponse represents the OpenAI chat completion response.
type ChatCompletionResponse struct {
	ID                string        `json:"id"`
	Object            string        `json:"object"`
	Created           int64         `json:"created"`
	Model             string        `json:"model"`
	Choices           []Choice      `json:"choices"`
	Usage             *domain.Usage `json:"usage,omitempty"`
	SystemFingerprint string        `json:"system_fingerprint,omitempty"`
}

// Choice represents a completion choice.
type Choice struct {
	Index        int          `json:"index"`
	Message      *ChatMessage `json:"message,omitempty"`
	FinishReason string       `json:"finish_reason,omitempty"`
}

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error *ErrorDetail `json:"error"`
}

// ErrorDetail represents the error details.
type ErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
	Param   string `json:"param,omitempty"`
}

// CompletionRequest is a single-turn completion.
// Nil optional fields are omitted from the upstream request.
type CompletionRequest struct {
	Prompt       string
	Model        string
	SystemPrompt *string
	MaxTokens    *int
	Temperature  *float64
}

// Completion is the result of Complete, Suggest and Analyze.
type Completion struct {
	ID      string
	Content string
	Model   string
	Usage   *domain.Usage
}

// Client talks to one OpenAI-compatible provider.
type Client struct {
	provider     string
	baseURL      string
	apiKey       string
	defaultModel string
	headers      map[string]string
	httpClient   *http.Client
	limiter      *rate.Limiter
	preset       *Preset
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-call timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRateLimit caps outbound requests per second. Zero disables the limit.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			burst := int(rps)
			if burst < 1 {
				burst = 1
			}
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithPreset selects the prompt preset used by Suggest and Analyze.
func WithPreset(p *Preset) Option {
	return func(c *Client) {
		if p != nil {
			c.preset = p
		}
	}
}

// WithDefaultModel overrides the provider's default model.
func WithDefaultModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.defaultModel = model
		}
	}
}

// NewClient creates a client for profile. It fails with domain.ErrMissingAPIKey
// when the profile has no key.
func NewClient(profile config.ProviderConfig, opts ...Option) (*Client, error) {
	if strings.TrimSpace(profile.APIKey) == "" {
		return nil, fmt.Errorf("%s: %w", profile.Name, domain.ErrMissingAPIKey)
	}
	c := &Client{
		provider:     profile.Name,
		baseURL:      strings.TrimSuffix(profile.BaseURL, "/"),
		apiKey:       profile.APIKey,
		defaultModel: profile.DefaultModel,
		headers:      profile.Headers,
		httpClient:   &http.Client{Timeout: DefaultTimeout},
		preset:       StandardPreset,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NewFallbackClient returns a client for primary, or for secondary when primary
// has no API key. The choice is made once; failed calls are not retried on the
// other provider.
func NewFallbackClient(primary, secondary config.ProviderConfig, opts ...Option) (*Client, error) {
	c, err := NewClient(primary, opts...)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, domain.ErrMissingAPIKey) {
		return nil, err
	}
	return NewClient(secondary, opts...)
}

// Provider returns the provider name.
func (c *Client) Provider() string { return c.provider }

// DefaultModel returns the model used when a request names none.
func (c *Client) DefaultModel() string { return c.defaultModel }

// Preset returns the prompt set used by Suggest and Analyze.
func (c *Client) Preset() *Preset { return c.preset }

// Complete sends a single-turn completion.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	resp, err := c.CreateChatCompletion(ctx, toChatRequest(req, c.defaultModel))
	if err != nil {
		return nil, err
	}
	return fromChatResponse(resp)
}

// Suggest produces a real-time suggestion for text.
func (c *Client) Suggest(ctx context.Context, text, model string, t SuggestionType) (*Completion, error) {
	return c.Complete(ctx, c.preset.SuggestRequest(text, model, t))
}

// Analyze produces an analysis of text.
func (c *Client) Analyze(ctx context.Context, text, model string, t AnalysisType) (*Completion, error) {
	return c.Complete(ctx, c.preset.AnalyzeRequest(text, model, t))
}

// CreateChatCompletion sends a chat completion request (non-streaming).
func (c *Client) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	req.Stream = false
	if req.Model == "" {
		req.Model = c.defaultModel
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(httpReq)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.observe(req.Model, "transport_error", start)
		return nil, &domain.APIError{Message: fmt.Sprintf("%s request failed: %v", c.provider, err), Retryable: true}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.observe(req.Model, "transport_error", start)
		return nil, &domain.APIError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read response: %v", err), Retryable: true}
	}
	c.observe(req.Model, strconv.Itoa(resp.StatusCode), start)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logging.FromContext(ctx).Warn("upstream completion failed",
			"provider", c.provider, "model", req.Model, "status", resp.StatusCode)
		var errResp ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != nil && errResp.Error.Message != "" {
			return nil, &domain.APIError{StatusCode: resp.StatusCode, Message: errResp.Error.Message}
		}
		return nil, &domain.APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	var result ChatCompletionResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, domain.InvalidResponse(fmt.Sprintf("failed to unmarshal response: %v", err))
	}
	if result.Model == "" {
		result.Model = req.Model
	}
	return &result, nil
}

func (c *Client) observe(model, status string, start time.Time) {
	metrics.ProviderRequestDuration.WithLabelValues(c.provider, model, status).Observe(time.Since(start).Seconds())
}

// setHeaders sets common request headers.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
}

func toChatRequest(req CompletionRequest, defaultModel string) *ChatCompletionRequest {
	model := req.Model
	if model == "" {
		model = defaultModel
	}
	messages := make([]ChatMessage, 0, 2)
	if req.SystemPrompt != nil {
		messages = append(messages, ChatMessage{Role: domain.RoleSystem, Content: *req.SystemPrompt})
	}
	messages = append(messages, ChatMessage{Role: domain.RoleUser, Content: req.Prompt})
	return &ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
}

func fromChatResponse(resp *ChatCompletionResponse) (*Completion, error) {
	if len(resp.Choices) == 0 || resp.Choices[0].Message == nil {
		return nil, domain.InvalidResponse("no choices in response")
	}
	return &Completion{
		ID:      resp.ID,
		Content: resp.Choices[0].Message.Content,
		Model:   resp.Model,
		Usage:   resp.Usage,
	}, nil
}
