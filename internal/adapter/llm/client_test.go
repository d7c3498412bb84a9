package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ANAVHEOBA/softwaresystem/internal/config"
	"github.com/ANAVHEOBA/softwaresystem/internal/domain"
)

func profile(name, baseURL, key string) config.ProviderConfig {
	return config.ProviderConfig{Name: name, BaseURL: baseURL, APIKey: key, DefaultModel: name + "-default"}
}

// upstream records the last request and replies with handler.
type upstream struct {
	*httptest.Server
	last    ChatCompletionRequest
	headers http.Header
}

func newUpstream(t *testing.T, handler func(w http.ResponseWriter)) *upstream {
	t.Helper()
	u := &upstream{}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		u.headers = r.Header.Clone()
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&u.last))
		handler(w)
	}))
	t.Cleanup(u.Close)
	return u
}

func okReply(content string) func(w http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cmpl-1","model":"served-model","choices":[{"index":0,"message":{"role":"assistant","content":"` +
			content + `"}}],"usage":{"prompt_tokens":5,"completion_tokens":2,"total_tokens":7}}`))
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(profile("groq", "http://x", ""))
	assert.ErrorIs(t, err, domain.ErrMissingAPIKey)
}

func TestNewFallbackClient(t *testing.T) {
	groq := profile("groq", "http://groq", "gk")
	openrouter := profile("openrouter", "http://or", "ok")

	c, err := NewFallbackClient(groq, openrouter)
	require.NoError(t, err)
	assert.Equal(t, "groq", c.Provider())
	assert.Equal(t, "groq-default", c.DefaultModel())

	groq.APIKey = ""
	c, err = NewFallbackClient(groq, openrouter)
	require.NoError(t, err)
	assert.Equal(t, "openrouter", c.Provider())

	openrouter.APIKey = ""
	_, err = NewFallbackClient(groq, openrouter)
	assert.ErrorIs(t, err, domain.ErrMissingAPIKey)
}

func TestCompleteSendsSystemAndUserMessages(t *testing.T) {
	u := newUpstream(t, okReply("4"))
	p := profile("openrouter", u.URL+"/", "secret")
	p.Headers = map[string]string{"HTTP-Referer": "https://cleuly.app", "X-Title": "Cleuly"}
	c, err := NewClient(p)
	require.NoError(t, err)

	system := "be brief"
	maxTokens := 100
	temp := 0.5
	got, err := c.Complete(context.Background(), CompletionRequest{
		Prompt:       "2+2?",
		Model:        "some/model",
		SystemPrompt: &system,
		MaxTokens:    &maxTokens,
		Temperature:  &temp,
	})
	require.NoError(t, err)
	assert.Equal(t, "4", got.Content)
	assert.Equal(t, "cmpl-1", got.ID)
	require.NotNil(t, got.Usage)
	assert.Equal(t, 7, got.Usage.TotalTokens)

	assert.Equal(t, "Bearer secret", u.headers.Get("Authorization"))
	assert.Equal(t, "https://cleuly.app", u.headers.Get("HTTP-Referer"))
	assert.Equal(t, "Cleuly", u.headers.Get("X-Title"))
	assert.Equal(t, "some/model", u.last.Model)
	require.Len(t, u.last.Messages, 2)
	assert.Equal(t, ChatMessage{Role: "system", Content: "be brief"}, u.last.Messages[0])
	assert.Equal(t, ChatMessage{Role: "user", Content: "2+2?"}, u.last.Messages[1])
	assert.Equal(t, 100, *u.last.MaxTokens)
	assert.Equal(t, 0.5, *u.last.Temperature)
}

func TestCompleteOmitsUnsetOptions(t *testing.T) {
	u := newUpstream(t, okReply("hi"))
	c, err := NewClient(profile("groq", u.URL, "k"))
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), CompletionRequest{Prompt: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "groq-default", u.last.Model)
	require.Len(t, u.last.Messages, 1)
	assert.Nil(t, u.last.MaxTokens)
	assert.Nil(t, u.last.Temperature)
}

func TestCompleteUpstreamErrorMessage(t *testing.T) {
	u := newUpstream(t, func(w http.ResponseWriter) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid key"}}`))
	})
	c, err := NewClient(profile("groq", u.URL, "bad"))
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), CompletionRequest{Prompt: "x"})
	var apiErr *domain.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "invalid key", apiErr.Message)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.False(t, apiErr.Retryable)
}

func TestCompleteUpstreamRawErrorBody(t *testing.T) {
	u := newUpstream(t, func(w http.ResponseWriter) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream exploded"))
	})
	c, err := NewClient(profile("groq", u.URL, "k"))
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), CompletionRequest{Prompt: "x"})
	var apiErr *domain.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "upstream exploded", apiErr.Message)
}

func TestCompleteZeroChoices(t *testing.T) {
	u := newUpstream(t, func(w http.ResponseWriter) {
		_, _ = w.Write([]byte(`{"id":"x","choices":[]}`))
	})
	c, err := NewClient(profile("groq", u.URL, "k"))
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), CompletionRequest{Prompt: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidResponse)
}

func TestCompleteMalformedBody(t *testing.T) {
	u := newUpstream(t, func(w http.ResponseWriter) {
		_, _ = w.Write([]byte(`not json`))
	})
	c, err := NewClient(profile("groq", u.URL, "k"))
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), CompletionRequest{Prompt: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidResponse)
}

func TestCompleteTimeoutIsRetryable(t *testing.T) {
	release := make(chan struct{})
	u := newUpstream(t, func(w http.ResponseWriter) {
		<-release
	})
	defer close(release)
	c, err := NewClient(profile("groq", u.URL, "k"), WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), CompletionRequest{Prompt: "x"})
	var apiErr *domain.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.Retryable)
}

func TestSuggestUsesPresetTemplate(t *testing.T) {
	u := newUpstream(t, okReply("def two_sum(): pass"))
	c, err := NewClient(profile("groq", u.URL, "k"))
	require.NoError(t, err)

	_, err = c.Suggest(context.Background(), "two sum", "", ParseSuggestionType("leetcode"))
	require.NoError(t, err)
	require.Len(t, u.last.Messages, 2)
	assert.Contains(t, u.last.Messages[0].Content, "competitive programmer")
	assert.Equal(t, "Solve this:\n\ntwo sum", u.last.Messages[1].Content)
	assert.Equal(t, 800, *u.last.MaxTokens)
	assert.Equal(t, 0.2, *u.last.Temperature)
}

func TestAnalyzeUsesFixedBudget(t *testing.T) {
	u := newUpstream(t, okReply("[POSITIVE] - upbeat"))
	c, err := NewClient(profile("groq", u.URL, "k"), WithPreset(ClassicPreset))
	require.NoError(t, err)

	got, err := c.Analyze(context.Background(), "great job", "m", AnalyzeSentiment)
	require.NoError(t, err)
	assert.Equal(t, "[POSITIVE] - upbeat", got.Content)
	assert.Equal(t, "great job", u.last.Messages[1].Content)
	assert.Equal(t, ClassicPreset.Analyze[AnalyzeSentiment].System, u.last.Messages[0].Content)
	assert.Equal(t, 600, *u.last.MaxTokens)
	assert.Equal(t, 0.3, *u.last.Temperature)
}

func TestRateLimitHonoursContext(t *testing.T) {
	u := newUpstream(t, okReply("ok"))
	c, err := NewClient(profile("groq", u.URL, "k"), WithRateLimit(0.001))
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), CompletionRequest{Prompt: "first"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Complete(ctx, CompletionRequest{Prompt: "second"})
	require.Error(t, err)
	var apiErr *domain.APIError
	assert.False(t, errors.As(err, &apiErr))
}
