package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ANAVHEOBA/softwaresystem/internal/adapter/llm"
	"github.com/ANAVHEOBA/softwaresystem/internal/domain"
	"github.com/ANAVHEOBA/softwaresystem/internal/logging"
)

// CompleteInput is a free-form completion request.
type CompleteInput struct {
	Prompt       string
	Model        string
	SystemPrompt *string
	MaxTokens    *int
	Temperature  *float64
}

// SuggestInput asks for a real-time suggestion.
type SuggestInput struct {
	Context        string
	Model          string
	SuggestionType string
}

// AnalyzeInput asks for an analysis of text.
type AnalyzeInput struct {
	Text         string
	Model        string
	AnalysisType string
}

// Complete relays a completion and records it.
func (s *Service) Complete(ctx context.Context, in CompleteInput) (*domain.AICompletion, error) {
	if strings.TrimSpace(in.Prompt) == "" {
		return nil, domain.Invalid("prompt cannot be empty")
	}
	model := s.resolveModel(in.Model)
	maxTokens := 0
	if in.MaxTokens != nil {
		maxTokens = *in.MaxTokens
	}
	if err := s.admit(ctx, string(domain.RequestTypeComplete), model, maxTokens); err != nil {
		return nil, err
	}

	result, err := s.llmClient.Complete(ctx, llm.CompletionRequest{
		Prompt:       in.Prompt,
		Model:        model,
		SystemPrompt: in.SystemPrompt,
		MaxTokens:    in.MaxTokens,
		Temperature:  in.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("completion: %w", err)
	}
	return s.storeCompletion(ctx, &domain.AICompletion{
		Prompt:       in.Prompt,
		SystemPrompt: in.SystemPrompt,
		Model:        model,
		Response:     result.Content,
		Usage:        result.Usage,
		RequestType:  domain.RequestTypeComplete,
	})
}

// Suggest relays a suggestion and records it.
func (s *Service) Suggest(ctx context.Context, in SuggestInput) (*domain.AICompletion, error) {
	if strings.TrimSpace(in.Context) == "" {
		return nil, domain.Invalid("context cannot be empty")
	}
	model := s.resolveModel(in.Model)
	kind := llm.ParseSuggestionType(in.SuggestionType)
	if err := s.admitSuggest(ctx, model, kind); err != nil {
		return nil, err
	}

	result, err := s.llmClient.Suggest(ctx, in.Context, model, kind)
	if err != nil {
		return nil, fmt.Errorf("suggestion: %w", err)
	}
	return s.storeCompletion(ctx, &domain.AICompletion{
		Prompt:      in.Context,
		Model:       model,
		Response:    result.Content,
		Usage:       result.Usage,
		RequestType: domain.RequestTypeSuggest,
	})
}

// Analyze relays an analysis and records it.
func (s *Service) Analyze(ctx context.Context, in AnalyzeInput) (*domain.AICompletion, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, domain.Invalid("text cannot be empty")
	}
	model := s.resolveModel(in.Model)
	kind := llm.ParseAnalysisType(in.AnalysisType)
	budget := s.llmClient.Preset().AnalyzeMaxTokens(kind)
	if err := s.admit(ctx, string(domain.RequestTypeAnalyze), model, budget); err != nil {
		return nil, err
	}

	result, err := s.llmClient.Analyze(ctx, in.Text, model, kind)
	if err != nil {
		return nil, fmt.Errorf("analysis: %w", err)
	}
	return s.storeCompletion(ctx, &domain.AICompletion{
		Prompt:      in.Text,
		Model:       model,
		Response:    result.Content,
		Usage:       result.Usage,
		RequestType: domain.RequestTypeAnalyze,
	})
}

// Models returns the advertised model catalog.
func (s *Service) Models() []domain.ModelInfo {
	return domain.ModelCatalog
}

func (s *Service) storeCompletion(ctx context.Context, c *domain.AICompletion) (*domain.AICompletion, error) {
	c.CreatedAt = time.Now().UTC()
	id, err := s.store.InsertCompletion(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("failed to store completion: %w", err)
	}
	c.ID = id
	return c, nil
}

// ProxyChatCompletion forwards an OpenAI-style request to the active provider.
func (s *Service) ProxyChatCompletion(ctx context.Context, req *llm.ChatCompletionRequest) (*llm.ChatCompletionResponse, error) {
	requestID := "llm_" + uuid.New().String()[:8]
	startTime := time.Now()

	req.Model = s.resolveModel(req.Model)
	maxTokens := 0
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}
	if err := s.admit(ctx, "proxy", req.Model, maxTokens); err != nil {
		return nil, err
	}

	resp, err := s.llmClient.CreateChatCompletion(ctx, req)
	latencyMs := time.Since(startTime).Milliseconds()
	log := logging.FromContext(ctx).With("llm_request_id", requestID, "model", req.Model, "latency_ms", latencyMs)
	if err != nil {
		log.Warn("proxied completion failed", "error", err)
		return nil, err
	}
	if resp.Usage != nil {
		log = log.With("total_tokens", resp.Usage.TotalTokens)
	}
	log.Info("proxied completion done")
	return resp, nil
}
