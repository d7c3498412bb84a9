// Package service implements the relay use cases on top of the stores and upstream clients.
package service

import (
	"context"

	"github.com/ANAVHEOBA/softwaresystem/internal/adapter/llm"
	"github.com/ANAVHEOBA/softwaresystem/internal/adapter/stt"
	"github.com/ANAVHEOBA/softwaresystem/internal/config"
	"github.com/ANAVHEOBA/softwaresystem/internal/domain"
	"github.com/ANAVHEOBA/softwaresystem/internal/logging"
	"github.com/ANAVHEOBA/softwaresystem/internal/policy"
	"github.com/ANAVHEOBA/softwaresystem/internal/repository"
	"github.com/ANAVHEOBA/softwaresystem/internal/session"
)

// SessionListLimit caps the session listing.
const SessionListLimit = 50

type Service struct {
	store        repository.Store
	sessions     *session.Store
	llmClient    llm.LLMClient
	sttClient    stt.Transcriber
	config       *config.Config
	policyEngine *policy.Engine
}

// New wires the service. sttClient and policyEngine may be nil.
func New(store repository.Store, sessions *session.Store, llmClient llm.LLMClient, sttClient stt.Transcriber, cfg *config.Config, policyEngine *policy.Engine) *Service {
	return &Service{
		store:        store,
		sessions:     sessions,
		llmClient:    llmClient,
		sttClient:    sttClient,
		config:       cfg,
		policyEngine: policyEngine,
	}
}

// Ping checks the document store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Provider names the upstream LLM provider in use.
func (s *Service) Provider() string {
	return s.llmClient.Provider()
}

// resolveModel returns model, or the gateway default when model is empty.
func (s *Service) resolveModel(model string) string {
	if model != "" {
		return model
	}
	return s.llmClient.DefaultModel()
}

// admit runs the model policy for an upstream call.
func (s *Service) admit(ctx context.Context, operation, model string, maxTokens int) error {
	if s.policyEngine == nil {
		return nil
	}
	return s.policyEngine.Check(ctx, policy.Input{
		Operation: operation,
		Provider:  s.llmClient.Provider(),
		Model:     model,
		MaxTokens: maxTokens,
	})
}

// admitSuggest runs the policy with the preset budget of a suggestion.
func (s *Service) admitSuggest(ctx context.Context, model string, kind llm.SuggestionType) error {
	budget := s.llmClient.Preset().SuggestMaxTokens(kind)
	return s.admit(ctx, string(domain.RequestTypeSuggest), model, budget)
}

// recordCompletion stores an AICompletion. Failures are logged, not returned.
func (s *Service) recordCompletion(ctx context.Context, c *domain.AICompletion) string {
	id, err := s.store.InsertCompletion(ctx, c)
	if err != nil {
		logging.FromContext(ctx).Warn("failed to record completion", "request_type", c.RequestType, "error", err)
		return ""
	}
	return id
}

func validID(id string) error {
	if !domain.ValidID(id) {
		return domain.ErrInvalidID
	}
	return nil
}
