package llm

import (
	"log/slog"

	"github.com/ANAVHEOBA/softwaresystem/internal/config"
)

// NewLLMClient creates an LLM client from cfg.
// With APP_MODE=MOCK it returns a MockClient; otherwise Groq is preferred and
// OpenRouter is used when no Groq key is configured.
func NewLLMClient(cfg *config.Config) (LLMClient, error) {
	preset, err := LookupPreset(cfg.PromptPreset)
	if err != nil {
		return nil, err
	}

	if cfg.Mock() {
		slog.Info("APP_MODE=MOCK detected, using mock LLM client")
		return NewMockClient(WithMockPreset(preset)), nil
	}

	client, err := NewFallbackClient(cfg.Groq, cfg.OpenRouter,
		WithTimeout(cfg.LLMTimeout),
		WithRateLimit(cfg.LLMRateLimit),
		WithPreset(preset),
		WithDefaultModel(cfg.DefaultModel),
	)
	if err != nil {
		return nil, err
	}
	slog.Info("llm client ready", "provider", client.Provider(), "default_model", client.DefaultModel(), "preset", preset.Name)
	return client, nil
}
