package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ANAVHEOBA/softwaresystem/internal/adapter/llm"
	"github.com/ANAVHEOBA/softwaresystem/internal/domain"
)

// TranscriptionListLimit caps transcription listings.
const TranscriptionListLimit = 50

// CreateTranscription stores a manually submitted transcript.
func (s *Service) CreateTranscription(ctx context.Context, text string, source *string) (*domain.Transcription, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.Invalid("text cannot be empty")
	}
	now := time.Now().UTC()
	t := &domain.Transcription{Text: text, Source: source, CreatedAt: now, UpdatedAt: now}
	id, err := s.store.InsertTranscription(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("failed to create transcription: %w", err)
	}
	t.ID = id
	return t, nil
}

// GetTranscription returns a transcript or domain.ErrNotFound.
func (s *Service) GetTranscription(ctx context.Context, id string) (*domain.Transcription, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	t, err := s.store.FindTranscription(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get transcription: %w", err)
	}
	if t == nil {
		return nil, fmt.Errorf("transcription %s: %w", id, domain.ErrNotFound)
	}
	return t, nil
}

// ListTranscriptions returns recent transcripts and the total count.
func (s *Service) ListTranscriptions(ctx context.Context) ([]domain.Transcription, int64, error) {
	list, err := s.store.ListTranscriptions(ctx, TranscriptionListLimit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transcriptions: %w", err)
	}
	total, err := s.store.CountTranscriptions(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count transcriptions: %w", err)
	}
	return list, total, nil
}

// DeleteTranscription removes a transcript.
func (s *Service) DeleteTranscription(ctx context.Context, id string) error {
	if err := validID(id); err != nil {
		return err
	}
	deleted, err := s.store.DeleteTranscription(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete transcription: %w", err)
	}
	if !deleted {
		return fmt.Errorf("transcription %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// RespondToTranscription asks the model for a suggestion on a stored transcript
// and attaches it as the transcript's AI response.
func (s *Service) RespondToTranscription(ctx context.Context, id, model, suggestionType string) (*domain.Transcription, error) {
	t, err := s.GetTranscription(ctx, id)
	if err != nil {
		return nil, err
	}

	model = s.resolveModel(model)
	kind := llm.SuggestInterview
	if suggestionType != "" {
		kind = llm.ParseSuggestionType(suggestionType)
	}
	if err := s.admitSuggest(ctx, model, kind); err != nil {
		return nil, err
	}
	reply, err := s.llmClient.Suggest(ctx, t.Text, model, kind)
	if err != nil {
		return nil, fmt.Errorf("suggestion: %w", err)
	}

	now := time.Now().UTC()
	found, err := s.store.SetTranscriptionAIResponse(ctx, id, reply.Content, now)
	if err != nil {
		return nil, fmt.Errorf("failed to update transcription: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("transcription %s: %w", id, domain.ErrNotFound)
	}
	t.AIResponse = &reply.Content
	t.UpdatedAt = now
	return t, nil
}
