package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/ANAVHEOBA/softwaresystem/internal/adapter/llm"
	"github.com/ANAVHEOBA/softwaresystem/internal/adapter/stt"
	"github.com/ANAVHEOBA/softwaresystem/internal/domain"
	"github.com/ANAVHEOBA/softwaresystem/internal/logging"
)

// ErrSTTUnavailable is returned when no transcription client is configured.
var ErrSTTUnavailable = errors.New("speech-to-text is not configured")

// DefaultAudioFileName is used when an upload has no file name.
const DefaultAudioFileName = "audio.wav"

// TranscribeInput is an uploaded audio file.
type TranscribeInput struct {
	Audio     []byte
	FileName  string
	Language  string
	SessionID string
}

// Transcribe converts audio to text, stores the result and optionally appends
// the text to a session as a user message.
func (s *Service) Transcribe(ctx context.Context, in TranscribeInput) (*domain.SttTranscription, error) {
	result, err := s.transcribe(ctx, &in)
	if err != nil {
		return nil, err
	}

	record := s.newSttRecord(in, result)
	if err := s.storeSttTranscription(ctx, record); err != nil {
		return nil, err
	}

	s.appendToSession(ctx, in.SessionID, domain.UserMessage(result.Text))
	return record, nil
}

// TranscribeAndRespond transcribes audio and asks the model for an interview
// suggestion. Both turns are appended to the session when one is given.
func (s *Service) TranscribeAndRespond(ctx context.Context, in TranscribeInput) (*domain.SttTranscription, error) {
	result, err := s.transcribe(ctx, &in)
	if err != nil {
		return nil, err
	}

	model := s.resolveModel("")
	if err := s.admitSuggest(ctx, model, llm.SuggestInterview); err != nil {
		return nil, err
	}
	reply, err := s.llmClient.Suggest(ctx, result.Text, model, llm.SuggestInterview)
	if err != nil {
		return nil, fmt.Errorf("suggestion: %w", err)
	}

	record := s.newSttRecord(in, result)
	record.AIResponse = &reply.Content
	if err := s.storeSttTranscription(ctx, record); err != nil {
		return nil, err
	}

	s.appendToSession(ctx, in.SessionID,
		domain.UserMessage(result.Text),
		domain.AssistantMessage(reply.Content))
	return record, nil
}

// GetSttTranscription returns a stored transcription.
func (s *Service) GetSttTranscription(ctx context.Context, id string) (*domain.SttTranscription, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	t, err := s.store.FindSttTranscription(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get transcription: %w", err)
	}
	if t == nil {
		return nil, fmt.Errorf("transcription %s: %w", id, domain.ErrNotFound)
	}
	return t, nil
}

// ListSttTranscriptions returns recent transcriptions and the total count.
func (s *Service) ListSttTranscriptions(ctx context.Context, limit int) ([]domain.SttTranscription, int64, error) {
	list, err := s.store.ListSttTranscriptions(ctx, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transcriptions: %w", err)
	}
	total, err := s.store.CountSttTranscriptions(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count transcriptions: %w", err)
	}
	return list, total, nil
}

// DeleteSttTranscription removes a stored transcription.
func (s *Service) DeleteSttTranscription(ctx context.Context, id string) error {
	if err := validID(id); err != nil {
		return err
	}
	deleted, err := s.store.DeleteSttTranscription(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete transcription: %w", err)
	}
	if !deleted {
		return fmt.Errorf("transcription %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// SupportedAudioFormats lists accepted upload extensions.
func (s *Service) SupportedAudioFormats() []string {
	return stt.SupportedFormats()
}

func (s *Service) transcribe(ctx context.Context, in *TranscribeInput) (*stt.Result, error) {
	if s.sttClient == nil {
		return nil, ErrSTTUnavailable
	}
	if len(in.Audio) == 0 {
		return nil, domain.Invalid("no audio file provided")
	}
	if in.FileName == "" {
		in.FileName = DefaultAudioFileName
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(in.FileName), "."))
	if !slices.Contains(stt.SupportedFormats(), ext) {
		return nil, domain.Invalid(fmt.Sprintf("unsupported audio format, supported: %s",
			strings.Join(stt.SupportedFormats(), ", ")))
	}
	if in.SessionID != "" {
		if err := validID(in.SessionID); err != nil {
			return nil, err
		}
	}

	result, err := s.sttClient.Transcribe(ctx, in.Audio, in.FileName, in.Language)
	if err != nil {
		return nil, fmt.Errorf("transcription: %w", err)
	}
	return result, nil
}

func (s *Service) newSttRecord(in TranscribeInput, result *stt.Result) *domain.SttTranscription {
	fileName := in.FileName
	size := int64(len(in.Audio))
	record := &domain.SttTranscription{
		Text:      result.Text,
		Language:  result.Language,
		Duration:  result.Duration,
		Model:     result.Model,
		FileName:  &fileName,
		FileSize:  &size,
		CreatedAt: time.Now().UTC(),
	}
	if in.SessionID != "" {
		sessionID := in.SessionID
		record.SessionID = &sessionID
	}
	return record
}

func (s *Service) storeSttTranscription(ctx context.Context, record *domain.SttTranscription) error {
	id, err := s.store.InsertSttTranscription(ctx, record)
	if err != nil {
		return fmt.Errorf("failed to store transcription: %w", err)
	}
	record.ID = id
	return nil
}

// appendToSession appends messages in order. Failures are logged; the
// transcription itself has already been stored.
func (s *Service) appendToSession(ctx context.Context, sessionID string, messages ...domain.Message) {
	if sessionID == "" {
		return
	}
	log := logging.FromContext(ctx).With("session_id", sessionID)
	for _, m := range messages {
		found, err := s.sessions.AddMessage(ctx, sessionID, m)
		if err != nil {
			log.Warn("failed to append transcription to session", "error", err)
			return
		}
		if !found {
			log.Warn("transcription session not found")
			return
		}
	}
}
