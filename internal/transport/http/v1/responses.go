package v1

import (
	"time"

	"github.com/ANAVHEOBA/softwaresystem/internal/domain"
)

func rfc3339(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// MessageView is a session message on the wire.
type MessageView struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

func toMessageView(m domain.Message) MessageView {
	return MessageView{Role: m.Role, Content: m.Content, Timestamp: rfc3339(m.Timestamp)}
}

// SessionResponse is a full session with its transcript.
type SessionResponse struct {
	ID           string        `json:"id"`
	Title        *string       `json:"title"`
	SessionType  string        `json:"session_type"`
	Messages     []MessageView `json:"messages"`
	MessageCount int           `json:"message_count"`
	CreatedAt    string        `json:"created_at"`
	UpdatedAt    string        `json:"updated_at"`
}

func toSessionResponse(s *domain.Session) SessionResponse {
	msgs := make([]MessageView, 0, len(s.Messages))
	for _, m := range s.Messages {
		msgs = append(msgs, toMessageView(m))
	}
	return SessionResponse{
		ID:           s.ID,
		Title:        s.Title,
		SessionType:  s.SessionType,
		Messages:     msgs,
		MessageCount: len(s.Messages),
		CreatedAt:    rfc3339(s.CreatedAt),
		UpdatedAt:    rfc3339(s.UpdatedAt),
	}
}

// SessionSummary is a session without its messages.
type SessionSummary struct {
	ID           string  `json:"id"`
	Title        *string `json:"title"`
	SessionType  string  `json:"session_type"`
	MessageCount int     `json:"message_count"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

// SessionListResponse is the body of GET /api/sessions.
type SessionListResponse struct {
	Data  []SessionSummary `json:"data"`
	Total int64            `json:"total"`
}

// ChatResponse is the body of a chat turn.
type ChatResponse struct {
	SessionID string      `json:"session_id"`
	Message   MessageView `json:"message"`
	Response  MessageView `json:"response"`
	Model     string      `json:"model"`
}

// AIResponse is the body of the complete, suggest and analyze endpoints.
type AIResponse struct {
	ID        string        `json:"id"`
	Model     string        `json:"model"`
	Content   string        `json:"content"`
	Usage     *domain.Usage `json:"usage"`
	CreatedAt string        `json:"created_at"`
}

func toAIResponse(c *domain.AICompletion) AIResponse {
	return AIResponse{
		ID:        c.ID,
		Model:     c.Model,
		Content:   c.Response,
		Usage:     c.Usage,
		CreatedAt: rfc3339(c.CreatedAt),
	}
}

// ModelsResponse lists the model catalog.
type ModelsResponse struct {
	Models []domain.ModelInfo `json:"models"`
}

// TranscribeResponse is a stored STT result.
type TranscribeResponse struct {
	ID        string   `json:"id"`
	Text      string   `json:"text"`
	Language  *string  `json:"language"`
	Duration  *float64 `json:"duration"`
	Model     string   `json:"model"`
	CreatedAt string   `json:"created_at"`
}

func toTranscribeResponse(t *domain.SttTranscription) TranscribeResponse {
	return TranscribeResponse{
		ID:        t.ID,
		Text:      t.Text,
		Language:  t.Language,
		Duration:  t.Duration,
		Model:     t.Model,
		CreatedAt: rfc3339(t.CreatedAt),
	}
}

// TranscribeWithAIResponse is an STT result together with the model's suggestion.
type TranscribeWithAIResponse struct {
	ID            string   `json:"id"`
	Transcription string   `json:"transcription"`
	AIResponse    string   `json:"ai_response"`
	Language      *string  `json:"language"`
	Duration      *float64 `json:"duration"`
	Model         string   `json:"model"`
	CreatedAt     string   `json:"created_at"`
}

// SttListResponse lists stored STT results.
type SttListResponse struct {
	Data  []TranscribeResponse `json:"data"`
	Total int64                `json:"total"`
}

// TranscriptionResponse is a manually submitted transcript.
type TranscriptionResponse struct {
	ID         string  `json:"id"`
	Text       string  `json:"text"`
	Source     *string `json:"source"`
	AIResponse *string `json:"ai_response"`
	CreatedAt  string  `json:"created_at"`
}

func toTranscriptionResponse(t *domain.Transcription) TranscriptionResponse {
	return TranscriptionResponse{
		ID:         t.ID,
		Text:       t.Text,
		Source:     t.Source,
		AIResponse: t.AIResponse,
		CreatedAt:  rfc3339(t.CreatedAt),
	}
}

// TranscriptionListResponse lists manual transcripts.
type TranscriptionListResponse struct {
	Data  []TranscriptionResponse `json:"data"`
	Total int64                   `json:"total"`
}
