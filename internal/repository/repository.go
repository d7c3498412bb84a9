// Package repository defines the document store interface and its backends.
package repository

import (
	"context"
	"time"

	"github.com/ANAVHEOBA/softwaresystem/internal/domain"
)

// SessionRepository is the durable collection of sessions.
// Find operations return (nil, nil) when the id does not exist.
type SessionRepository interface {
	InsertSession(ctx context.Context, session *domain.Session) (string, error)
	FindSession(ctx context.Context, id string) (*domain.Session, error)
	// ListSessions returns sessions by updated_at descending. limit <= 0 means no cap.
	ListSessions(ctx context.Context, limit int) ([]domain.Session, error)
	CountSessions(ctx context.Context) (int64, error)
	// PushSessionMessage appends message and sets updated_at in one atomic update.
	// It reports whether the session existed.
	PushSessionMessage(ctx context.Context, id string, message domain.Message, updatedAt time.Time) (bool, error)
	SetSessionTitle(ctx context.Context, id, title string, updatedAt time.Time) (bool, error)
	DeleteSession(ctx context.Context, id string) (bool, error)
}

// Store defines the interface for data persistence.
type Store interface {
	SessionRepository

	// AI completion operations
	InsertCompletion(ctx context.Context, completion *domain.AICompletion) (string, error)
	FindCompletion(ctx context.Context, id string) (*domain.AICompletion, error)
	ListCompletions(ctx context.Context, limit int) ([]domain.AICompletion, error)
	CountCompletions(ctx context.Context) (int64, error)

	// Transcription operations
	InsertTranscription(ctx context.Context, transcription *domain.Transcription) (string, error)
	FindTranscription(ctx context.Context, id string) (*domain.Transcription, error)
	ListTranscriptions(ctx context.Context, limit int) ([]domain.Transcription, error)
	CountTranscriptions(ctx context.Context) (int64, error)
	DeleteTranscription(ctx context.Context, id string) (bool, error)
	SetTranscriptionAIResponse(ctx context.Context, id, aiResponse string, updatedAt time.Time) (bool, error)

	// STT transcription operations
	InsertSttTranscription(ctx context.Context, transcription *domain.SttTranscription) (string, error)
	FindSttTranscription(ctx context.Context, id string) (*domain.SttTranscription, error)
	ListSttTranscriptions(ctx context.Context, limit int) ([]domain.SttTranscription, error)
	CountSttTranscriptions(ctx context.Context) (int64, error)
	DeleteSttTranscription(ctx context.Context, id string) (bool, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
}
