package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ANAVHEOBA/softwaresystem/internal/domain"
	"github.com/ANAVHEOBA/softwaresystem/internal/logging"
)

// MaxTitleLength is the longest accepted session title, in characters.
const MaxTitleLength = 100

// CreateSessionInput describes a new session.
type CreateSessionInput struct {
	Title       *string
	SessionType string
	Metadata    map[string]any
}

// CreateSession persists a new, empty session.
func (s *Service) CreateSession(ctx context.Context, in CreateSessionInput) (*domain.Session, error) {
	if in.Title != nil {
		if err := validateTitle(*in.Title); err != nil {
			return nil, err
		}
	}
	sess := domain.NewSession(in.Title, in.SessionType, in.Metadata)
	id, err := s.sessions.Create(ctx, sess)
	if err != nil {
		return nil, err
	}
	sess.ID = id
	logging.FromContext(ctx).Info("session created", "session_id", id, "session_type", sess.SessionType)
	return sess, nil
}

// GetSession returns a session or domain.ErrNotFound.
func (s *Service) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	sess, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	return sess, nil
}

// ListSessions returns the most recently updated sessions and the total count.
func (s *Service) ListSessions(ctx context.Context) ([]domain.Session, int64, error) {
	sessions, err := s.sessions.FindAll(ctx, SessionListLimit)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.sessions.Count(ctx)
	if err != nil {
		logging.FromContext(ctx).Warn("failed to count sessions", "error", err)
		total = int64(len(sessions))
	}
	return sessions, total, nil
}

// DeleteSession removes a session.
func (s *Service) DeleteSession(ctx context.Context, id string) error {
	if err := validID(id); err != nil {
		return err
	}
	deleted, err := s.sessions.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// AddMessage appends a message with the given role to a session.
func (s *Service) AddMessage(ctx context.Context, id, role, content string) (*domain.Message, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	if strings.TrimSpace(role) == "" {
		return nil, domain.Invalid("role cannot be empty")
	}
	if strings.TrimSpace(content) == "" {
		return nil, domain.Invalid("content cannot be empty")
	}

	msg := domain.NewMessage(role, content)
	found, err := s.sessions.AddMessage(ctx, id, msg)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	return &msg, nil
}

// UpdateSessionTitle renames a session and returns the fresh copy.
func (s *Service) UpdateSessionTitle(ctx context.Context, id, title string) (*domain.Session, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	if err := validateTitle(title); err != nil {
		return nil, err
	}
	found, err := s.sessions.UpdateTitle(ctx, id, title)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	return s.GetSession(ctx, id)
}

func validateTitle(title string) error {
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return domain.Invalid("title too long")
	}
	return nil
}
