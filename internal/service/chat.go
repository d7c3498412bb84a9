package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ANAVHEOBA/softwaresystem/internal/adapter/llm"
	"github.com/ANAVHEOBA/softwaresystem/internal/domain"
	"github.com/ANAVHEOBA/softwaresystem/internal/logging"
)

// Chat generation budget.
const (
	ChatMaxTokens   = 1000
	ChatTemperature = 0.7
)

// ChatInput is one user turn.
type ChatInput struct {
	Message      string
	Model        string
	SystemPrompt *string
}

// ChatResult holds both recorded turns.
type ChatResult struct {
	SessionID string
	Message   domain.Message
	Response  domain.Message
	Model     string
	Usage     *domain.Usage
}

// BuildChatPrompt renders the trailing window and the new message into a single prompt.
// With no history the message is returned unchanged.
func BuildChatPrompt(window []domain.Message, message string) string {
	if len(window) == 0 {
		return message
	}
	var b strings.Builder
	b.WriteString("Previous conversation:\n")
	for i, m := range window {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(m.Role)
		b.WriteString(": ")
		b.WriteString(m.Content)
	}
	b.WriteString("\n\nUser: ")
	b.WriteString(message)
	return b.String()
}

// Chat runs one conversational turn: it prompts the model with the recent
// history and appends the user message and the reply to the session.
//
// The two appends are not atomic. If the reply cannot be stored the user
// message stays recorded and an error is returned.
func (s *Service) Chat(ctx context.Context, sessionID string, in ChatInput) (*ChatResult, error) {
	if strings.TrimSpace(in.Message) == "" {
		return nil, domain.Invalid("message cannot be empty")
	}
	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	window := sess.ContextWindow(s.config.ChatContextWindow)
	prompt := BuildChatPrompt(window, in.Message)

	model := s.resolveModel(in.Model)
	system := s.config.ChatSystemPrompt
	if in.SystemPrompt != nil && *in.SystemPrompt != "" {
		system = *in.SystemPrompt
	}
	if err := s.admit(ctx, string(domain.RequestTypeChat), model, ChatMaxTokens); err != nil {
		return nil, err
	}

	maxTokens := ChatMaxTokens
	temperature := ChatTemperature
	completion, err := s.llmClient.Complete(ctx, llm.CompletionRequest{
		Prompt:       prompt,
		Model:        model,
		SystemPrompt: &system,
		MaxTokens:    &maxTokens,
		Temperature:  &temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	userMsg := domain.UserMessage(in.Message)
	found, err := s.sessions.AddMessage(ctx, sessionID, userMsg)
	if err != nil {
		return nil, fmt.Errorf("failed to record user message: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}

	assistantMsg := domain.AssistantMessage(completion.Content)
	if _, err := s.sessions.AddMessage(ctx, sessionID, assistantMsg); err != nil {
		return nil, fmt.Errorf("failed to record assistant message: %w", err)
	}

	s.recordCompletion(ctx, &domain.AICompletion{
		Prompt:       prompt,
		SystemPrompt: &system,
		Model:        model,
		Response:     completion.Content,
		Usage:        completion.Usage,
		RequestType:  domain.RequestTypeChat,
		CreatedAt:    time.Now().UTC(),
	})

	logging.FromContext(ctx).Info("chat turn recorded",
		"session_id", sessionID, "model", model, "context_messages", len(window))

	return &ChatResult{
		SessionID: sessionID,
		Message:   userMsg,
		Response:  assistantMsg,
		Model:     model,
		Usage:     completion.Usage,
	}, nil
}
