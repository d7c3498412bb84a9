package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultContextWindow is the number of trailing messages used to prompt a follow-up call.
const DefaultContextWindow = 10

// Message is a single turn of a session transcript.
type Message struct {
	Role      string    `json:"role" bson:"role"`
	Content   string    `json:"content" bson:"content"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

// NewMessage creates a message stamped with the current time.
func NewMessage(role, content string) Message {
	return Message{Role: role, Content: content, Timestamp: time.Now().UTC()}
}

// UserMessage creates a user message.
func UserMessage(content string) Message { return NewMessage(RoleUser, content) }

// AssistantMessage creates an assistant message.
func AssistantMessage(content string) Message { return NewMessage(RoleAssistant, content) }

// Session is a persisted, ordered conversation.
// Messages are append-only; insertion order is the transcript order.
type Session struct {
	ID          string         `json:"id,omitempty" bson:"-"`
	Title       *string        `json:"title" bson:"title"`
	SessionType string         `json:"session_type" bson:"session_type"`
	Messages    []Message      `json:"messages" bson:"messages"`
	Metadata    map[string]any `json:"metadata,omitempty" bson:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" bson:"updated_at"`
}

// NewSession creates an unpersisted session with no messages.
func NewSession(title *string, sessionType string, metadata map[string]any) *Session {
	if sessionType == "" {
		sessionType = DefaultSessionType
	}
	now := time.Now().UTC()
	return &Session{
		Title:       title,
		SessionType: sessionType,
		Messages:    []Message{},
		Metadata:    metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ContextWindow returns the trailing limit messages of the session.
func (s *Session) ContextWindow(limit int) []Message {
	return ContextWindow(s.Messages, limit)
}

// ContextWindow returns a copy of the last limit messages in chronological order.
// When there are limit or fewer messages all of them are returned.
func ContextWindow(messages []Message, limit int) []Message {
	if limit <= 0 {
		return []Message{}
	}
	start := 0
	if len(messages) > limit {
		start = len(messages) - limit
	}
	window := make([]Message, len(messages)-start)
	copy(window, messages[start:])
	return window
}

// NewID returns a fresh object id in hex form.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// ValidID reports whether id is a well-formed object id.
func ValidID(id string) bool {
	return primitive.IsValidObjectID(id)
}
