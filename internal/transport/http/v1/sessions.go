package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ANAVHEOBA/softwaresystem/internal/service"
)

const sessionResource = "Session"

// CreateSessionRequest is the body of POST /api/session.
type CreateSessionRequest struct {
	Title       *string        `json:"title"`
	SessionType string         `json:"session_type"`
	Metadata    map[string]any `json:"metadata"`
}

// AddMessageRequest is the body of POST /api/session/:id/message.
type AddMessageRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// UpdateSessionRequest is the body of PATCH /api/session/:id.
type UpdateSessionRequest struct {
	Title string `json:"title"`
}

// ChatRequest is the body of POST /api/session/:id/chat.
type ChatRequest struct {
	Message      string  `json:"message"`
	Model        string  `json:"model"`
	SystemPrompt *string `json:"system_prompt"`
}

// CreateSession creates an empty session.
// POST /api/session
func (h *Handler) CreateSession(c echo.Context) error {
	var req CreateSessionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	sess, err := h.service.CreateSession(c.Request().Context(), service.CreateSessionInput{
		Title:       req.Title,
		SessionType: req.SessionType,
		Metadata:    req.Metadata,
	})
	if err != nil {
		return writeError(c, sessionResource, err)
	}
	return c.JSON(http.StatusCreated, toSessionResponse(sess))
}

// GetSession returns a session with its messages.
// GET /api/session/:id
func (h *Handler) GetSession(c echo.Context) error {
	sess, err := h.service.GetSession(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, sessionResource, err)
	}
	return c.JSON(http.StatusOK, toSessionResponse(sess))
}

// UpdateSession renames a session.
// PATCH /api/session/:id
func (h *Handler) UpdateSession(c echo.Context) error {
	var req UpdateSessionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	sess, err := h.service.UpdateSessionTitle(c.Request().Context(), c.Param("id"), req.Title)
	if err != nil {
		return writeError(c, sessionResource, err)
	}
	return c.JSON(http.StatusOK, toSessionResponse(sess))
}

// DeleteSession removes a session.
// DELETE /api/session/:id
func (h *Handler) DeleteSession(c echo.Context) error {
	if err := h.service.DeleteSession(c.Request().Context(), c.Param("id")); err != nil {
		return writeError(c, sessionResource, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Deleted successfully"})
}

// AddMessage appends one message to a session.
// POST /api/session/:id/message
func (h *Handler) AddMessage(c echo.Context) error {
	var req AddMessageRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	msg, err := h.service.AddMessage(c.Request().Context(), c.Param("id"), req.Role, req.Content)
	if err != nil {
		return writeError(c, sessionResource, err)
	}
	return c.JSON(http.StatusOK, toMessageView(*msg))
}

// Chat runs one conversational turn against the session.
// POST /api/session/:id/chat
func (h *Handler) Chat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	result, err := h.service.Chat(c.Request().Context(), c.Param("id"), service.ChatInput{
		Message:      req.Message,
		Model:        req.Model,
		SystemPrompt: req.SystemPrompt,
	})
	if err != nil {
		return writeError(c, sessionResource, err)
	}
	return c.JSON(http.StatusOK, ChatResponse{
		SessionID: result.SessionID,
		Message:   toMessageView(result.Message),
		Response:  toMessageView(result.Response),
		Model:     result.Model,
	})
}

// ListSessions returns the most recently updated sessions.
// GET /api/sessions
func (h *Handler) ListSessions(c echo.Context) error {
	sessions, total, err := h.service.ListSessions(c.Request().Context())
	if err != nil {
		return writeError(c, sessionResource, err)
	}

	data := make([]SessionSummary, 0, len(sessions))
	for _, s := range sessions {
		data = append(data, SessionSummary{
			ID:           s.ID,
			Title:        s.Title,
			SessionType:  s.SessionType,
			MessageCount: len(s.Messages),
			CreatedAt:    rfc3339(s.CreatedAt),
			UpdatedAt:    rfc3339(s.UpdatedAt),
		})
	}
	return c.JSON(http.StatusOK, SessionListResponse{Data: data, Total: total})
}
