// Package v1 provides the JSON HTTP handlers for the relay API.
package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/ANAVHEOBA/softwaresystem/internal/domain"
	"github.com/ANAVHEOBA/softwaresystem/internal/logging"
	"github.com/ANAVHEOBA/softwaresystem/internal/service"
)

// MaxAudioUpload bounds STT upload bodies.
const MaxAudioUpload = "25M"

// Handler handles HTTP requests.
type Handler struct {
	service *service.Service
}

// NewHandler creates a new handler.
func NewHandler(service *service.Service) *Handler {
	return &Handler{
		service: service,
	}
}

// RegisterRoutes registers the /api routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api")

	// Sessions
	api.POST("/session", h.CreateSession)
	api.GET("/session/:id", h.GetSession)
	api.PATCH("/session/:id", h.UpdateSession)
	api.DELETE("/session/:id", h.DeleteSession)
	api.POST("/session/:id/message", h.AddMessage)
	api.POST("/session/:id/chat", h.Chat)
	api.GET("/sessions", h.ListSessions)

	// AI
	api.POST("/ai/complete", h.Complete)
	api.POST("/ai/suggest", h.Suggest)
	api.POST("/ai/analyze", h.Analyze)
	api.GET("/ai/models", h.ListModels)

	// Speech-to-text
	stt := api.Group("/stt")
	stt.POST("/transcribe", h.Transcribe, middleware.BodyLimit(MaxAudioUpload))
	stt.POST("/transcribe-ai", h.TranscribeWithAI, middleware.BodyLimit(MaxAudioUpload))
	stt.GET("/transcription/:id", h.GetSttTranscription)
	stt.DELETE("/transcription/:id", h.DeleteSttTranscription)
	stt.GET("/transcriptions", h.ListSttTranscriptions)
	stt.GET("/formats", h.SupportedFormats)

	// Manual transcriptions
	api.POST("/transcription", h.CreateTranscription)
	api.GET("/transcription/:id", h.GetTranscription)
	api.DELETE("/transcription/:id", h.DeleteTranscription)
	api.POST("/transcription/:id/respond", h.RespondToTranscription)
	api.GET("/transcriptions", h.ListTranscriptions)
}

// MessageResponse is the body of every error and of plain acknowledgements.
type MessageResponse struct {
	Message string `json:"message"`
}

// StatusCode maps a service error to an HTTP status.
func StatusCode(err error) int {
	var apiErr *domain.APIError
	switch {
	case errors.Is(err, domain.ErrInvalidID), errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrMissingAPIKey):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrPolicyDenied):
		return http.StatusForbidden
	case errors.Is(err, service.ErrSTTUnavailable):
		return http.StatusServiceUnavailable
	case errors.As(err, &apiErr):
		if apiErr.Retryable {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrInvalidResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as {"message": ...}. resource names the entity in
// not-found messages, e.g. "Session not found".
func writeError(c echo.Context, resource string, err error) error {
	status := StatusCode(err)
	msg := err.Error()
	switch status {
	case http.StatusNotFound:
		msg = resource + " not found"
	case http.StatusBadRequest:
		if errors.Is(err, domain.ErrInvalidID) {
			msg = "Invalid ID format"
		}
	}
	if status >= http.StatusInternalServerError {
		logging.FromContext(c.Request().Context()).Error("request failed",
			"method", c.Request().Method, "path", c.Path(), "status", status, "error", err)
	}
	return c.JSON(status, MessageResponse{Message: msg})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, MessageResponse{Message: msg})
}
