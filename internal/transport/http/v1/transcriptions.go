package v1

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

const transcriptionResource = "Transcription"

// CreateTranscriptionRequest is the body of POST /api/transcription.
type CreateTranscriptionRequest struct {
	Text   string  `json:"text"`
	Source *string `json:"source"`
}

// RespondRequest is the optional body of POST /api/transcription/:id/respond.
type RespondRequest struct {
	Model          string `json:"model"`
	SuggestionType string `json:"suggestion_type"`
}

// CreateTranscription handles POST /api/transcription.
func (h *Handler) CreateTranscription(c echo.Context) error {
	var req CreateTranscriptionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	t, err := h.service.CreateTranscription(c.Request().Context(), req.Text, req.Source)
	if err != nil {
		return writeError(c, transcriptionResource, err)
	}
	return c.JSON(http.StatusCreated, toTranscriptionResponse(t))
}

// GetTranscription handles GET /api/transcription/:id.
func (h *Handler) GetTranscription(c echo.Context) error {
	t, err := h.service.GetTranscription(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, transcriptionResource, err)
	}
	return c.JSON(http.StatusOK, toTranscriptionResponse(t))
}

// DeleteTranscription handles DELETE /api/transcription/:id.
func (h *Handler) DeleteTranscription(c echo.Context) error {
	if err := h.service.DeleteTranscription(c.Request().Context(), c.Param("id")); err != nil {
		return writeError(c, transcriptionResource, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Deleted successfully"})
}

// ListTranscriptions handles GET /api/transcriptions.
func (h *Handler) ListTranscriptions(c echo.Context) error {
	list, total, err := h.service.ListTranscriptions(c.Request().Context())
	if err != nil {
		return writeError(c, transcriptionResource, err)
	}

	data := make([]TranscriptionResponse, 0, len(list))
	for i := range list {
		data = append(data, toTranscriptionResponse(&list[i]))
	}
	return c.JSON(http.StatusOK, TranscriptionListResponse{Data: data, Total: total})
}

// RespondToTranscription handles POST /api/transcription/:id/respond.
func (h *Handler) RespondToTranscription(c echo.Context) error {
	var req RespondRequest
	if err := c.Bind(&req); err != nil && !errors.Is(err, io.EOF) {
		return badRequest(c, "invalid request body")
	}

	t, err := h.service.RespondToTranscription(c.Request().Context(), c.Param("id"), req.Model, req.SuggestionType)
	if err != nil {
		return writeError(c, transcriptionResource, err)
	}
	return c.JSON(http.StatusOK, toTranscriptionResponse(t))
}
