package v1

import (
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ANAVHEOBA/softwaresystem/internal/service"
)

const sttResource = "Transcription"

// audioFields are the multipart field names accepted for the upload, in order.
var audioFields = []string{"file", "audio"}

// readAudio extracts the uploaded audio and the query options.
func readAudio(c echo.Context) (service.TranscribeInput, error) {
	in := service.TranscribeInput{
		Language:  c.QueryParam("language"),
		SessionID: c.QueryParam("session_id"),
	}
	for _, field := range audioFields {
		fh, err := c.FormFile(field)
		if err != nil {
			continue
		}
		f, err := fh.Open()
		if err != nil {
			return in, fmt.Errorf("failed to read file: %w", err)
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return in, fmt.Errorf("failed to read file: %w", err)
		}
		in.Audio = data
		in.FileName = fh.Filename
		return in, nil
	}
	return in, nil
}

// Transcribe handles POST /api/stt/transcribe.
func (h *Handler) Transcribe(c echo.Context) error {
	in, err := readAudio(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	record, err := h.service.Transcribe(c.Request().Context(), in)
	if err != nil {
		return writeError(c, sttResource, err)
	}
	return c.JSON(http.StatusOK, toTranscribeResponse(record))
}

// TranscribeWithAI handles POST /api/stt/transcribe-ai.
func (h *Handler) TranscribeWithAI(c echo.Context) error {
	in, err := readAudio(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	record, err := h.service.TranscribeAndRespond(c.Request().Context(), in)
	if err != nil {
		return writeError(c, sttResource, err)
	}
	resp := TranscribeWithAIResponse{
		ID:            record.ID,
		Transcription: record.Text,
		Language:      record.Language,
		Duration:      record.Duration,
		Model:         record.Model,
		CreatedAt:     rfc3339(record.CreatedAt),
	}
	if record.AIResponse != nil {
		resp.AIResponse = *record.AIResponse
	}
	return c.JSON(http.StatusOK, resp)
}

// GetSttTranscription handles GET /api/stt/transcription/:id.
func (h *Handler) GetSttTranscription(c echo.Context) error {
	record, err := h.service.GetSttTranscription(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, sttResource, err)
	}
	return c.JSON(http.StatusOK, toTranscribeResponse(record))
}

// DeleteSttTranscription handles DELETE /api/stt/transcription/:id.
func (h *Handler) DeleteSttTranscription(c echo.Context) error {
	if err := h.service.DeleteSttTranscription(c.Request().Context(), c.Param("id")); err != nil {
		return writeError(c, sttResource, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Deleted successfully"})
}

// ListSttTranscriptions handles GET /api/stt/transcriptions.
func (h *Handler) ListSttTranscriptions(c echo.Context) error {
	list, total, err := h.service.ListSttTranscriptions(c.Request().Context(), service.TranscriptionListLimit)
	if err != nil {
		return writeError(c, sttResource, err)
	}

	data := make([]TranscribeResponse, 0, len(list))
	for i := range list {
		data = append(data, toTranscribeResponse(&list[i]))
	}
	return c.JSON(http.StatusOK, SttListResponse{Data: data, Total: total})
}

// SupportedFormats handles GET /api/stt/formats.
func (h *Handler) SupportedFormats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.service.SupportedAudioFormats())
}
