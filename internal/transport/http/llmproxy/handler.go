// Package llmproxy exposes an OpenAI-compatible passthrough to the configured provider.
package llmproxy

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ANAVHEOBA/softwaresystem/internal/adapter/llm"
	"github.com/ANAVHEOBA/softwaresystem/internal/service"
	v1 "github.com/ANAVHEOBA/softwaresystem/internal/transport/http/v1"
)

// Handler handles LLM proxy HTTP requests.
type Handler struct {
	service *service.Service
}

// NewHandler creates a new LLM proxy handler.
func NewHandler(service *service.Service) *Handler {
	return &Handler{
		service: service,
	}
}

// RegisterRoutes registers LLM proxy routes.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// OpenAI-compatible endpoints
	e.POST("/v1/chat/completions", h.ChatCompletions)
	e.GET("/v1/models", h.ListModels)
}

// Model is one entry of the OpenAI models list.
type Model struct {
	ID            string `json:"id"`
	Object        string `json:"object"`
	Created       int64  `json:"created"`
	OwnedBy       string `json:"owned_by"`
	ContextLength int    `json:"context_length,omitempty"`
}

// ModelsResponse is the OpenAI models list.
type ModelsResponse struct {
	Object string  `json:"object"`
	Data   []Model `json:"data"`
}

func invalidRequest(c echo.Context, message, param string) error {
	return c.JSON(http.StatusBadRequest, llm.ErrorResponse{
		Error: &llm.ErrorDetail{
			Message: message,
			Type:    "invalid_request_error",
			Param:   param,
		},
	})
}

// ChatCompletions handles chat completion requests.
// POST /v1/chat/completions
func (h *Handler) ChatCompletions(c echo.Context) error {
	var req llm.ChatCompletionRequest
	if err := c.Bind(&req); err != nil {
		return invalidRequest(c, "invalid request body", "")
	}

	if len(req.Messages) == 0 {
		return invalidRequest(c, "messages is required", "messages")
	}
	if req.Stream {
		return invalidRequest(c, "streaming is not supported", "stream")
	}

	resp, err := h.service.ProxyChatCompletion(c.Request().Context(), &req)
	if err != nil {
		status := v1.StatusCode(err)
		errType := "upstream_error"
		switch status {
		case http.StatusForbidden:
			errType = "policy_error"
		case http.StatusInternalServerError:
			errType = "internal_error"
		}
		return c.JSON(status, llm.ErrorResponse{
			Error: &llm.ErrorDetail{
				Message: err.Error(),
				Type:    errType,
			},
		})
	}

	return c.JSON(http.StatusOK, resp)
}

// ListModels handles the models list request.
// GET /v1/models
func (h *Handler) ListModels(c echo.Context) error {
	created := time.Now().Unix()
	catalog := h.service.Models()
	data := make([]Model, 0, len(catalog))
	for _, m := range catalog {
		data = append(data, Model{
			ID:            m.ID,
			Object:        "model",
			Created:       created,
			OwnedBy:       h.service.Provider(),
			ContextLength: m.ContextLength,
		})
	}

	return c.JSON(http.StatusOK, ModelsResponse{
		Object: "list",
		Data:   data,
	})
}
