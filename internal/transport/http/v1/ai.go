package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ANAVHEOBA/softwaresystem/internal/service"
)

const completionResource = "Completion"

// CompleteRequest is the body of POST /api/ai/complete.
type CompleteRequest struct {
	Prompt       string   `json:"prompt"`
	Model        string   `json:"model"`
	SystemPrompt *string  `json:"system_prompt"`
	MaxTokens    *int     `json:"max_tokens"`
	Temperature  *float64 `json:"temperature"`
}

// SuggestRequest is the body of POST /api/ai/suggest.
type SuggestRequest struct {
	Context        string `json:"context"`
	Model          string `json:"model"`
	SuggestionType string `json:"suggestion_type"`
}

// AnalyzeRequest is the body of POST /api/ai/analyze.
type AnalyzeRequest struct {
	Text         string `json:"text"`
	Model        string `json:"model"`
	AnalysisType string `json:"analysis_type"`
}

// Complete handles POST /api/ai/complete.
func (h *Handler) Complete(c echo.Context) error {
	var req CompleteRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.MaxTokens != nil && *req.MaxTokens < 0 {
		return badRequest(c, "max_tokens must not be negative")
	}

	result, err := h.service.Complete(c.Request().Context(), service.CompleteInput{
		Prompt:       req.Prompt,
		Model:        req.Model,
		SystemPrompt: req.SystemPrompt,
		MaxTokens:    req.MaxTokens,
		Temperature:  req.Temperature,
	})
	if err != nil {
		return writeError(c, completionResource, err)
	}
	return c.JSON(http.StatusOK, toAIResponse(result))
}

// Suggest handles POST /api/ai/suggest.
func (h *Handler) Suggest(c echo.Context) error {
	var req SuggestRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	result, err := h.service.Suggest(c.Request().Context(), service.SuggestInput{
		Context:        req.Context,
		Model:          req.Model,
		SuggestionType: req.SuggestionType,
	})
	if err != nil {
		return writeError(c, completionResource, err)
	}
	return c.JSON(http.StatusOK, toAIResponse(result))
}

// Analyze handles POST /api/ai/analyze.
func (h *Handler) Analyze(c echo.Context) error {
	var req AnalyzeRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	result, err := h.service.Analyze(c.Request().Context(), service.AnalyzeInput{
		Text:         req.Text,
		Model:        req.Model,
		AnalysisType: req.AnalysisType,
	})
	if err != nil {
		return writeError(c, completionResource, err)
	}
	return c.JSON(http.StatusOK, toAIResponse(result))
}

// ListModels handles GET /api/ai/models.
func (h *Handler) ListModels(c echo.Context) error {
	return c.JSON(http.StatusOK, ModelsResponse{Models: h.service.Models()})
}
