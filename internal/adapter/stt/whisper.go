// Package stt provides a client for Whisper-compatible transcription APIs.
package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"
	"time"

	"github.com/ANAVHEOBA/softwaresystem/internal/domain"
)

const (
	transcribeEndpoint = "/audio/transcriptions"

	// DefaultModel is the Groq-hosted Whisper model.
	DefaultModel = "whisper-large-v3-turbo"

	defaultTimeout = 60 * time.Second
)

// ErrEmptyAudio is returned when no audio bytes were supplied.
var ErrEmptyAudio = errors.New("audio data is empty")

var mimeTypes = map[string]string{
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"webm": "audio/webm",
	"ogg":  "audio/ogg",
	"m4a":  "audio/m4a",
	"flac": "audio/flac",
	"mp4":  "audio/mp4",
}

// SupportedFormats lists the accepted file extensions.
func SupportedFormats() []string {
	return []string{"mp3", "wav", "webm", "ogg", "m4a", "flac", "mp4"}
}

// MIMEType returns the content type for fileName, or application/octet-stream.
func MIMEType(fileName string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
	if mt, ok := mimeTypes[ext]; ok {
		return mt
	}
	return "application/octet-stream"
}

// Result is a transcription returned by the API.
type Result struct {
	Text     string
	Language *string
	Duration *float64
	Model    string
}

// Transcriber converts audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, fileName, language string) (*Result, error)
}

// Client calls a Whisper-compatible API.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

var _ Transcriber = (*Client)(nil)

// Option configures the Client.
type Option func(*Client)

// WithModel sets the transcription model.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.client.Timeout = timeout
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// NewClient creates a transcription client. An empty key is rejected.
func NewClient(baseURL, apiKey string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("stt: %w", domain.ErrMissingAPIKey)
	}
	c := &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   DefaultModel,
		client:  &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Model returns the configured model.
func (c *Client) Model() string { return c.model }

// Transcribe uploads audio as multipart form data and returns the verbose_json result.
func (c *Client) Transcribe(ctx context.Context, audio []byte, fileName, language string) (*Result, error) {
	if len(audio) == 0 {
		return nil, ErrEmptyAudio
	}
	if fileName == "" {
		fileName = "audio.webm"
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, fileName))
	header.Set("Content-Type", MIMEType(fileName))
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, fmt.Errorf("failed to write audio data: %w", err)
	}

	fields := [][2]string{{"model", c.model}, {"response_format", "verbose_json"}}
	if language != "" {
		fields = append(fields, [2]string{"language", language})
	}
	for _, f := range fields {
		if err := writer.WriteField(f[0], f[1]); err != nil {
			return nil, fmt.Errorf("failed to write %s field: %w", f[0], err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+transcribeEndpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &domain.APIError{Message: fmt.Sprintf("transcription request failed: %v", err), Retryable: true}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.APIError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read response: %v", err), Retryable: true}
	}

	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Error *struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != nil && errResp.Error.Message != "" {
			return nil, &domain.APIError{StatusCode: resp.StatusCode, Message: errResp.Error.Message}
		}
		return nil, &domain.APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	var result struct {
		Text     string   `json:"text"`
		Language *string  `json:"language"`
		Duration *float64 `json:"duration"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, domain.InvalidResponse(fmt.Sprintf("failed to parse transcription: %v", err))
	}

	return &Result{
		Text:     strings.TrimSpace(result.Text),
		Language: result.Language,
		Duration: result.Duration,
		Model:    c.model,
	}, nil
}
