package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ANAVHEOBA/softwaresystem/internal/adapter/llm"
	"github.com/ANAVHEOBA/softwaresystem/internal/adapter/stt"
	"github.com/ANAVHEOBA/softwaresystem/internal/config"
	"github.com/ANAVHEOBA/softwaresystem/internal/domain"
	"github.com/ANAVHEOBA/softwaresystem/internal/policy"
	"github.com/ANAVHEOBA/softwaresystem/internal/service"
	"github.com/ANAVHEOBA/softwaresystem/internal/session"
	"github.com/ANAVHEOBA/softwaresystem/tests/helpers"
)

type staticTranscriber struct{}

func (staticTranscriber) Transcribe(_ context.Context, audio []byte, _, _ string) (*stt.Result, error) {
	return &stt.Result{Text: fmt.Sprintf("heard %d bytes", len(audio)), Model: stt.DefaultModel}, nil
}

func newTestHandler(t *testing.T) (*Handler, *session.Store) {
	t.Helper()
	sessions, db, _ := helpers.NewTestSessionStore(t)
	cfg := &config.Config{
		ChatContextWindow: domain.DefaultContextWindow,
		ChatSystemPrompt:  config.DefaultChatSystemPrompt,
	}
	engine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	require.NoError(t, err)
	svc := service.New(db, sessions, llm.NewMockClient(), staticTranscriber{}, cfg, engine)
	return NewHandler(svc), sessions
}

// call runs handler against a request with optional path params given as name, value pairs.
func call(t *testing.T, handler echo.HandlerFunc, req *http.Request, params ...string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	var names, values []string
	for i := 0; i+1 < len(params); i += 2 {
		names = append(names, params[i])
		values = append(values, params[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	require.NoError(t, handler(c))
	return rec
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func createSession(t *testing.T, h *Handler, body string) SessionResponse {
	t.Helper()
	rec := call(t, h.CreateSession, jsonRequest(http.MethodPost, "/api/session", body))
	require.Equal(t, http.StatusCreated, rec.Code)
	return decode[SessionResponse](t, rec)
}

func TestCreateSession(t *testing.T) {
	h, _ := newTestHandler(t)

	got := createSession(t, h, `{"title":"Standup"}`)
	assert.True(t, domain.ValidID(got.ID))
	assert.Equal(t, "Standup", *got.Title)
	assert.Equal(t, domain.DefaultSessionType, got.SessionType)
	assert.Empty(t, got.Messages)
	assert.Zero(t, got.MessageCount)
}

func TestCreateSessionTitleTooLong(t *testing.T) {
	h, _ := newTestHandler(t)

	body := fmt.Sprintf(`{"title":%q}`, strings.Repeat("a", 101))
	rec := call(t, h.CreateSession, jsonRequest(http.MethodPost, "/api/session", body))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSessionErrors(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := call(t, h.GetSession, httptest.NewRequest(http.MethodGet, "/", nil), "id", "not-an-id")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid ID format", decode[MessageResponse](t, rec).Message)

	rec = call(t, h.GetSession, httptest.NewRequest(http.MethodGet, "/", nil), "id", domain.NewID())
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Session not found", decode[MessageResponse](t, rec).Message)
}

func TestAddMessageThenGet(t *testing.T) {
	h, _ := newTestHandler(t)
	s := createSession(t, h, `{"title":"T"}`)

	rec := call(t, h.AddMessage, jsonRequest(http.MethodPost, "/", `{"role":"user","content":"hi"}`), "id", s.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	msg := decode[MessageView](t, rec)
	assert.Equal(t, "hi", msg.Content)
	assert.NotEmpty(t, msg.Timestamp)

	rec = call(t, h.GetSession, httptest.NewRequest(http.MethodGet, "/", nil), "id", s.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[SessionResponse](t, rec)
	assert.Equal(t, 1, got.MessageCount)
	assert.Equal(t, "user", got.Messages[0].Role)

	rec = call(t, h.AddMessage, jsonRequest(http.MethodPost, "/", `{"role":"user","content":""}`), "id", s.ID)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = call(t, h.AddMessage, jsonRequest(http.MethodPost, "/", `{"role":"user","content":"x"}`), "id", domain.NewID())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChatEndpoint(t *testing.T) {
	h, _ := newTestHandler(t)
	s := createSession(t, h, `{}`)

	for _, msg := range []string{"hello", "and again"} {
		rec := call(t, h.Chat, jsonRequest(http.MethodPost, "/", fmt.Sprintf(`{"message":%q}`, msg)), "id", s.ID)
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[ChatResponse](t, rec)
		assert.Equal(t, s.ID, resp.SessionID)
		assert.Equal(t, msg, resp.Message.Content)
		assert.Equal(t, "assistant", resp.Response.Role)
		assert.Equal(t, "mock-model", resp.Model)
	}

	rec := call(t, h.GetSession, httptest.NewRequest(http.MethodGet, "/", nil), "id", s.ID)
	assert.Equal(t, 4, decode[SessionResponse](t, rec).MessageCount)

	rec = call(t, h.Chat, jsonRequest(http.MethodPost, "/", `{"message":"hi"}`), "id", domain.NewID())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateAndDeleteSession(t *testing.T) {
	h, _ := newTestHandler(t)
	s := createSession(t, h, `{}`)

	rec := call(t, h.UpdateSession, jsonRequest(http.MethodPatch, "/", `{"title":"Renamed"}`), "id", s.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Renamed", *decode[SessionResponse](t, rec).Title)

	rec = call(t, h.DeleteSession, httptest.NewRequest(http.MethodDelete, "/", nil), "id", s.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Deleted successfully", decode[MessageResponse](t, rec).Message)

	rec = call(t, h.DeleteSession, httptest.NewRequest(http.MethodDelete, "/", nil), "id", s.ID)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListSessions(t *testing.T) {
	h, _ := newTestHandler(t)
	createSession(t, h, `{}`)
	createSession(t, h, `{"session_type":"interview"}`)

	rec := call(t, h.ListSessions, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[SessionListResponse](t, rec)
	assert.Len(t, got.Data, 2)
	assert.Equal(t, int64(2), got.Total)
}

func TestAIEndpoints(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := call(t, h.Complete, jsonRequest(http.MethodPost, "/", `{"prompt":"2+2?"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[AIResponse](t, rec)
	assert.True(t, domain.ValidID(got.ID))
	assert.Contains(t, got.Content, "[MOCK]")
	require.NotNil(t, got.Usage)

	rec = call(t, h.Suggest, jsonRequest(http.MethodPost, "/", `{"context":"two sum","suggestion_type":"leetcode"}`))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = call(t, h.Analyze, jsonRequest(http.MethodPost, "/", `{"text":"ok","analysis_type":"summary"}`))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = call(t, h.Complete, jsonRequest(http.MethodPost, "/", `{"prompt":""}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(t, h.Complete, jsonRequest(http.MethodPost, "/", `{"prompt":"x","max_tokens":100000}`))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = call(t, h.ListModels, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[ModelsResponse](t, rec).Models, len(domain.ModelCatalog))
}

func audioRequest(t *testing.T, target, field, fileName string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile(field, fileName)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func TestTranscribeEndpoint(t *testing.T) {
	h, _ := newTestHandler(t)
	s := createSession(t, h, `{}`)

	req := audioRequest(t, "/api/stt/transcribe?language=en&session_id="+s.ID, "file", "clip.wav", []byte("abcd"))
	rec := call(t, h.Transcribe, req)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[TranscribeResponse](t, rec)
	assert.Equal(t, "heard 4 bytes", got.Text)

	rec = call(t, h.GetSession, httptest.NewRequest(http.MethodGet, "/", nil), "id", s.ID)
	assert.Equal(t, 1, decode[SessionResponse](t, rec).MessageCount)

	rec = call(t, h.GetSttTranscription, httptest.NewRequest(http.MethodGet, "/", nil), "id", got.ID)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = call(t, h.ListSttTranscriptions, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decode[SttListResponse](t, rec).Total)

	rec = call(t, h.DeleteSttTranscription, httptest.NewRequest(http.MethodDelete, "/", nil), "id", got.ID)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = call(t, h.GetSttTranscription, httptest.NewRequest(http.MethodGet, "/", nil), "id", got.ID)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTranscribeWithAIEndpoint(t *testing.T) {
	h, _ := newTestHandler(t)
	s := createSession(t, h, `{}`)

	req := audioRequest(t, "/api/stt/transcribe-ai?session_id="+s.ID, "audio", "q.webm", []byte("xy"))
	rec := call(t, h.TranscribeWithAI, req)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[TranscribeWithAIResponse](t, rec)
	assert.Equal(t, "heard 2 bytes", got.Transcription)
	assert.NotEmpty(t, got.AIResponse)

	rec = call(t, h.GetSession, httptest.NewRequest(http.MethodGet, "/", nil), "id", s.ID)
	assert.Equal(t, 2, decode[SessionResponse](t, rec).MessageCount)
}

func TestTranscribeRejectsBadUploads(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := call(t, h.Transcribe, audioRequest(t, "/", "file", "notes.txt", []byte("x")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[MessageResponse](t, rec).Message, "unsupported audio format")

	rec = call(t, h.Transcribe, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(t, h.SupportedFormats, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.ElementsMatch(t, stt.SupportedFormats(), decode[[]string](t, rec))
}

func TestTranscriptionEndpoints(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := call(t, h.CreateTranscription, jsonRequest(http.MethodPost, "/", `{"text":"what is your weakness?","source":"zoom"}`))
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[TranscriptionResponse](t, rec)
	assert.Nil(t, created.AIResponse)

	rec = call(t, h.RespondToTranscription, httptest.NewRequest(http.MethodPost, "/", nil), "id", created.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, decode[TranscriptionResponse](t, rec).AIResponse)

	rec = call(t, h.GetTranscription, httptest.NewRequest(http.MethodGet, "/", nil), "id", created.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, decode[TranscriptionResponse](t, rec).AIResponse)

	rec = call(t, h.ListTranscriptions, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, int64(1), decode[TranscriptionListResponse](t, rec).Total)

	rec = call(t, h.DeleteTranscription, httptest.NewRequest(http.MethodDelete, "/", nil), "id", created.ID)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = call(t, h.CreateTranscription, jsonRequest(http.MethodPost, "/", `{"text":""}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("x: %w", domain.ErrNotFound), http.StatusNotFound},
		{domain.ErrInvalidID, http.StatusBadRequest},
		{domain.Invalid("bad"), http.StatusBadRequest},
		{fmt.Errorf("%w: too big", domain.ErrPolicyDenied), http.StatusForbidden},
		{&domain.APIError{StatusCode: 401, Message: "invalid key"}, http.StatusBadGateway},
		{fmt.Errorf("chat: %w", &domain.APIError{Message: "timeout", Retryable: true}), http.StatusGatewayTimeout},
		{domain.InvalidResponse("no choices"), http.StatusBadGateway},
		{&session.StoreError{Op: "find", Err: errors.New("db down")}, http.StatusInternalServerError},
		{fmt.Errorf("create llm client: %w", domain.ErrMissingAPIKey), http.StatusBadRequest},
		{service.ErrSTTUnavailable, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StatusCode(tc.err), tc.err.Error())
	}
}

func TestRegisterRoutes(t *testing.T) {
	h, _ := newTestHandler(t)
	e := echo.New()
	h.RegisterRoutes(e)

	req := jsonRequest(http.MethodPost, "/api/session", `{"title":"routed"}`)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[SessionResponse](t, rec).ID

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/session/"+id, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
