package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ANAVHEOBA/softwaresystem/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStoreSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	title := "Standup"
	session := domain.NewSession(&title, "meeting", map[string]any{"tier": "pro"})
	id, err := store.InsertSession(ctx, session)
	require.NoError(t, err)
	assert.True(t, domain.ValidID(id))

	got, err := store.FindSession(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, got.ID)
	require.NotNil(t, got.Title)
	assert.Equal(t, "Standup", *got.Title)
	assert.Equal(t, "meeting", got.SessionType)
	assert.Equal(t, "pro", got.Metadata["tier"])
	assert.NotNil(t, got.Messages)
	assert.Empty(t, got.Messages)
}

func TestSQLiteStoreFindSessionMissing(t *testing.T) {
	store := newTestStore(t)

	got, err := store.FindSession(context.Background(), domain.NewID())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteStorePushSessionMessage(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	id, err := store.InsertSession(ctx, domain.NewSession(nil, "", nil))
	require.NoError(t, err)

	updated := time.Now().UTC().Add(time.Minute)
	found, err := store.PushSessionMessage(ctx, id, domain.UserMessage("hello"), updated)
	require.NoError(t, err)
	assert.True(t, found)
	found, err = store.PushSessionMessage(ctx, id, domain.AssistantMessage("hi there"), updated)
	require.NoError(t, err)
	assert.True(t, found)

	got, err := store.FindSession(ctx, id)
	require.NoError(t, err)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, domain.RoleUser, got.Messages[0].Role)
	assert.Equal(t, "hello", got.Messages[0].Content)
	assert.Equal(t, domain.RoleAssistant, got.Messages[1].Role)
	assert.WithinDuration(t, updated, got.UpdatedAt, time.Second)

	found, err = store.PushSessionMessage(ctx, domain.NewID(), domain.UserMessage("nobody"), updated)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSQLiteStoreConcurrentPushKeepsEveryMessage(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	id, err := store.InsertSession(ctx, domain.NewSession(nil, "", nil))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.PushSessionMessage(ctx, id, domain.UserMessage(fmt.Sprintf("m%d", i)), time.Now())
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := store.FindSession(ctx, id)
	require.NoError(t, err)
	assert.Len(t, got.Messages, 20)
}

func TestSQLiteStoreListSessionsOrder(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	base := time.Now().UTC()
	var ids []string
	for i := 0; i < 3; i++ {
		s := domain.NewSession(nil, "", nil)
		s.CreatedAt = base.Add(time.Duration(i) * time.Second)
		s.UpdatedAt = s.CreatedAt
		id, err := store.InsertSession(ctx, s)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	// Touching the oldest session moves it to the front.
	_, err := store.SetSessionTitle(ctx, ids[0], "renamed", base.Add(time.Hour))
	require.NoError(t, err)

	sessions, err := store.ListSessions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	assert.Equal(t, ids[0], sessions[0].ID)
	assert.Equal(t, ids[2], sessions[1].ID)
	assert.Equal(t, ids[1], sessions[2].ID)

	limited, err := store.ListSessions(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	n, err := store.CountSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestSQLiteStoreDeleteSession(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	id, err := store.InsertSession(ctx, domain.NewSession(nil, "", nil))
	require.NoError(t, err)

	deleted, err := store.DeleteSession(ctx, id)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.DeleteSession(ctx, id)
	require.NoError(t, err)
	assert.False(t, deleted)

	ok, err := store.SetSessionTitle(ctx, id, "gone", time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStoreCompletions(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	system := "be brief"
	id, err := store.InsertCompletion(ctx, &domain.AICompletion{
		Prompt:       "2+2?",
		SystemPrompt: &system,
		Model:        "llama-3.1-8b-instant",
		Response:     "4",
		Usage:        &domain.Usage{PromptTokens: 3, CompletionTokens: 1, TotalTokens: 4},
		RequestType:  domain.RequestTypeComplete,
		CreatedAt:    time.Now(),
	})
	require.NoError(t, err)
	_, err = store.InsertCompletion(ctx, &domain.AICompletion{
		Prompt:      "hi",
		Model:       "m",
		Response:    "hello",
		RequestType: domain.RequestTypeChat,
		CreatedAt:   time.Now().Add(time.Second),
	})
	require.NoError(t, err)

	got, err := store.FindCompletion(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "4", got.Response)
	require.NotNil(t, got.Usage)
	assert.Equal(t, 4, got.Usage.TotalTokens)
	assert.Equal(t, domain.RequestTypeComplete, got.RequestType)

	list, err := store.ListCompletions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, domain.RequestTypeChat, list[0].RequestType)
	assert.Nil(t, list[0].Usage)
	assert.Nil(t, list[0].SystemPrompt)

	n, err := store.CountCompletions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestSQLiteStoreTranscriptions(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	source := "zoom"
	now := time.Now().UTC()
	id, err := store.InsertTranscription(ctx, &domain.Transcription{Text: "tell me about yourself", Source: &source, CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)

	ok, err := store.SetTranscriptionAIResponse(ctx, id, "Start with your current role.", now.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := store.FindTranscription(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got.AIResponse)
	assert.Equal(t, "Start with your current role.", *got.AIResponse)
	assert.Equal(t, "zoom", *got.Source)

	list, err := store.ListTranscriptions(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	deleted, err := store.DeleteTranscription(ctx, id)
	require.NoError(t, err)
	assert.True(t, deleted)

	n, err := store.CountTranscriptions(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	missing, err := store.FindTranscription(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSQLiteStoreSttTranscriptions(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	lang := "en"
	duration := 3.5
	size := int64(2048)
	name := "clip.webm"
	sessionID := domain.NewID()
	id, err := store.InsertSttTranscription(ctx, &domain.SttTranscription{
		Text:      "hello world",
		Language:  &lang,
		Duration:  &duration,
		Model:     "whisper-large-v3-turbo",
		FileName:  &name,
		FileSize:  &size,
		SessionID: &sessionID,
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	got, err := store.FindSttTranscription(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "hello world", got.Text)
	assert.Equal(t, 3.5, *got.Duration)
	assert.Equal(t, int64(2048), *got.FileSize)
	assert.Equal(t, sessionID, *got.SessionID)
	assert.Nil(t, got.AIResponse)

	list, err := store.ListSttTranscriptions(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	n, err := store.CountSttTranscriptions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	deleted, err := store.DeleteSttTranscription(ctx, id)
	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestSQLiteStoreMigrateIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.migrate())
	require.NoError(t, store.Ping(context.Background()))
}
