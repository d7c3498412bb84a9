package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ANAVHEOBA/softwaresystem/internal/domain"
)

// SQLiteStore implements Store using SQLite. Session messages live in a JSON array column.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			title TEXT,
			session_type TEXT NOT NULL DEFAULT 'general',
			messages TEXT NOT NULL DEFAULT '[]',
			metadata TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at)`,
		`CREATE TABLE IF NOT EXISTS ai_completions (
			id TEXT PRIMARY KEY,
			prompt TEXT NOT NULL,
			system_prompt TEXT,
			model TEXT NOT NULL,
			response TEXT NOT NULL,
			usage TEXT,
			request_type TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ai_completions_created ON ai_completions(created_at)`,
		`CREATE TABLE IF NOT EXISTS transcriptions (
			id TEXT PRIMARY KEY,
			text TEXT NOT NULL,
			source TEXT,
			ai_response TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transcriptions_created ON transcriptions(created_at)`,
		`CREATE TABLE IF NOT EXISTS stt_transcriptions (
			id TEXT PRIMARY KEY,
			text TEXT NOT NULL,
			language TEXT,
			duration REAL,
			model TEXT NOT NULL,
			file_name TEXT,
			file_size INTEGER,
			session_id TEXT,
			ai_response TEXT,
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_stt_transcriptions_created ON stt_transcriptions(created_at)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}

	// Added after the first release; older databases lack it.
	return s.ensureColumn("stt_transcriptions", "ai_response", "ALTER TABLE stt_transcriptions ADD COLUMN ai_response TEXT")
}

func (s *SQLiteStore) ensureColumn(tableName, columnName, ddl string) error {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", tableName))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull int
		var dfltValue sql.NullString
		var pk int
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return err
		}
		if name == columnName {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	_, err = s.db.Exec(ddl)
	return err
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const sessionColumns = `id, title, session_type, messages, metadata, created_at, updated_at`

// InsertSession stores a new session and returns its id.
func (s *SQLiteStore) InsertSession(ctx context.Context, session *domain.Session) (string, error) {
	messages := session.Messages
	if messages == nil {
		messages = []domain.Message{}
	}
	messagesJSON, err := json.Marshal(messages)
	if err != nil {
		return "", fmt.Errorf("failed to marshal messages: %w", err)
	}
	metadata, err := marshalNullable(session.Metadata)
	if err != nil {
		return "", err
	}

	id := domain.NewID()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (`+sessionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, nullableString(session.Title), session.SessionType, string(messagesJSON), metadata,
		session.CreatedAt.UTC(), session.UpdatedAt.UTC())
	if err != nil {
		return "", err
	}
	return id, nil
}

// FindSession retrieves a session by id.
func (s *SQLiteStore) FindSession(ctx context.Context, id string) (*domain.Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

// ListSessions lists sessions, most recently updated first.
func (s *SQLiteStore) ListSessions(ctx context.Context, limit int) ([]domain.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions ORDER BY updated_at DESC LIMIT ?`, sqlLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := []domain.Session{}
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	return sessions, rows.Err()
}

// CountSessions returns the number of stored sessions.
func (s *SQLiteStore) CountSessions(ctx context.Context) (int64, error) {
	return s.count(ctx, "sessions")
}

// PushSessionMessage appends a message to the JSON array in a single UPDATE statement.
func (s *SQLiteStore) PushSessionMessage(ctx context.Context, id string, message domain.Message, updatedAt time.Time) (bool, error) {
	data, err := json.Marshal(message)
	if err != nil {
		return false, fmt.Errorf("failed to marshal message: %w", err)
	}
	return s.execAffected(ctx,
		`UPDATE sessions SET messages = json_insert(messages, '$[#]', json(?)), updated_at = ? WHERE id = ?`,
		string(data), updatedAt.UTC(), id)
}

// SetSessionTitle updates the title and updated_at of a session.
func (s *SQLiteStore) SetSessionTitle(ctx context.Context, id, title string, updatedAt time.Time) (bool, error) {
	return s.execAffected(ctx,
		`UPDATE sessions SET title = ?, updated_at = ? WHERE id = ?`, title, updatedAt.UTC(), id)
}

// DeleteSession removes a session.
func (s *SQLiteStore) DeleteSession(ctx context.Context, id string) (bool, error) {
	return s.execAffected(ctx, `DELETE FROM sessions WHERE id = ?`, id)
}

const completionColumns = `id, prompt, system_prompt, model, response, usage, request_type, created_at`

// InsertCompletion stores an AI completion record.
func (s *SQLiteStore) InsertCompletion(ctx context.Context, c *domain.AICompletion) (string, error) {
	usage, err := marshalNullable(c.Usage)
	if err != nil {
		return "", err
	}
	id := domain.NewID()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO ai_completions (`+completionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, c.Prompt, nullableString(c.SystemPrompt), c.Model, c.Response, usage, string(c.RequestType), c.CreatedAt.UTC())
	if err != nil {
		return "", err
	}
	return id, nil
}

// FindCompletion retrieves an AI completion record.
func (s *SQLiteStore) FindCompletion(ctx context.Context, id string) (*domain.AICompletion, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+completionColumns+` FROM ai_completions WHERE id = ?`, id)
	c, err := scanCompletion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

// ListCompletions lists AI completion records, newest first.
func (s *SQLiteStore) ListCompletions(ctx context.Context, limit int) ([]domain.AICompletion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+completionColumns+` FROM ai_completions ORDER BY created_at DESC LIMIT ?`, sqlLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	completions := []domain.AICompletion{}
	for rows.Next() {
		c, err := scanCompletion(rows)
		if err != nil {
			return nil, err
		}
		completions = append(completions, *c)
	}
	return completions, rows.Err()
}

// CountCompletions returns the number of AI completion records.
func (s *SQLiteStore) CountCompletions(ctx context.Context) (int64, error) {
	return s.count(ctx, "ai_completions")
}

const transcriptionColumns = `id, text, source, ai_response, created_at, updated_at`

// InsertTranscription stores a transcription.
func (s *SQLiteStore) InsertTranscription(ctx context.Context, t *domain.Transcription) (string, error) {
	id := domain.NewID()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transcriptions (`+transcriptionColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		id, t.Text, nullableString(t.Source), nullableString(t.AIResponse), t.CreatedAt.UTC(), t.UpdatedAt.UTC())
	if err != nil {
		return "", err
	}
	return id, nil
}

// FindTranscription retrieves a transcription.
func (s *SQLiteStore) FindTranscription(ctx context.Context, id string) (*domain.Transcription, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+transcriptionColumns+` FROM transcriptions WHERE id = ?`, id)
	t, err := scanTranscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

// ListTranscriptions lists transcriptions, newest first.
func (s *SQLiteStore) ListTranscriptions(ctx context.Context, limit int) ([]domain.Transcription, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+transcriptionColumns+` FROM transcriptions ORDER BY created_at DESC LIMIT ?`, sqlLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Transcription{}
	for rows.Next() {
		t, err := scanTranscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// CountTranscriptions returns the number of transcriptions.
func (s *SQLiteStore) CountTranscriptions(ctx context.Context) (int64, error) {
	return s.count(ctx, "transcriptions")
}

// DeleteTranscription removes a transcription.
func (s *SQLiteStore) DeleteTranscription(ctx context.Context, id string) (bool, error) {
	return s.execAffected(ctx, `DELETE FROM transcriptions WHERE id = ?`, id)
}

// SetTranscriptionAIResponse attaches an AI response to a transcription.
func (s *SQLiteStore) SetTranscriptionAIResponse(ctx context.Context, id, aiResponse string, updatedAt time.Time) (bool, error) {
	return s.execAffected(ctx,
		`UPDATE transcriptions SET ai_response = ?, updated_at = ? WHERE id = ?`, aiResponse, updatedAt.UTC(), id)
}

const sttColumns = `id, text, language, duration, model, file_name, file_size, session_id, ai_response, created_at`

// InsertSttTranscription stores a speech-to-text result.
func (s *SQLiteStore) InsertSttTranscription(ctx context.Context, t *domain.SttTranscription) (string, error) {
	var duration, fileSize interface{}
	if t.Duration != nil {
		duration = *t.Duration
	}
	if t.FileSize != nil {
		fileSize = *t.FileSize
	}
	id := domain.NewID()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO stt_transcriptions (`+sttColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, t.Text, nullableString(t.Language), duration, t.Model, nullableString(t.FileName), fileSize,
		nullableString(t.SessionID), nullableString(t.AIResponse), t.CreatedAt.UTC())
	if err != nil {
		return "", err
	}
	return id, nil
}

// FindSttTranscription retrieves a speech-to-text result.
func (s *SQLiteStore) FindSttTranscription(ctx context.Context, id string) (*domain.SttTranscription, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sttColumns+` FROM stt_transcriptions WHERE id = ?`, id)
	t, err := scanSttTranscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

// ListSttTranscriptions lists speech-to-text results, newest first.
func (s *SQLiteStore) ListSttTranscriptions(ctx context.Context, limit int) ([]domain.SttTranscription, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sttColumns+` FROM stt_transcriptions ORDER BY created_at DESC LIMIT ?`, sqlLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.SttTranscription{}
	for rows.Next() {
		t, err := scanSttTranscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// CountSttTranscriptions returns the number of speech-to-text results.
func (s *SQLiteStore) CountSttTranscriptions(ctx context.Context) (int64, error) {
	return s.count(ctx, "stt_transcriptions")
}

// DeleteSttTranscription removes a speech-to-text result.
func (s *SQLiteStore) DeleteSttTranscription(ctx context.Context, id string) (bool, error) {
	return s.execAffected(ctx, `DELETE FROM stt_transcriptions WHERE id = ?`, id)
}

func (s *SQLiteStore) count(ctx context.Context, table string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&n)
	return n, err
}

func (s *SQLiteStore) execAffected(ctx context.Context, query string, args ...interface{}) (bool, error) {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var session domain.Session
	var title, metadata sql.NullString
	var messages string
	if err := row.Scan(&session.ID, &title, &session.SessionType, &messages, &metadata,
		&session.CreatedAt, &session.UpdatedAt); err != nil {
		return nil, err
	}
	session.Title = stringPtr(title)
	if err := json.Unmarshal([]byte(messages), &session.Messages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal messages: %w", err)
	}
	if session.Messages == nil {
		session.Messages = []domain.Message{}
	}
	if metadata.Valid {
		if err := json.Unmarshal([]byte(metadata.String), &session.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return &session, nil
}

func scanCompletion(row rowScanner) (*domain.AICompletion, error) {
	var c domain.AICompletion
	var systemPrompt, usage sql.NullString
	var requestType string
	if err := row.Scan(&c.ID, &c.Prompt, &systemPrompt, &c.Model, &c.Response, &usage, &requestType, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.SystemPrompt = stringPtr(systemPrompt)
	c.RequestType = domain.RequestType(requestType)
	if usage.Valid {
		c.Usage = &domain.Usage{}
		if err := json.Unmarshal([]byte(usage.String), c.Usage); err != nil {
			return nil, fmt.Errorf("failed to unmarshal usage: %w", err)
		}
	}
	return &c, nil
}

func scanTranscription(row rowScanner) (*domain.Transcription, error) {
	var t domain.Transcription
	var source, aiResponse sql.NullString
	if err := row.Scan(&t.ID, &t.Text, &source, &aiResponse, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Source = stringPtr(source)
	t.AIResponse = stringPtr(aiResponse)
	return &t, nil
}

func scanSttTranscription(row rowScanner) (*domain.SttTranscription, error) {
	var t domain.SttTranscription
	var language, fileName, sessionID, aiResponse sql.NullString
	var duration sql.NullFloat64
	var fileSize sql.NullInt64
	if err := row.Scan(&t.ID, &t.Text, &language, &duration, &t.Model, &fileName, &fileSize,
		&sessionID, &aiResponse, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.Language = stringPtr(language)
	t.FileName = stringPtr(fileName)
	t.SessionID = stringPtr(sessionID)
	t.AIResponse = stringPtr(aiResponse)
	if duration.Valid {
		t.Duration = &duration.Float64
	}
	if fileSize.Valid {
		t.FileSize = &fileSize.Int64
	}
	return &t, nil
}

// sqlLimit maps "no cap" to SQLite's LIMIT -1.
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

func nullableString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// marshalNullable encodes v as JSON, or NULL for a nil map or usage.
func marshalNullable[T any](v T) (sql.NullString, error) {
	switch val := any(v).(type) {
	case map[string]any:
		if val == nil {
			return sql.NullString{}, nil
		}
	case *domain.Usage:
		if val == nil {
			return sql.NullString{}, nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to marshal value: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
