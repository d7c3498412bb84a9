// Package session implements the cache-aside session store.
//
// The document store is authoritative. The cache holds JSON snapshots keyed by
// "session:<id>" and is never updated in place: every write deletes the entry
// and the next read repopulates it. A cache failure never turns into a
// "not found" result.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ANAVHEOBA/softwaresystem/internal/cache"
	"github.com/ANAVHEOBA/softwaresystem/internal/domain"
	"github.com/ANAVHEOBA/softwaresystem/internal/logging"
	"github.com/ANAVHEOBA/softwaresystem/internal/metrics"
	"github.com/ANAVHEOBA/softwaresystem/internal/repository"
)

// DefaultTTL is the lifetime of a cached session snapshot.
const DefaultTTL = time.Hour

// DefaultFindTimeout bounds a shared document-store read.
const DefaultFindTimeout = 10 * time.Second

const keyPrefix = "session:"

// CacheKey returns the cache key of a session.
func CacheKey(id string) string {
	return keyPrefix + id
}

// StoreError is returned when the document store fails.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("session store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Store combines the document store and the cache.
type Store struct {
	repo  repository.SessionRepository
	cache cache.Cache
	ttl         time.Duration
	findTimeout time.Duration
	now         func() time.Time
	group       singleflight.Group
}

// Option configures a Store.
type Option func(*Store)

// WithTTL sets the cache entry lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithFindTimeout bounds the document-store read shared by concurrent misses.
func WithFindTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.findTimeout = d
		}
	}
}

// WithClock overrides the time source used for updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a session store. A nil cache disables caching.
func NewStore(repo repository.SessionRepository, c cache.Cache, opts ...Option) *Store {
	if c == nil {
		c = cache.Nop{}
	}
	s := &Store{
		repo:        repo,
		cache:       c,
		ttl:         DefaultTTL,
		findTimeout: DefaultFindTimeout,
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create inserts a new session and returns its id. The cache is not written.
func (s *Store) Create(ctx context.Context, session *domain.Session) (string, error) {
	id, err := s.repo.InsertSession(ctx, session)
	if err != nil {
		return "", &StoreError{Op: "create", Err: err}
	}
	return id, nil
}

// FindByID returns the session or (nil, nil) when it does not exist.
// A cached snapshot may be up to one TTL stale.
func (s *Store) FindByID(ctx context.Context, id string) (*domain.Session, error) {
	if session, ok := s.readCache(ctx, id); ok {
		return session, nil
	}

	// The flight outlives any one caller: a cancelled request must not fail
	// the others waiting on the same id.
	ch := s.group.DoChan(id, func() (interface{}, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.findTimeout)
		defer cancel()
		session, err := s.repo.FindSession(flightCtx, id)
		if err != nil {
			return nil, &StoreError{Op: "find", Err: err}
		}
		if session != nil {
			s.writeCache(flightCtx, session)
		}
		return session, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, &StoreError{Op: "find", Err: ctx.Err()}
	}
	if res.Err != nil {
		return nil, res.Err
	}
	session, _ := res.Val.(*domain.Session)
	if session == nil {
		return nil, nil
	}
	return cloneSession(session), nil
}

// cloneSession copies everything a caller might mutate, so callers sharing a
// flight never share state.
func cloneSession(session *domain.Session) *domain.Session {
	clone := *session
	clone.Messages = append([]domain.Message(nil), session.Messages...)
	if session.Metadata != nil {
		clone.Metadata = cloneValue(session.Metadata).(map[string]any)
	}
	return &clone
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = cloneValue(e)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// FindAll lists sessions by most recent update. Never served from cache.
func (s *Store) FindAll(ctx context.Context, limit int) ([]domain.Session, error) {
	sessions, err := s.repo.ListSessions(ctx, limit)
	if err != nil {
		return nil, &StoreError{Op: "list", Err: err}
	}
	return sessions, nil
}

// Count returns the number of sessions in the document store.
func (s *Store) Count(ctx context.Context) (int64, error) {
	n, err := s.repo.CountSessions(ctx)
	if err != nil {
		return 0, &StoreError{Op: "count", Err: err}
	}
	return n, nil
}

// AddMessage appends message and touches updated_at. It returns false when the
// session does not exist.
func (s *Store) AddMessage(ctx context.Context, id string, message domain.Message) (bool, error) {
	found, err := s.repo.PushSessionMessage(ctx, id, message, s.now())
	if err != nil {
		return false, &StoreError{Op: "add_message", Err: err}
	}
	if found {
		s.invalidate(ctx, id)
	}
	return found, nil
}

// UpdateTitle sets the title and touches updated_at.
func (s *Store) UpdateTitle(ctx context.Context, id, title string) (bool, error) {
	found, err := s.repo.SetSessionTitle(ctx, id, title, s.now())
	if err != nil {
		return false, &StoreError{Op: "update_title", Err: err}
	}
	if found {
		s.invalidate(ctx, id)
	}
	return found, nil
}

// Delete removes a session. The cache entry is dropped whether or not it existed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	deleted, err := s.repo.DeleteSession(ctx, id)
	if err != nil {
		return false, &StoreError{Op: "delete", Err: err}
	}
	s.invalidate(ctx, id)
	return deleted, nil
}

func (s *Store) readCache(ctx context.Context, id string) (*domain.Session, bool) {
	raw, ok, err := s.cache.Get(ctx, CacheKey(id))
	if err != nil {
		metrics.CacheLookups.WithLabelValues("error").Inc()
		metrics.CacheErrors.WithLabelValues("get").Inc()
		logging.FromContext(ctx).Warn("session cache read failed", "session_id", id, "error", err)
		return nil, false
	}
	if !ok {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}

	var session domain.Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		metrics.CacheLookups.WithLabelValues("decode_error").Inc()
		logging.FromContext(ctx).Warn("discarding undecodable session snapshot", "session_id", id, "error", err)
		return nil, false
	}
	if session.ID == "" {
		session.ID = id
	}
	if session.Messages == nil {
		session.Messages = []domain.Message{}
	}
	metrics.CacheLookups.WithLabelValues("hit").Inc()
	return &session, true
}

func (s *Store) writeCache(ctx context.Context, session *domain.Session) {
	data, err := json.Marshal(session)
	if err != nil {
		logging.FromContext(ctx).Warn("failed to encode session snapshot", "session_id", session.ID, "error", err)
		return
	}
	if err := s.cache.SetEx(ctx, CacheKey(session.ID), string(data), s.ttl); err != nil {
		metrics.CacheErrors.WithLabelValues("set").Inc()
		logging.FromContext(ctx).Warn("session cache populate failed", "session_id", session.ID, "error", err)
	}
}

func (s *Store) invalidate(ctx context.Context, id string) {
	if err := s.cache.Del(ctx, CacheKey(id)); err != nil {
		metrics.CacheErrors.WithLabelValues("del").Inc()
		logging.FromContext(ctx).Warn("session cache invalidation failed", "session_id", id, "error", err)
	}
}
