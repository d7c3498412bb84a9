// Package helpers provides shared fixtures for package tests.
package helpers

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/ANAVHEOBA/softwaresystem/internal/cache"
	"github.com/ANAVHEOBA/softwaresystem/internal/repository"
	"github.com/ANAVHEOBA/softwaresystem/internal/session"
)

// NewTestSQLiteStore opens an in-memory SQLite store closed at test end.
func NewTestSQLiteStore(t *testing.T) *repository.SQLiteStore {
	t.Helper()

	s, err := repository.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

// NewTestCache starts a miniredis server and returns a cache backed by it.
func NewTestCache(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() {
		_ = client.Close()
	})

	return cache.NewRedisCache(client), mr
}

// NewTestSessionStore returns a session store over fresh SQLite and Redis fixtures.
func NewTestSessionStore(t *testing.T) (*session.Store, *repository.SQLiteStore, *miniredis.Miniredis) {
	t.Helper()

	db := NewTestSQLiteStore(t)
	c, mr := NewTestCache(t)
	return session.NewStore(db, c), db, mr
}
