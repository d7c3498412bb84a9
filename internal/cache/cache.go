// Package cache provides the key/value cache used in front of the document store.
package cache

import (
	"context"
	"time"
)

// Cache is a string key/value store with per-key expiry.
type Cache interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// SetEx stores value under key for ttl.
	SetEx(ctx context.Context, key, value string, ttl time.Duration) error
	// Del removes key. Deleting an absent key is not an error.
	Del(ctx context.Context, key string) error
}

// Nop is a Cache that stores nothing. Every Get is a miss.
type Nop struct{}

var _ Cache = Nop{}

func (Nop) Get(context.Context, string) (string, bool, error) { return "", false, nil }

func (Nop) SetEx(context.Context, string, string, time.Duration) error { return nil }

func (Nop) Del(context.Context, string) error { return nil }
