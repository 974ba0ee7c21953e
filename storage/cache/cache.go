// Package cache stores short-lived JSON values, in redis or in process memory.
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Cache is a key/value store with expiring entries. Values are stored as JSON.
type Cache interface {
	// Get decodes the value of key into dest. It reports false when the key is missing or expired.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

type memEntry struct {
	value     []byte
	expiresAt time.Time
}

// pruneEvery bounds how often Set sweeps expired entries out of a Memory cache.
const pruneEvery = time.Minute

// Memory is the in-process Cache.
type Memory struct {
	mu       sync.Mutex
	entries  map[string]memEntry
	now      func() time.Time
	prunedAt time.Time
}

var _ Cache = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memEntry), now: time.Now}
}

func (m *Memory) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	m.mu.Lock()
	e, ok := m.entries[key]
	if ok && !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		delete(m.entries, key)
		ok = false
	}
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(e.value, dest); err != nil {
		return false, errors.Wrapf(err, "decoding cached %s", key)
	}
	return true, nil
}

// Set stores value under key. A ttl <= 0 never expires.
func (m *Memory) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "encoding %s", key)
	}
	e := memEntry{value: b}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[key] = e
	m.prune()
	m.mu.Unlock()
	return nil
}

// prune drops expired entries. m.mu must be held.
func (m *Memory) prune() {
	now := m.now()
	if now.Sub(m.prunedAt) < pruneEvery {
		return
	}
	m.prunedAt = now
	for key, e := range m.entries {
		if !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
			delete(m.entries, key)
		}
	}
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Ping(context.Context) error { return nil }
func (m *Memory) Close() error               { return nil }
