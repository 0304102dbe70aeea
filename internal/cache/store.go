// Package cache provides a process-local key/value store with time-based expiry.
package cache

import (
	"sync"
	"time"
)

// Observer receives hit and miss notifications for a named cache.
type Observer interface {
	CacheHit(cache string)
	CacheMiss(cache string)
}

// Entry is a cached value and the time it was stored.
type Entry[T any] struct {
	Value    T
	StoredAt time.Time
}

// Config holds configuration for a Store.
type Config struct {
	// Name labels the store in logs and metrics.
	Name string
	// TTL is the expiry window. Zero or negative means entries never expire.
	TTL      time.Duration
	Now      func() time.Time
	Observer Observer
}

// Store is a concurrency-safe map whose entries expire lazily on read.
// Keys are expected to be normalized by the caller.
type Store[T any] struct {
	mu       sync.RWMutex
	entries  map[string]Entry[T]
	name     string
	ttl      time.Duration
	now      func() time.Time
	observer Observer
}

// New creates an empty store.
func New[T any](config Config) *Store[T] {
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Store[T]{
		entries:  make(map[string]Entry[T]),
		name:     config.Name,
		ttl:      config.TTL,
		now:      config.Now,
		observer: config.Observer,
	}
}

// Get returns the value stored under key, or false when absent or expired.
// Expired entries are dropped on the way out.
func (s *Store[T]) Get(key string) (T, bool) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if ok && s.expired(entry) {
		s.mu.Lock()
		// Re-check: a Put may have replaced the entry since we released the read lock.
		if current, still := s.entries[key]; still && current.StoredAt.Equal(entry.StoredAt) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		ok = false
	}

	if !ok {
		s.miss()
		var zero T
		return zero, false
	}

	s.hit()
	return entry.Value, true
}

// Put stores value under key, replacing any existing entry.
func (s *Store[T]) Put(key string, value T) {
	s.mu.Lock()
	s.entries[key] = Entry[T]{Value: value, StoredAt: s.now()}
	s.mu.Unlock()
}

// Clear removes every entry.
func (s *Store[T]) Clear() {
	s.mu.Lock()
	s.entries = make(map[string]Entry[T])
	s.mu.Unlock()
}

// Len returns the number of stored entries, expired ones included.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Name returns the store's label.
func (s *Store[T]) Name() string {
	return s.name
}

func (s *Store[T]) expired(entry Entry[T]) bool {
	if s.ttl <= 0 {
		return false
	}
	return s.now().Sub(entry.StoredAt) >= s.ttl
}

func (s *Store[T]) hit() {
	if s.observer != nil {
		s.observer.CacheHit(s.name)
	}
}

func (s *Store[T]) miss() {
	if s.observer != nil {
		s.observer.CacheMiss(s.name)
	}
}
