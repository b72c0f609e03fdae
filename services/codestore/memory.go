package codestore

import (
	"context"
	"crypto/subtle"
	"sync"
	"time"
)

// MemoryStore is an in-process Store used when Redis is not configured and in
// tests. Correctness of expiry lives in Get's deadline check; the background
// sweep only reclaims memory for keys nobody reads again.
type MemoryStore struct {
	mu       sync.RWMutex
	data     map[string]*entry
	stop     chan struct{}
	stopOnce sync.Once
}

type entry struct {
	value     string
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	store := &MemoryStore{
		data: make(map[string]*entry),
		stop: make(chan struct{}),
	}

	go store.cleanup()

	return store
}

func (s *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = &entry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if e, exists := s.data[key]; exists && time.Now().Before(e.expiresAt) {
		return e.value, true, nil
	}
	return "", false, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, key)
	return nil
}

// CompareAndDelete holds the write lock across the comparison and the delete,
// so two callers racing on the same key see exactly one of them consume it.
func (s *MemoryStore) CompareAndDelete(_ context.Context, key, value string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.data[key]
	if !exists || !time.Now().Before(e.expiresAt) {
		return false, nil
	}
	if subtle.ConstantTimeCompare([]byte(e.value), []byte(value)) != 1 {
		return false, nil
	}

	delete(s.data, key)
	return true, nil
}

// Close stops the background sweep goroutine. Safe to call more than once.
func (s *MemoryStore) Close() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
}

func (s *MemoryStore) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			now := time.Now()

			for key, entry := range s.data {
				if now.After(entry.expiresAt) {
					delete(s.data, key)
				}
			}

			s.mu.Unlock()
		case <-s.stop:
			return
		}
	}
}
