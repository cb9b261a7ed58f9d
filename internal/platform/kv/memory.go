package kv

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value   string
	expires time.Time
}

// MemoryStore is a process local Store. With a ttl it slides expiry on every
// read and write the way RedisStore does; Purge drops what has lapsed.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string]memoryEntry
	ttl    time.Duration
	now    func() time.Time
}

// NewMemoryStore returns an empty MemoryStore whose values never expire.
func NewMemoryStore() *MemoryStore {
	return NewExpiringMemoryStore(0)
}

// NewExpiringMemoryStore returns an empty MemoryStore whose values expire
// ttl after their last use. A zero ttl disables expiry.
func NewExpiringMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{values: make(map[string]memoryEntry), ttl: ttl, now: time.Now}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.values[key]
	if !ok {
		return "", ErrNotFound
	}
	now := s.now()
	if s.expired(entry, now) {
		delete(s.values, key)
		return "", ErrNotFound
	}
	if s.ttl > 0 {
		entry.expires = now.Add(s.ttl)
		s.values[key] = entry
	}
	return entry.value, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	entry := memoryEntry{value: value}
	if s.ttl > 0 {
		entry.expires = s.now().Add(s.ttl)
	}
	s.values[key] = entry
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	for _, key := range keys {
		delete(s.values, key)
	}
	s.mu.Unlock()
	return nil
}

// Purge removes every value expired at now and reports how many went.
func (s *MemoryStore) Purge(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	purged := 0
	for key, entry := range s.values {
		if s.expired(entry, now) {
			delete(s.values, key)
			purged++
		}
	}
	return purged
}

// Run purges on every interval tick until ctx ends.
func (s *MemoryStore) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Purge(now)
		}
	}
}

// Len reports the number of stored keys, expired ones included until purged.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.values)
}

func (s *MemoryStore) expired(entry memoryEntry, now time.Time) bool {
	return !entry.expires.IsZero() && !now.Before(entry.expires)
}

var _ Store = (*MemoryStore)(nil)
