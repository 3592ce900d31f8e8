package cache

import (
	"context"
	"path"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store implementation used when Redis is not
// configured (single-process dev mode) and as a test double
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	sets  map[string]map[string]struct{}
	now   func() time.Time
}

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]memoryItem),
		sets:  make(map[string]map[string]struct{}),
		now:   time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[key]
	if !ok || s.now().After(item.expiresAt) {
		return nil, ErrCacheMiss
	}

	return item.value, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[key] = memoryItem{
		value:     value,
		expiresAt: s.now().Add(ttl),
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		delete(s.items, key)
		delete(s.sets, key)
	}
	return nil
}

func (s *MemoryStore) DeleteByPattern(_ context.Context, pattern string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.items {
		if matchGlob(pattern, key) {
			delete(s.items, key)
		}
	}
	return nil
}

func (s *MemoryStore) TTL(_ context.Context, key string) (time.Duration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[key]
	if !ok {
		return 0, ErrCacheMiss
	}

	remaining := item.expiresAt.Sub(s.now())
	if remaining <= 0 {
		return 0, ErrCacheMiss
	}

	return remaining, nil
}

func (s *MemoryStore) AddToSet(_ context.Context, key string, _ time.Duration, members ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.sets[key]
	if !ok {
		set = make(map[string]struct{})
		s.sets[key] = set
	}

	for _, m := range members {
		set[m] = struct{}{}
	}
	return nil
}

func (s *MemoryStore) SetMembers(_ context.Context, key string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set, ok := s.sets[key]
	if !ok {
		return nil, nil
	}

	members := make([]string, 0, len(set))
	for m := range set {
		members = append(members, m)
	}
	return members, nil
}

func (s *MemoryStore) Ping(_ context.Context) error {
	return nil
}

func (s *MemoryStore) MemoryUsage(_ context.Context) string {
	return ""
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make(map[string]memoryItem)
	s.sets = make(map[string]map[string]struct{})
	return nil
}

// matchGlob matches Redis-style patterns. Only trailing-* globs and exact
// matches are needed by the cache keys this service builds.
func matchGlob(pattern, key string) bool {
	if strings.HasSuffix(pattern, "*") && strings.Count(pattern, "*") == 1 {
		return strings.HasPrefix(key, pattern[:len(pattern)-1])
	}

	ok, err := path.Match(pattern, key)
	return err == nil && ok
}
