// Package cache keeps task reads in memory and drops them by key when a
// mutation succeeds.
package cache

import (
	"strconv"
	"sync"
	"time"
)

// ListKey is the key of the cached task list.
const ListKey = "tasks"

// TaskKey returns the key of one cached task.
func TaskKey(id int64) string {
	return "task:" + strconv.FormatInt(id, 10)
}

// Op names a mutation for invalidation purposes.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpToggle Op = "toggle"
	OpDelete Op = "delete"
)

// InvalidationKeys returns the keys a successful mutation makes stale.
// A create cannot have a per-task entry yet, so only the list goes.
func InvalidationKeys(op Op, id int64) []string {
	switch op {
	case OpCreate:
		return []string{ListKey}
	case OpUpdate, OpToggle, OpDelete:
		return []string{ListKey, TaskKey(id)}
	}
	return []string{ListKey}
}

type entry struct {
	value   any
	expires time.Time
}

// Store is a concurrency-safe keyed cache with an optional TTL.
type Store struct {
	mu      sync.RWMutex
	entries map[string]entry
	gen     uint64
	ttl     time.Duration
	now     func() time.Time
}

// NewStore creates a store. ttl <= 0 keeps entries until invalidated.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the value under key if present and fresh.
func (s *Store) Get(key string) (any, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !e.expires.IsZero() && !s.now().Before(e.expires) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

// Set stores value under key.
func (s *Store) Set(key string, value any) {
	s.mu.Lock()
	s.entries[key] = s.newEntry(value)
	s.mu.Unlock()
}

// Generation increases with every Invalidate call.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

// SetAt stores value only if no invalidation happened since gen was read,
// so a fetch that raced a mutation cannot repopulate stale data.
func (s *Store) SetAt(gen uint64, key string, value any) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return false
	}
	s.entries[key] = s.newEntry(value)
	return true
}

func (s *Store) newEntry(value any) entry {
	e := entry{value: value}
	if s.ttl > 0 {
		e.expires = s.now().Add(s.ttl)
	}
	return e
}

// Invalidate drops the given keys.
func (s *Store) Invalidate(keys ...string) {
	s.mu.Lock()
	for _, k := range keys {
		delete(s.entries, k)
	}
	s.gen++
	s.mu.Unlock()
}

// Len returns the number of entries, fresh or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
