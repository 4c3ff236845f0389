package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2"
	"github.com/jonboulle/clockwork"
)

// Memory is an in-process LRU cache with lazy expiry.
type Memory struct {
	lru   *lru.Cache[string, entry]
	clock clockwork.Clock
}

type entry struct {
	value   []byte
	expires time.Time // zero means no expiry
}

// NewMemory creates a cache holding at most size entries.
func NewMemory(size int, clock clockwork.Clock) (*Memory, error) {
	l, err := lru.New[string, entry](size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Memory{lru: l, clock: clock}, nil
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := m.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && !m.clock.Now().Before(e.expires) {
		m.lru.Remove(key)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (m *Memory) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{value: value}
	if ttl > 0 {
		e.expires = m.clock.Now().Add(ttl)
	}
	m.lru.Add(key, e)
	return nil
}

// Len reports the number of entries, including expired ones not yet collected.
func (m *Memory) Len() int {
	return m.lru.Len()
}
