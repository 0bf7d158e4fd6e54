package cache

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// Memory is an in-process Store for tests and single-instance tooling.
type Memory struct {
	mu    sync.Mutex
	now   func() time.Time
	items map[string]memoryEntry
}

func NewMemory() *Memory {
	return &Memory{now: time.Now, items: make(map[string]memoryEntry)}
}

// WithClock replaces the time source, for expiry tests.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.items[key]
	if !ok {
		return "", nil
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		delete(m.items, key)
		return "", nil
	}
	return e.value, nil
}

func (m *Memory) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		s = fmt.Sprint(v)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e := memoryEntry{value: s}
	if expiration > 0 {
		e.expiresAt = m.now().Add(expiration)
	}
	m.items[key] = e
	return nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, k := range keys {
		delete(m.items, k)
	}
	return nil
}

func (m *Memory) DeleteAll(_ context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k := range m.items {
		if ok, _ := path.Match(pattern, k); ok {
			delete(m.items, k)
		}
	}
	return nil
}

func (m *Memory) Incr(_ context.Context, key string, expiration time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.items[key]
	if ok && !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		ok = false
	}
	if !ok {
		e = memoryEntry{value: "0"}
		if expiration > 0 {
			e.expiresAt = m.now().Add(expiration)
		}
	}
	n, err := strconv.ParseInt(e.value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("value at %s is not an integer", key)
	}
	n++
	e.value = strconv.FormatInt(n, 10)
	m.items[key] = e
	return n, nil
}
