package kv

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Memory is an in-process Backend. Values vanish with the process.
type Memory struct {
	mu   sync.Mutex
	data map[string]Entry
}

// NewMemory returns an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]Entry)}
}

func (m *Memory) Name() string                { return "memory" }
func (m *Memory) Ping(context.Context) error  { return nil }
func (m *Memory) Close(context.Context) error { return nil }

func (m *Memory) Get(_ context.Context, key string) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.data[key]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = Entry{Value: value, Version: m.data[key].Version + 1}
	return nil
}

func (m *Memory) SetIfVersion(_ context.Context, key, value string, version int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data[key].Version != version {
		return ErrVersionConflict
	}
	m.data[key] = Entry{Value: value, Version: version + 1}
	return nil
}

func (m *Memory) Incr(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur := m.data[key]
	n, err := parseCounter(cur.Value)
	if err != nil {
		return 0, err
	}
	n++
	m.data[key] = Entry{Value: strconv.FormatInt(n, 10), Version: cur.Version + 1}
	return n, nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *Memory) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0)
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// parseCounter reads a counter value; "" is 0.
func parseCounter(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, ErrNotInteger
	}
	return n, nil
}
