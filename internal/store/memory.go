package store

import (
	"context"
	"sync"
)

// Memory is an in-process Store guarded by its own read/write lock.
type Memory struct {
	mu   sync.RWMutex
	data map[string]*Entry
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]*Entry)}
}

// Add implements Store.
func (m *Memory) Add(_ context.Context, key string, discovered ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.data[key]
	if !ok {
		entry = &Entry{Outbound: make([]string, 0, len(discovered))}
		m.data[key] = entry
	}
	entry.Outbound = append(entry.Outbound, discovered...)
	return nil
}

// MarkVisited implements Store.
func (m *Memory) MarkVisited(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if entry, ok := m.data[key]; ok {
		entry.Visited = true
	}
	return nil
}

// HasVisited implements Store.
func (m *Memory) HasVisited(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.data[key]
	return ok && entry.Visited, nil
}

// Exists implements Store.
func (m *Memory) Exists(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.data[key]
	return ok, nil
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, key string) (Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.data[key]
	if !ok {
		return Entry{}, false, nil
	}
	return entry.clone(), true, nil
}

// Snapshot implements Store.
func (m *Memory) Snapshot(_ context.Context) (map[string]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]Entry, len(m.data))
	for k, v := range m.data {
		out[k] = v.clone()
	}
	return out, nil
}
