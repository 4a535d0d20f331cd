package store

import (
	"context"
	"sync"

	"github.com/c00lestkats/open-binmat/internal/game"
)

// Memory keeps encoded documents in a map. Loads decode a fresh copy, so
// callers never share state with the store.
type Memory struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemory creates an empty in-process store.
func NewMemory() *Memory {
	return &Memory{docs: make(map[string][]byte)}
}

func (m *Memory) Load(_ context.Context, id string) (*game.Game, error) {
	m.mu.RLock()
	data, ok := m.docs[id]
	m.mu.RUnlock()
	if !ok {
		return nil, notFound(id)
	}
	return game.Unmarshal(data)
}

func (m *Memory) Save(_ context.Context, g *game.Game) error {
	data, err := game.Marshal(g)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.docs[g.ID] = data
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return notFound(id)
	}
	delete(m.docs, id)
	return nil
}

// Len returns the number of stored documents.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs)
}

func (m *Memory) Close() error { return nil }
