package session

import (
	"context"
	"sync"
)

// Store persists conversation parameters. Merge creates the session on first use.
// Concurrent merges for the same conversation are last-write-wins per key.
type Store interface {
	Get(ctx context.Context, conversationID string) (Params, error)
	Merge(ctx context.Context, conversationID string, patch Params) error
}

// Memory is an in-process Store.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]Params
}

func NewMemory() *Memory {
	return &Memory{sessions: make(map[string]Params)}
}

// Get returns a copy of the stored parameters, empty for unknown conversations.
func (m *Memory) Get(_ context.Context, conversationID string) (Params, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Params{}.Merge(m.sessions[conversationID]), nil
}

func (m *Memory) Merge(_ context.Context, conversationID string, patch Params) error {
	patch = patch.Known()
	if len(patch) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[conversationID] = m.sessions[conversationID].Merge(patch)
	return nil
}
