package checkpoint

import (
	"context"
	"sync"

	"github.com/lighthouse-crm/leadrouter/pkg/conversation"
)

// MemoryStore is an in-process Store backed by a map, for unit and
// integration tests that exercise the graph runtime without a database.
type MemoryStore struct {
	mu    sync.RWMutex
	saved map[string]*conversation.State
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{saved: make(map[string]*conversation.State)}
}

// Load returns a deep-enough copy of the last saved state for threadID.
func (m *MemoryStore) Load(ctx context.Context, threadID string) (*conversation.State, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.saved[threadID]
	if !ok {
		return nil, false, nil
	}
	clone := *state
	clone.Messages = append([]conversation.Message(nil), state.Messages...)
	clone.ScoreHistory = append([]conversation.ScoreEvent(nil), state.ScoreHistory...)
	return &clone, true, nil
}

// Save stores a copy of state under state.ThreadID.
func (m *MemoryStore) Save(ctx context.Context, state *conversation.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	clone := *state
	clone.Messages = append([]conversation.Message(nil), state.Messages...)
	clone.ScoreHistory = append([]conversation.ScoreEvent(nil), state.ScoreHistory...)
	clone.Version++
	m.saved[state.ThreadID] = &clone
	return nil
}
