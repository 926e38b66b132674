package catalog

import (
	"context"
	"sync"

	"github.com/datazip-inc/icemirror/types"
)

// Memory is an in-process register. It backs tests, including the
// concurrent-committer conflict simulations, and single-shot local runs.
type Memory struct {
	mu       sync.Mutex
	pointers map[string]types.Pointer
}

func NewMemory() *Memory {
	return &Memory{pointers: map[string]types.Pointer{}}
}

func (m *Memory) Load(_ context.Context, table string) (*types.Pointer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pointer, found := m.pointers[table]
	if !found {
		return nil, ErrTableNotFound
	}
	return &pointer, nil
}

func (m *Memory) CommitSwap(_ context.Context, table string, expected *types.Pointer, next types.Pointer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, exists := m.pointers[table]
	if expected == nil {
		if exists {
			return ErrCommitConflict
		}
	} else if !exists || current != *expected {
		return ErrCommitConflict
	}

	m.pointers[table] = next
	return nil
}
