package catalog

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/goccy/go-json"
	"github.com/moby/sys/atomicwriter"

	"github.com/datazip-inc/icemirror/types"
)

// File persists the register as a single JSON document, replaced atomically
// on every swap. The conditional check runs under a process-wide mutex after
// re-reading the document, so concurrent committers in separate processes
// sharing the file still resolve through generation comparison: a stale
// writer re-reads a generation newer than the one it expected and fails with
// ErrCommitConflict.
type File struct {
	mu   sync.Mutex
	path string
}

func NewFile(path string) (*File, error) {
	f := &File{path: path}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := f.write(map[string]types.Pointer{}); err != nil {
			return nil, fmt.Errorf("failed to seed catalog file: %s", err)
		}
	}
	return f, nil
}

func (f *File) read() (map[string]types.Pointer, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file[%s]: %s", f.path, err)
	}
	pointers := map[string]types.Pointer{}
	if err := json.Unmarshal(data, &pointers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog file[%s]: %s", f.path, err)
	}
	return pointers, nil
}

func (f *File) write(pointers map[string]types.Pointer) error {
	data, err := json.MarshalIndent(pointers, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %s", err)
	}
	if err := atomicwriter.WriteFile(f.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write catalog file[%s]: %s", f.path, err)
	}
	return nil
}

func (f *File) Load(_ context.Context, table string) (*types.Pointer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	pointers, err := f.read()
	if err != nil {
		return nil, err
	}
	pointer, found := pointers[table]
	if !found {
		return nil, ErrTableNotFound
	}
	return &pointer, nil
}

func (f *File) CommitSwap(_ context.Context, table string, expected *types.Pointer, next types.Pointer) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	pointers, err := f.read()
	if err != nil {
		return err
	}

	current, exists := pointers[table]
	if expected == nil {
		if exists {
			return ErrCommitConflict
		}
	} else if !exists || current != *expected {
		return ErrCommitConflict
	}

	pointers[table] = next
	return f.write(pointers)
}
