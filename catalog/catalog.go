package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/datazip-inc/icemirror/types"
)

var (
	// ErrTableNotFound means no pointer is registered yet; the committer
	// treats this as table creation.
	ErrTableNotFound = errors.New("table not found in catalog")
	// ErrCommitConflict means the register moved between Load and
	// CommitSwap; the caller re-reads and re-parents.
	ErrCommitConflict = errors.New("catalog pointer changed since read")
)

// Catalog is a compare-and-swap register keyed by table identifier, holding
// the location of the current table-metadata document. It is the only
// cross-process synchronization point of the whole pipeline.
type Catalog interface {
	// Load returns the current pointer for the table.
	Load(ctx context.Context, table string) (*types.Pointer, error)
	// CommitSwap atomically replaces the pointer iff it still equals
	// expected. A nil expected registers a brand new table.
	CommitSwap(ctx context.Context, table string, expected *types.Pointer, next types.Pointer) error
}

// New builds a catalog from config.
func New(config *types.CatalogConfig) (Catalog, error) {
	switch config.Type {
	case "file":
		return NewFile(config.Path)
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("invalid catalog type has been passed [%s]", config.Type)
	}
}
