package iceberg

import (
	"context"
	"fmt"
	"sync"

	"github.com/goccy/go-json"

	"github.com/datazip-inc/icemirror/storage"
	"github.com/datazip-inc/icemirror/types"
	"github.com/datazip-inc/icemirror/utils"
)

// ManifestBuilder accumulates the data files of one run and seals them into a
// single manifest document. Add is safe to call from concurrent encode
// workers; Finalize must be called exactly once, after all adds.
type ManifestBuilder struct {
	mu       sync.Mutex
	store    storage.Store
	location string
	schemaID int
	entries  []types.DataFile
}

func NewManifestBuilder(store storage.Store, location string, schemaID int) *ManifestBuilder {
	return &ManifestBuilder{store: store, location: location, schemaID: schemaID}
}

func (b *ManifestBuilder) Add(file types.DataFile) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = append(b.entries, file)
}

// Len returns the number of files added so far.
func (b *ManifestBuilder) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Finalize writes the manifest under the table's metadata/ prefix and returns
// the reference a snapshot embeds. Finalizing an empty builder is an error;
// an empty run should skip the commit instead.
func (b *ManifestBuilder) Finalize(ctx context.Context) (*types.ManifestRef, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.entries) == 0 {
		return nil, fmt.Errorf("refusing to finalize an empty manifest")
	}

	manifest := types.Manifest{SchemaID: b.schemaID, Entries: b.entries}
	data, err := json.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal manifest: %s", err)
	}

	key := fmt.Sprintf("%s/metadata/%s-manifest.json", b.location, utils.ULID())
	if err := b.store.Put(ctx, key, data); err != nil {
		return nil, &types.WriteError{Path: key, Err: err}
	}

	ref := &types.ManifestRef{Path: key, AddedFiles: int64(len(b.entries))}
	for _, entry := range b.entries {
		ref.AddedRows += entry.RecordCount
		ref.AddedBytes += entry.SizeBytes
	}
	return ref, nil
}
