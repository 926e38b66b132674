package iceberg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/datazip-inc/icemirror/catalog"
	"github.com/datazip-inc/icemirror/constants"
	"github.com/datazip-inc/icemirror/storage"
	"github.com/datazip-inc/icemirror/types"
	"github.com/datazip-inc/icemirror/utils"
	"github.com/datazip-inc/icemirror/utils/logger"
)

// Committer publishes snapshots through the catalog's compare-and-swap
// register. All metadata documents are immutable; a commit writes a fresh
// document and swings the pointer.
type Committer struct {
	store   storage.Store
	catalog catalog.Catalog
	retries int
}

func NewCommitter(store storage.Store, cat catalog.Catalog, retries int) *Committer {
	if retries <= 0 {
		retries = constants.DefaultCommitRetries
	}
	return &Committer{store: store, catalog: cat, retries: retries}
}

// CommitRequest carries everything needed to attach one run's manifest to a
// table, including the source schema so the commit can be re-validated
// against whatever metadata is current at swap time.
type CommitRequest struct {
	Table    string
	Location string
	Source   *types.SourceSchema
	Manifest types.ManifestRef
	Summary  map[string]string
}

// ReadCurrent resolves the committed metadata for a table. A table absent
// from the catalog returns (nil, nil, nil); the first commit creates it.
func (c *Committer) ReadCurrent(ctx context.Context, table string) (*types.TableMetadata, *types.Pointer, error) {
	pointer, err := c.catalog.Load(ctx, table)
	if err != nil {
		if errors.Is(err, catalog.ErrTableNotFound) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to load catalog pointer for %s: %s", table, err)
	}

	data, err := c.store.Get(ctx, pointer.MetadataLocation)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read metadata %s: %s", pointer.MetadataLocation, err)
	}
	metadata := &types.TableMetadata{}
	if err := json.Unmarshal(data, metadata); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal metadata %s: %s", pointer.MetadataLocation, err)
	}
	return metadata, pointer, nil
}

// Commit attaches the manifest as a new snapshot, retrying with a re-read and
// re-parent when another writer swaps the pointer first. The snapshot id is
// minted once, so a retried commit publishes the same logical snapshot.
func (c *Committer) Commit(ctx context.Context, req *CommitRequest) (*types.Snapshot, error) {
	snapshotID := time.Now().UnixNano()

	for attempt := 0; attempt < c.retries; attempt++ {
		current, pointer, err := c.ReadCurrent(ctx, req.Table)
		if err != nil {
			return nil, err
		}

		candidate, snapshot, err := c.buildCandidate(req, current, snapshotID)
		if err != nil {
			return nil, err
		}

		generation := int64(0)
		if pointer != nil {
			generation = pointer.Generation + 1
		}
		location, err := c.writeMetadata(ctx, req.Location, candidate, generation)
		if err != nil {
			return nil, err
		}

		err = c.catalog.CommitSwap(ctx, req.Table, pointer, types.Pointer{
			MetadataLocation: location,
			Generation:       generation,
		})
		if err == nil {
			logger.Infof("Table[%s]: committed snapshot %d (sequence %d, %d rows added)",
				req.Table, snapshot.ID, snapshot.SequenceNum, req.Manifest.AddedRows)
			return snapshot, nil
		}
		if !errors.Is(err, catalog.ErrCommitConflict) {
			return nil, fmt.Errorf("failed to swap catalog pointer for %s: %s", req.Table, err)
		}
		// the abandoned metadata document is unreferenced garbage; the
		// pointer never saw it
		logger.Warnf("Table[%s]: commit attempt %d lost the pointer race, re-reading", req.Table, attempt+1)
	}

	return nil, &types.CommitConflictError{Table: req.Table, Attempts: c.retries}
}

// buildCandidate derives the next metadata document from the current one as a
// pure function. Re-running it against fresher metadata re-parents the same
// snapshot and re-checks schema compatibility.
func (c *Committer) buildCandidate(req *CommitRequest, current *types.TableMetadata, snapshotID int64) (*types.TableMetadata, *types.Snapshot, error) {
	var currentSchema *types.TargetSchema
	if current != nil {
		schema, err := current.CurrentSchema()
		if err != nil {
			return nil, nil, err
		}
		currentSchema = schema
	}

	translation, err := Translate(req.Source, currentSchema)
	if err != nil {
		return nil, nil, err
	}

	var candidate *types.TableMetadata
	parentID := int64(-1)
	if current == nil {
		candidate = types.NewTableMetadata(req.Location, translation.Schema, constants.TableFormatVersion)
	} else {
		candidate = current.Clone()
		parentID = current.CurrentSnapshot
		if translation.Evolved {
			candidate.Schemas = append(candidate.Schemas, translation.Schema)
			candidate.CurrentSchemaID = translation.Schema.SchemaID
			if max := translation.Schema.MaxFieldID(); max > candidate.LastColumnID {
				candidate.LastColumnID = max
			}
		}
	}

	now := time.Now().UnixMilli()
	snapshot := &types.Snapshot{
		ID:           snapshotID,
		ParentID:     parentID,
		SequenceNum:  candidate.LastSequenceNumber() + 1,
		TimestampMs:  now,
		ManifestList: []types.ManifestRef{req.Manifest},
		SchemaID:     translation.Schema.SchemaID,
		Summary:      req.Summary,
	}

	candidate.Snapshots = append(candidate.Snapshots, snapshot)
	candidate.CurrentSnapshot = snapshot.ID
	candidate.SnapshotLog = append(candidate.SnapshotLog, types.SnapshotLogEntry{SnapshotID: snapshot.ID, TimestampMs: now})
	candidate.LastUpdatedMs = now
	return candidate, snapshot, nil
}

func (c *Committer) writeMetadata(ctx context.Context, location string, metadata *types.TableMetadata, generation int64) (string, error) {
	data, err := json.Marshal(metadata)
	if err != nil {
		return "", fmt.Errorf("failed to marshal metadata: %s", err)
	}
	key := fmt.Sprintf("%s/metadata/v%05d-%s.metadata.json", location, generation, utils.ULID())
	if err := c.store.Put(ctx, key, data); err != nil {
		return "", &types.WriteError{Path: key, Err: err}
	}
	return key, nil
}
