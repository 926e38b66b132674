package replicate

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/datazip-inc/icemirror/catalog"
	"github.com/datazip-inc/icemirror/constants"
	"github.com/datazip-inc/icemirror/drivers/abstract"
	"github.com/datazip-inc/icemirror/iceberg"
	"github.com/datazip-inc/icemirror/storage"
	"github.com/datazip-inc/icemirror/types"
	"github.com/datazip-inc/icemirror/utils"
	"github.com/datazip-inc/icemirror/utils/logger"
)

// Runner drives one replication run: for every configured table it extracts
// new rows, encodes them into data files, and publishes exactly one snapshot.
// Checkpoints advance only after the snapshot is visible in the catalog, so a
// crash at any point is recovered by simply running again.
type Runner struct {
	source    *abstract.AbstractSource
	store     storage.Store
	committer *iceberg.Committer
	state     *types.State
	statePath string
	workers   int
}

func NewRunner(driver abstract.Driver, store storage.Store, cat catalog.Catalog, dest *types.DestinationConfig, state *types.State, statePath string) *Runner {
	return &Runner{
		source:    abstract.NewAbstractSource(driver),
		store:     store,
		committer: iceberg.NewCommitter(store, cat, dest.CommitRetries),
		state:     state,
		statePath: statePath,
		workers:   constants.DefaultEncodeWorkers,
	}
}

// Sync replicates every configured table. Tables are independent: a failure
// in one is logged and reported but does not stop the others.
func (r *Runner) Sync(ctx context.Context) error {
	tables := r.source.Driver().Tables()
	logger.Infof("Starting sync of %d tables", len(tables))

	var failed []string
	for idx := range tables {
		spec := &tables[idx]
		start := time.Now()
		if err := r.syncTable(ctx, spec); err != nil {
			logger.Errorf("Table[%s]: sync failed: %s", spec.ID(), err)
			failed = append(failed, spec.ID())
			if ctx.Err() != nil {
				break
			}
			continue
		}
		logger.Infof("Table[%s]: sync finished in %s", spec.ID(), time.Since(start).Round(time.Millisecond))
	}

	if len(failed) > 0 {
		return fmt.Errorf("sync failed for tables: %s", strings.Join(failed, ", "))
	}
	return nil
}

func (r *Runner) syncTable(ctx context.Context, spec *types.TableSpec) error {
	tableID := spec.TargetID()
	location := tableLocation(spec)

	sourceSchema, err := r.source.Driver().Discover(ctx, spec)
	if err != nil {
		return fmt.Errorf("failed to discover schema: %s", err)
	}

	current, _, err := r.committer.ReadCurrent(ctx, tableID)
	if err != nil {
		return err
	}
	var currentSchema *types.TargetSchema
	if current != nil {
		if currentSchema, err = current.CurrentSchema(); err != nil {
			return err
		}
	}

	// incompatible schema drift fails the table before a single row is read
	translation, err := iceberg.Translate(sourceSchema, currentSchema)
	if err != nil {
		return err
	}
	if translation.Evolved && currentSchema != nil {
		logger.Infof("Table[%s]: schema evolves to revision %d", tableID, translation.Schema.SchemaID)
	}

	checkpoint := r.state.Get(spec.Namespace, spec.Name)
	var startCursor any
	if checkpoint != nil {
		startCursor = checkpoint.Cursor
	}

	writer := iceberg.NewFileWriter(r.store, location)
	group := utils.NewCGroupWithLimit(ctx, r.workers)

	var mu sync.Mutex
	builder := iceberg.NewManifestBuilder(r.store, location, translation.Schema.SchemaID)
	var lastCursor any
	var rowsRead int64

	// a restarted full scan re-delivers from the beginning, so the attempt
	// starts over with an empty manifest; files the aborted attempt wrote
	// stay unreferenced
	reset := func() error {
		mu.Lock()
		defer mu.Unlock()
		builder = iceberg.NewManifestBuilder(r.store, location, translation.Schema.SchemaID)
		rowsRead = 0
		return nil
	}

	err = r.source.ScanBatches(group.Ctx(), spec, startCursor, reset, func(_ context.Context, batch *types.Batch) error {
		mu.Lock()
		rowsRead += int64(batch.Len())
		if batch.EndCursor != nil {
			lastCursor = batch.EndCursor
		}
		manifest := builder
		mu.Unlock()

		group.Add(func(taskCtx context.Context) error {
			block, err := iceberg.Encode(batch, translation.Schema, translation.Mapping)
			if err != nil {
				return err
			}
			file, err := writer.Write(taskCtx, block)
			if err != nil {
				return err
			}
			manifest.Add(*file)
			return nil
		})
		return nil
	})
	if waitErr := group.Block(); err == nil {
		err = waitErr
	}
	if err != nil {
		return err
	}

	mu.Lock()
	finalBuilder := builder
	mu.Unlock()

	if finalBuilder.Len() == 0 {
		logger.Infof("Table[%s]: no new rows, skipping commit", tableID)
		return nil
	}

	ref, err := finalBuilder.Finalize(ctx)
	if err != nil {
		return err
	}

	commitCtx, cancel := context.WithTimeout(ctx, constants.DefaultCommitTimeout)
	defer cancel()
	snapshot, err := r.committer.Commit(commitCtx, &iceberg.CommitRequest{
		Table:    tableID,
		Location: location,
		Source:   sourceSchema,
		Manifest: *ref,
		Summary: map[string]string{
			"operation":   "append",
			"added-rows":  fmt.Sprintf("%d", ref.AddedRows),
			"added-files": fmt.Sprintf("%d", ref.AddedFiles),
		},
	})
	if err != nil {
		return err
	}

	next := &types.TableCheckpoint{
		Namespace:  spec.Namespace,
		Table:      spec.Name,
		SnapshotID: snapshot.ID,
	}
	if spec.Incremental() {
		next.Cursor = lastCursor
		if lastCursor == nil && checkpoint != nil {
			next.Cursor = checkpoint.Cursor
		}
	}
	r.state.Set(next)
	if err := SaveState(r.statePath, r.state); err != nil {
		// snapshot is already durable; next run resumes from the stale cursor
		return fmt.Errorf("snapshot %d committed but checkpoint write failed: %s", snapshot.ID, err)
	}

	logger.Infof("Table[%s]: %d rows in %d files, snapshot %d", tableID, rowsRead, ref.AddedFiles, snapshot.ID)
	return nil
}

// tableLocation derives the storage prefix of a table from its destination
// identifier.
func tableLocation(spec *types.TableSpec) string {
	return strings.ReplaceAll(spec.TargetID(), ".", "/")
}
