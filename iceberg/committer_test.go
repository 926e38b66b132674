package iceberg

import (
	"context"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datazip-inc/icemirror/catalog"
	"github.com/datazip-inc/icemirror/storage"
	"github.com/datazip-inc/icemirror/types"
)

func newTestCommitter(t *testing.T) (*Committer, storage.Store, catalog.Catalog) {
	t.Helper()
	store, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	register := catalog.NewMemory()
	return NewCommitter(store, register, 5), store, register
}

func commitRequest(rows int64) *CommitRequest {
	return &CommitRequest{
		Table:    "public.orders",
		Location: "public/orders",
		Source: &types.SourceSchema{Columns: []types.SourceColumn{
			{Name: "id", Type: types.Int64, Nullable: false},
		}},
		Manifest: types.ManifestRef{Path: "public/orders/metadata/m1.json", AddedFiles: 1, AddedRows: rows, AddedBytes: 128},
	}
}

func TestCommitCreatesTable(t *testing.T) {
	ctx := context.Background()
	committer, store, register := newTestCommitter(t)

	snapshot, err := committer.Commit(ctx, commitRequest(10))
	require.NoError(t, err)
	assert.Equal(t, int64(-1), snapshot.ParentID)
	assert.Equal(t, int64(1), snapshot.SequenceNum)

	pointer, err := register.Load(ctx, "public.orders")
	require.NoError(t, err)
	assert.Equal(t, int64(0), pointer.Generation)

	data, err := store.Get(ctx, pointer.MetadataLocation)
	require.NoError(t, err)
	metadata := &types.TableMetadata{}
	require.NoError(t, json.Unmarshal(data, metadata))

	assert.Equal(t, snapshot.ID, metadata.CurrentSnapshot)
	assert.Equal(t, int64(10), metadata.TotalRows())
	assert.NotEmpty(t, metadata.TableUUID)
}

func TestCommitChainsSnapshots(t *testing.T) {
	ctx := context.Background()
	committer, _, _ := newTestCommitter(t)

	first, err := committer.Commit(ctx, commitRequest(10))
	require.NoError(t, err)
	second, err := committer.Commit(ctx, commitRequest(5))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ParentID)
	assert.Equal(t, first.SequenceNum+1, second.SequenceNum)

	metadata, pointer, err := committer.ReadCurrent(ctx, "public.orders")
	require.NoError(t, err)
	assert.Equal(t, int64(1), pointer.Generation)
	assert.Equal(t, second.ID, metadata.CurrentSnapshot)
	assert.Equal(t, int64(15), metadata.TotalRows())
	require.Len(t, metadata.SnapshotLog, 2)
}

func TestCommitSchemaEvolutionAppendsRevision(t *testing.T) {
	ctx := context.Background()
	committer, _, _ := newTestCommitter(t)

	_, err := committer.Commit(ctx, commitRequest(10))
	require.NoError(t, err)

	evolved := commitRequest(5)
	evolved.Source.Columns = append(evolved.Source.Columns, types.SourceColumn{Name: "email", Type: types.String, Nullable: true})
	snapshot, err := committer.Commit(ctx, evolved)
	require.NoError(t, err)

	metadata, _, err := committer.ReadCurrent(ctx, "public.orders")
	require.NoError(t, err)
	require.Len(t, metadata.Schemas, 2)
	assert.Equal(t, 1, metadata.CurrentSchemaID)
	assert.Equal(t, 1, snapshot.SchemaID)
	assert.Equal(t, 2, metadata.LastColumnID)

	// revision 0 stays readable
	old, found := metadata.Schema(0)
	require.True(t, found)
	assert.Len(t, old.Fields, 1)
}

func TestCommitIncompatibleSchemaFails(t *testing.T) {
	ctx := context.Background()
	committer, _, _ := newTestCommitter(t)

	_, err := committer.Commit(ctx, commitRequest(10))
	require.NoError(t, err)

	broken := commitRequest(5)
	broken.Source.Columns[0].Type = types.String
	_, err = committer.Commit(ctx, broken)

	var evoErr *types.SchemaEvolutionError
	require.ErrorAs(t, err, &evoErr)
}

// conflictingCatalog swaps the pointer underneath the committer a fixed
// number of times before letting the swap through.
type conflictingCatalog struct {
	catalog.Catalog
	committer *Committer
	ctx       context.Context
	conflicts int
}

func (c *conflictingCatalog) CommitSwap(ctx context.Context, table string, expected *types.Pointer, next types.Pointer) error {
	if c.conflicts > 0 {
		c.conflicts--
		_, err := c.committer.Commit(c.ctx, commitRequest(2))
		if err != nil {
			return err
		}
		return catalog.ErrCommitConflict
	}
	return c.Catalog.CommitSwap(ctx, table, expected, next)
}

func TestCommitRetriesAfterConflictAndReparents(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	register := catalog.NewMemory()

	rival := NewCommitter(store, register, 5)
	interceptor := &conflictingCatalog{Catalog: register, committer: rival, ctx: ctx, conflicts: 1}
	committer := NewCommitter(store, interceptor, 5)

	snapshot, err := committer.Commit(ctx, commitRequest(10))
	require.NoError(t, err)

	metadata, _, err := rival.ReadCurrent(ctx, "public.orders")
	require.NoError(t, err)

	// both commits landed, linearized through the register
	require.Len(t, metadata.Snapshots, 2)
	assert.Equal(t, snapshot.ID, metadata.CurrentSnapshot)
	assert.Equal(t, metadata.Snapshots[0].ID, snapshot.ParentID)
	assert.Equal(t, metadata.Snapshots[0].SequenceNum+1, snapshot.SequenceNum)
	assert.Equal(t, int64(12), metadata.TotalRows())
}

func TestCommitConflictBudgetExhausted(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	register := catalog.NewMemory()

	rival := NewCommitter(store, register, 5)
	interceptor := &conflictingCatalog{Catalog: register, committer: rival, ctx: ctx, conflicts: 100}
	committer := NewCommitter(store, interceptor, 3)

	_, err = committer.Commit(ctx, commitRequest(10))
	var conflictErr *types.CommitConflictError
	require.ErrorAs(t, err, &conflictErr)
	assert.Equal(t, 3, conflictErr.Attempts)
}
