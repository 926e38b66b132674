package catalog

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datazip-inc/icemirror/types"
)

func registers(t *testing.T) map[string]Catalog {
	t.Helper()
	file, err := NewFile(filepath.Join(t.TempDir(), "catalog.json"))
	require.NoError(t, err)
	return map[string]Catalog{
		"memory": NewMemory(),
		"file":   file,
	}
}

func TestCatalogLoadUnknownTable(t *testing.T) {
	ctx := context.Background()
	for name, register := range registers(t) {
		t.Run(name, func(t *testing.T) {
			_, err := register.Load(ctx, "public.missing")
			assert.ErrorIs(t, err, ErrTableNotFound)
		})
	}
}

func TestCatalogCreateAndSwap(t *testing.T) {
	ctx := context.Background()
	for name, register := range registers(t) {
		t.Run(name, func(t *testing.T) {
			first := types.Pointer{MetadataLocation: "t/metadata/v00000.json", Generation: 0}
			require.NoError(t, register.CommitSwap(ctx, "public.orders", nil, first))

			loaded, err := register.Load(ctx, "public.orders")
			require.NoError(t, err)
			assert.Equal(t, first, *loaded)

			second := types.Pointer{MetadataLocation: "t/metadata/v00001.json", Generation: 1}
			require.NoError(t, register.CommitSwap(ctx, "public.orders", &first, second))

			loaded, err = register.Load(ctx, "public.orders")
			require.NoError(t, err)
			assert.Equal(t, second, *loaded)
		})
	}
}

func TestCatalogSwapConflicts(t *testing.T) {
	ctx := context.Background()
	for name, register := range registers(t) {
		t.Run(name, func(t *testing.T) {
			first := types.Pointer{MetadataLocation: "t/metadata/v00000.json", Generation: 0}
			require.NoError(t, register.CommitSwap(ctx, "public.orders", nil, first))

			// creating an existing table conflicts
			err := register.CommitSwap(ctx, "public.orders", nil, first)
			assert.ErrorIs(t, err, ErrCommitConflict)

			// swapping from a stale pointer conflicts
			stale := types.Pointer{MetadataLocation: "t/metadata/elsewhere.json", Generation: 7}
			err = register.CommitSwap(ctx, "public.orders", &stale, types.Pointer{Generation: 8})
			assert.ErrorIs(t, err, ErrCommitConflict)

			// the stored pointer is untouched after failed swaps
			loaded, err := register.Load(ctx, "public.orders")
			require.NoError(t, err)
			assert.Equal(t, first, *loaded)
		})
	}
}

func TestCatalogConcurrentSwapsLinearize(t *testing.T) {
	ctx := context.Background()
	for name, register := range registers(t) {
		t.Run(name, func(t *testing.T) {
			base := types.Pointer{MetadataLocation: "t/metadata/v00000.json", Generation: 0}
			require.NoError(t, register.CommitSwap(ctx, "race.table", nil, base))

			var wg sync.WaitGroup
			wins := make(chan int, 10)
			for worker := 0; worker < 10; worker++ {
				wg.Add(1)
				go func(worker int) {
					defer wg.Done()
					next := types.Pointer{MetadataLocation: "t/metadata/v00001.json", Generation: 1}
					if register.CommitSwap(ctx, "race.table", &base, next) == nil {
						wins <- worker
					}
				}(worker)
			}
			wg.Wait()
			close(wins)

			var winners int
			for range wins {
				winners++
			}
			assert.Equal(t, 1, winners)
		})
	}
}

func TestCatalogFileSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.json")

	first, err := NewFile(path)
	require.NoError(t, err)
	pointer := types.Pointer{MetadataLocation: "t/metadata/v00000.json", Generation: 0}
	require.NoError(t, first.CommitSwap(ctx, "public.orders", nil, pointer))

	reopened, err := NewFile(path)
	require.NoError(t, err)
	loaded, err := reopened.Load(ctx, "public.orders")
	require.NoError(t, err)
	assert.Equal(t, pointer, *loaded)
}

func TestCatalogFactory(t *testing.T) {
	register, err := New(&types.CatalogConfig{Type: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, register)

	register, err = New(&types.CatalogConfig{Type: "file", Path: filepath.Join(t.TempDir(), "catalog.json")})
	require.NoError(t, err)
	assert.IsType(t, &File{}, register)

	_, err = New(&types.CatalogConfig{Type: "glue"})
	assert.Error(t, err)
}
