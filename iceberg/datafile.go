package iceberg

import (
	"context"
	"fmt"

	"github.com/datazip-inc/icemirror/constants"
	"github.com/datazip-inc/icemirror/storage"
	"github.com/datazip-inc/icemirror/types"
	"github.com/datazip-inc/icemirror/utils"
	"github.com/datazip-inc/icemirror/utils/logger"
)

// FileWriter persists encoded blocks as immutable data files under the
// table's data/ prefix. Every write mints a fresh key, so a retried attempt
// never collides with a torn one.
type FileWriter struct {
	store    storage.Store
	location string
}

func NewFileWriter(store storage.Store, location string) *FileWriter {
	return &FileWriter{store: store, location: location}
}

// Write stores one block and returns its descriptor. The returned file is
// invisible to readers until a manifest referencing it lands in a committed
// snapshot.
func (w *FileWriter) Write(ctx context.Context, block *Block) (*types.DataFile, error) {
	key := fmt.Sprintf("%s/data/%s", w.location, utils.TimestampedFileName(constants.ParquetFileExt))

	if err := w.store.Put(ctx, key, block.Data); err != nil {
		return nil, &types.WriteError{Path: key, Err: err}
	}
	logger.Debugf("Wrote data file %s (%d rows, %d bytes)", key, block.RowCount, len(block.Data))

	return &types.DataFile{
		Path:        key,
		Format:      "parquet",
		RecordCount: block.RowCount,
		SizeBytes:   int64(len(block.Data)),
		Stats:       block.Stats,
	}, nil
}
