package abstract

import (
	"context"
	"errors"
	"fmt"

	"github.com/datazip-inc/icemirror/constants"
	"github.com/datazip-inc/icemirror/types"
	"github.com/datazip-inc/icemirror/utils/backoff"
	"github.com/datazip-inc/icemirror/utils/logger"
)

// BatchFn consumes one extracted batch; returning an error aborts the scan.
type BatchFn func(ctx context.Context, batch *types.Batch) error

// Driver is the source-database collaborator: schema introspection plus
// ordered, cursor-resumable row scanning with a caller-supplied batch bound.
type Driver interface {
	Type() constants.DriverType
	GetConfigRef() any
	Setup(ctx context.Context) error
	Check(ctx context.Context) error
	Close() error
	MaxRetries() int
	// Tables lists the table specs declared in the source config.
	Tables() []types.TableSpec

	// Discover reads the table's column list fresh from the source.
	Discover(ctx context.Context, spec *types.TableSpec) (*types.SourceSchema, error)
	// ReadBatch returns up to limit rows past the cursor value under the
	// given comparison operator, in cursor order. An empty batch means the
	// table is exhausted as of the start of the run.
	ReadBatch(ctx context.Context, spec *types.TableSpec, after any, operator string, limit int) (*types.Batch, error)
	// ScanAll streams the whole table once in a stable order, cutting
	// batches of at most limit rows.
	ScanAll(ctx context.Context, spec *types.TableSpec, limit int, onBatch BatchFn) error
}

// AbstractSource layers retry and timeout policy over a concrete driver.
type AbstractSource struct {
	driver Driver
}

func NewAbstractSource(driver Driver) *AbstractSource {
	return &AbstractSource{driver: driver}
}

func (a *AbstractSource) Driver() Driver {
	return a.driver
}

// retryable reports whether the error is a transient source failure. Schema
// and data defects pass through untouched.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var readErr *types.SourceReadError
	return errors.As(err, &readErr)
}

// ScanBatches drives extraction for one table starting at the resumable
// cursor. Incremental tables page with per-batch queries so a transient
// failure only re-reads one batch. Full-refresh tables stream a single scan;
// every attempt starts by invoking reset so the caller discards whatever the
// aborted attempt already delivered, and the restarted scan re-delivers from
// the beginning without a row being accounted twice.
func (a *AbstractSource) ScanBatches(ctx context.Context, spec *types.TableSpec, startCursor any, reset func() error, onBatch BatchFn) error {
	limit := spec.EffectiveBatchSize()

	if !spec.Incremental() {
		return backoff.Retry(ctx, a.driver.MaxRetries(), constants.DefaultRetryTimeout, func() error {
			if reset != nil {
				if err := reset(); err != nil {
					return err
				}
			}
			return a.driver.ScanAll(ctx, spec, limit, onBatch)
		}, func(err error) bool { return retryable(ctx, err) })
	}

	// the configured operator only bounds the first page of a fresh run;
	// paging past a delivered batch is always strict, otherwise an
	// inclusive bound would re-extract the boundary row on every page
	cursor := startCursor
	operator := ">"
	if cursor == nil {
		cursor = spec.Cursor.Value
		if spec.Cursor.Operator != "" {
			operator = spec.Cursor.Operator
		}
	}

	ordinal := 0
	for {
		var batch *types.Batch
		err := backoff.Retry(ctx, a.driver.MaxRetries(), constants.DefaultRetryTimeout, func() error {
			batchCtx, cancel := context.WithTimeout(ctx, constants.DefaultBatchTimeout)
			defer cancel()

			read, err := a.driver.ReadBatch(batchCtx, spec, cursor, operator, limit)
			if err != nil {
				return err
			}
			batch = read
			return nil
		}, func(err error) bool { return retryable(ctx, err) })
		if err != nil {
			return fmt.Errorf("failed to read batch %d of %s: %s", ordinal, spec.ID(), err)
		}

		if batch.Len() == 0 {
			logger.Debugf("Table[%s]: exhausted after %d batches", spec.ID(), ordinal)
			return nil
		}

		batch.Ordinal = ordinal
		if err := onBatch(ctx, batch); err != nil {
			return err
		}

		cursor = batch.EndCursor
		operator = ">"
		ordinal++

		// a short batch means the scan caught up with the table as of run start
		if batch.Len() < limit {
			return nil
		}
	}
}
