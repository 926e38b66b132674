package types

import (
	"fmt"
)

// UnsupportedTypeError aborts a run before extraction: the source column has
// no mapping onto a target primitive type.
type UnsupportedTypeError struct {
	Column  string
	RawType string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported source type %q for column %q", e.RawType, e.Column)
}

// SchemaEvolutionError aborts a run before extraction: the source column's
// type is incompatible with the already committed target type, and a
// destructive change cannot be appended safely.
type SchemaEvolutionError struct {
	Column string
	From   IcebergType
	To     IcebergType
}

func (e *SchemaEvolutionError) Error() string {
	return fmt.Sprintf("destructive type change for column %q: %s -> %s", e.Column, e.From, e.To)
}

// SourceReadError wraps a transient source failure; retryable per batch.
type SourceReadError struct {
	Err error
}

func (e *SourceReadError) Error() string {
	return fmt.Sprintf("source read failed: %s", e.Err)
}

func (e *SourceReadError) Unwrap() error { return e.Err }

// WriteError wraps a storage substrate failure; retryable per batch since an
// unreferenced file is invisible to readers.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write failed for %q: %s", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// EncodingError is a row-level data defect; fatal for the run, nothing is
// committed.
type EncodingError struct {
	Column string
	Row    int
	Reason string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding failed at row %d column %q: %s", e.Row, e.Column, e.Reason)
}

// CommitConflictError is returned once the commit retry bound is exhausted;
// the table's last good snapshot stays untouched.
type CommitConflictError struct {
	Table    string
	Attempts int
}

func (e *CommitConflictError) Error() string {
	return fmt.Sprintf("commit conflict on table %q after %d attempts", e.Table, e.Attempts)
}
