package types

import (
	"fmt"

	"github.com/datazip-inc/icemirror/constants"
	"github.com/go-playground/validator/v10"
)

// CursorSpec configures incremental extraction for one table. A table without
// a cursor is re-read from the beginning on every run.
type CursorSpec struct {
	Field    string `json:"field" validate:"required"`
	Operator string `json:"operator" validate:"omitempty,oneof=> >= <"`
	Value    any    `json:"value"`
}

// TargetSpec overrides where the table lands; defaults to the source
// namespace and name.
type TargetSpec struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
}

// TableSpec is one replicated table as declared in the source config file.
type TableSpec struct {
	Namespace string      `json:"namespace" validate:"required"`
	Name      string      `json:"name" validate:"required"`
	Columns   string      `json:"columns,omitempty"` // comma-separated projection, empty means all
	FilterExp string      `json:"filter_exp,omitempty"`
	Cursor    *CursorSpec `json:"cursor,omitempty"`
	BatchSize int         `json:"batch_size,omitempty" validate:"omitempty,gt=0"`
	Target    *TargetSpec `json:"target,omitempty"`
}

func (t *TableSpec) ID() string {
	return fmt.Sprintf("%s.%s", t.Namespace, t.Name)
}

// Incremental reports whether the table resumes from a cursor.
func (t *TableSpec) Incremental() bool {
	return t.Cursor != nil
}

// TargetID returns the destination identifier, applying overrides.
func (t *TableSpec) TargetID() string {
	namespace, name := t.Namespace, t.Name
	if t.Target != nil {
		if t.Target.Namespace != "" {
			namespace = t.Target.Namespace
		}
		if t.Target.Name != "" {
			name = t.Target.Name
		}
	}
	return fmt.Sprintf("%s.%s", namespace, name)
}

func (t *TableSpec) EffectiveBatchSize() int {
	if t.BatchSize > 0 {
		return t.BatchSize
	}
	return constants.DefaultBatchSize
}

// StoreConfig selects and configures the blob storage substrate.
type StoreConfig struct {
	Type      string `json:"type" validate:"required,oneof=local s3"`
	Path      string `json:"path,omitempty"`
	Bucket    string `json:"bucket,omitempty"`
	Region    string `json:"region,omitempty"`
	Endpoint  string `json:"endpoint,omitempty"`
	AccessKey string `json:"access_key,omitempty"`
	SecretKey string `json:"secret_key,omitempty"`
	Prefix    string `json:"prefix,omitempty"`
}

// CatalogConfig selects the compare-and-swap register implementation.
type CatalogConfig struct {
	Type string `json:"type" validate:"required,oneof=file memory"`
	Path string `json:"path,omitempty"`
}

// DestinationConfig is the warehouse side of a replication run.
type DestinationConfig struct {
	Store         StoreConfig   `json:"store"`
	Catalog       CatalogConfig `json:"catalog"`
	CommitRetries int           `json:"commit_retries,omitempty" validate:"omitempty,gt=0"`
}

var validate = validator.New()

func (c *DestinationConfig) Validate() error {
	if c.CommitRetries <= 0 {
		c.CommitRetries = constants.DefaultCommitRetries
	}
	if c.Store.Type == "local" && c.Store.Path == "" {
		return fmt.Errorf("local store requires a path")
	}
	if c.Store.Type == "s3" && c.Store.Bucket == "" {
		return fmt.Errorf("s3 store requires a bucket")
	}
	if c.Catalog.Type == "file" && c.Catalog.Path == "" {
		return fmt.Errorf("file catalog requires a path")
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("failed to validate destination config: %s", err)
	}
	return nil
}

// ValidateTables checks the per-table specs of a source config.
func ValidateTables(tables []TableSpec) error {
	if len(tables) == 0 {
		return fmt.Errorf("no tables configured")
	}
	for idx := range tables {
		if err := validate.Struct(&tables[idx]); err != nil {
			return fmt.Errorf("failed to validate table spec %q: %s", tables[idx].ID(), err)
		}
	}
	return nil
}
