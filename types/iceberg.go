package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ColumnStats carries per-column metrics of one data file, keyed by field id.
// Bounds are kept in their string form so the manifest stays a plain JSON
// document regardless of column type.
type ColumnStats struct {
	NullCount int64  `json:"null-count"`
	Lower     string `json:"lower,omitempty"`
	Upper     string `json:"upper,omitempty"`
}

// DataFile describes one immutable columnar file. Created once by the data
// file writer, referenced by exactly one manifest, never mutated.
type DataFile struct {
	Path        string              `json:"file-path"`
	Format      string              `json:"file-format"`
	RecordCount int64               `json:"record-count"`
	SizeBytes   int64               `json:"file-size-in-bytes"`
	Stats       map[int]ColumnStats `json:"column-stats,omitempty"`
}

// Manifest is the ordered set of data files produced by one run.
type Manifest struct {
	SchemaID int        `json:"schema-id"`
	Entries  []DataFile `json:"entries"`
}

// ManifestRef is what a snapshot points at once a manifest is durable.
type ManifestRef struct {
	Path       string `json:"manifest-path"`
	AddedFiles int64  `json:"added-files"`
	AddedRows  int64  `json:"added-rows"`
	AddedBytes int64  `json:"added-bytes"`
}

// Snapshot is one fully consistent table version. Snapshots form a singly
// linked history through ParentID; the first snapshot has ParentID -1.
type Snapshot struct {
	ID           int64             `json:"snapshot-id"`
	ParentID     int64             `json:"parent-snapshot-id"`
	SequenceNum  int64             `json:"sequence-number"`
	TimestampMs  int64             `json:"timestamp-ms"`
	ManifestList []ManifestRef     `json:"manifests"`
	SchemaID     int               `json:"schema-id"`
	Summary      map[string]string `json:"summary,omitempty"`
}

// SnapshotLogEntry records when a snapshot became current.
type SnapshotLogEntry struct {
	SnapshotID  int64 `json:"snapshot-id"`
	TimestampMs int64 `json:"timestamp-ms"`
}

// TableMetadata is the single mutable root of a table. It is replaced
// atomically through the catalog pointer and never edited in place.
type TableMetadata struct {
	FormatVersion   int                `json:"format-version"`
	TableUUID       string             `json:"table-uuid"`
	Location        string             `json:"location"`
	LastUpdatedMs   int64              `json:"last-updated-ms"`
	LastColumnID    int                `json:"last-column-id"`
	CurrentSchemaID int                `json:"current-schema-id"`
	Schemas         []*TargetSchema    `json:"schemas"`
	CurrentSnapshot int64              `json:"current-snapshot-id"`
	Snapshots       []*Snapshot        `json:"snapshots"`
	SnapshotLog     []SnapshotLogEntry `json:"snapshot-log"`
}

// NewTableMetadata seeds metadata for a table that has no committed snapshot
// yet. The first commit attaches both the snapshot and, implicitly, makes the
// seed schema visible to readers.
func NewTableMetadata(location string, schema *TargetSchema, formatVersion int) *TableMetadata {
	return &TableMetadata{
		FormatVersion:   formatVersion,
		TableUUID:       uuid.NewString(),
		Location:        location,
		LastUpdatedMs:   time.Now().UnixMilli(),
		LastColumnID:    schema.MaxFieldID(),
		CurrentSchemaID: schema.SchemaID,
		Schemas:         []*TargetSchema{schema},
		CurrentSnapshot: -1,
	}
}

// Schema returns the revision with the given id.
func (m *TableMetadata) Schema(schemaID int) (*TargetSchema, bool) {
	for _, s := range m.Schemas {
		if s.SchemaID == schemaID {
			return s, true
		}
	}
	return nil, false
}

// CurrentSchema returns the schema revision new snapshots are written with.
func (m *TableMetadata) CurrentSchema() (*TargetSchema, error) {
	s, found := m.Schema(m.CurrentSchemaID)
	if !found {
		return nil, fmt.Errorf("current schema id %d missing from metadata", m.CurrentSchemaID)
	}
	return s, nil
}

// FindSnapshot returns the snapshot with the given id.
func (m *TableMetadata) FindSnapshot(id int64) (*Snapshot, bool) {
	for _, s := range m.Snapshots {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// LastSequenceNumber returns the highest sequence number assigned so far.
func (m *TableMetadata) LastSequenceNumber() int64 {
	var seq int64
	for _, s := range m.Snapshots {
		if s.SequenceNum > seq {
			seq = s.SequenceNum
		}
	}
	return seq
}

// Clone deep copies metadata so a commit candidate never aliases the version
// read from the catalog.
func (m *TableMetadata) Clone() *TableMetadata {
	next := *m
	next.Schemas = make([]*TargetSchema, len(m.Schemas))
	for idx, s := range m.Schemas {
		next.Schemas[idx] = s.Clone()
	}
	next.Snapshots = make([]*Snapshot, len(m.Snapshots))
	copy(next.Snapshots, m.Snapshots)
	next.SnapshotLog = make([]SnapshotLogEntry, len(m.SnapshotLog))
	copy(next.SnapshotLog, m.SnapshotLog)
	return &next
}

// TotalRows sums record counts over the manifests of the current snapshot
// chain, following parent links from the current snapshot.
func (m *TableMetadata) TotalRows() int64 {
	var total int64
	cursor := m.CurrentSnapshot
	for cursor != -1 {
		snap, found := m.FindSnapshot(cursor)
		if !found {
			break
		}
		for _, ref := range snap.ManifestList {
			total += ref.AddedRows
		}
		cursor = snap.ParentID
	}
	return total
}

// Pointer is the value held by the catalog register: the location of the
// current metadata document plus a generation used for compare-and-swap.
type Pointer struct {
	MetadataLocation string `json:"metadata-location"`
	Generation       int64  `json:"generation"`
}
