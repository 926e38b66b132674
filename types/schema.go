package types

import (
	"fmt"
)

// SourceColumn is one column of the relational source table, read fresh from
// information_schema on every run.
type SourceColumn struct {
	Name     string   `json:"name"`
	RawType  string   `json:"raw_type"` // driver-native type name, kept for error messages
	Type     DataType `json:"type"`
	Nullable bool     `json:"nullable"`
	// numeric precision/scale when the source reports them
	Precision int `json:"precision,omitempty"`
	Scale     int `json:"scale,omitempty"`
}

// SourceSchema is the ordered column list of the source table.
type SourceSchema struct {
	Columns []SourceColumn `json:"columns"`
}

func (s *SourceSchema) Column(name string) (SourceColumn, bool) {
	for _, col := range s.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return SourceColumn{}, false
}

// Field is one column of the target table. The ID is assigned once per field
// name and never reused, which is what keeps old data files readable under
// newer schemas.
type Field struct {
	ID       int         `json:"id"`
	Name     string      `json:"name"`
	Type     IcebergType `json:"type"`
	Required bool        `json:"required"`
}

// TargetSchema is an immutable schema revision. Evolution produces a new
// value with a new SchemaID; revisions are only ever appended to.
type TargetSchema struct {
	SchemaID int     `json:"schema-id"`
	Fields   []Field `json:"fields"`
}

func (s *TargetSchema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (s *TargetSchema) FieldByID(id int) (Field, bool) {
	for _, f := range s.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

// MaxFieldID returns the highest field id in use, 0 for an empty schema.
func (s *TargetSchema) MaxFieldID() int {
	maxID := 0
	for _, f := range s.Fields {
		if f.ID > maxID {
			maxID = f.ID
		}
	}
	return maxID
}

// Clone returns a deep copy so evolution never mutates a committed revision.
func (s *TargetSchema) Clone() *TargetSchema {
	fields := make([]Field, len(s.Fields))
	copy(fields, s.Fields)
	return &TargetSchema{SchemaID: s.SchemaID, Fields: fields}
}

// Equal compares two revisions field by field, ignoring SchemaID.
func (s *TargetSchema) Equal(other *TargetSchema) bool {
	if other == nil || len(s.Fields) != len(other.Fields) {
		return false
	}
	for idx, f := range s.Fields {
		if other.Fields[idx] != f {
			return false
		}
	}
	return true
}

func (s *TargetSchema) String() string {
	return fmt.Sprintf("schema-id=%d fields=%d", s.SchemaID, len(s.Fields))
}

// ColumnMapping maps a source column name onto the target field id assigned
// to it by schema translation.
type ColumnMapping map[string]int
