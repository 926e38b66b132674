package iceberg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datazip-inc/icemirror/types"
)

func sourceSchema(cols ...types.SourceColumn) *types.SourceSchema {
	return &types.SourceSchema{Columns: cols}
}

func TestTranslateFreshTable(t *testing.T) {
	source := sourceSchema(
		types.SourceColumn{Name: "id", RawType: "bigint", Type: types.Int64, Nullable: false},
		types.SourceColumn{Name: "name", RawType: "varchar", Type: types.String, Nullable: true},
		types.SourceColumn{Name: "created_at", RawType: "timestamptz", Type: types.TimestampMicro, Nullable: false},
	)

	translation, err := Translate(source, nil)
	require.NoError(t, err)
	require.True(t, translation.Evolved)
	assert.Equal(t, 0, translation.Schema.SchemaID)

	require.Len(t, translation.Schema.Fields, 3)
	assert.Equal(t, types.Field{ID: 1, Name: "id", Type: types.IceLong, Required: true}, translation.Schema.Fields[0])
	assert.Equal(t, types.Field{ID: 2, Name: "name", Type: types.IceString, Required: false}, translation.Schema.Fields[1])
	assert.Equal(t, types.Field{ID: 3, Name: "created_at", Type: types.IceTimestamptz, Required: true}, translation.Schema.Fields[2])

	assert.Equal(t, types.ColumnMapping{"id": 1, "name": 2, "created_at": 3}, translation.Mapping)
}

func TestTranslateUnchangedSchemaIsNotEvolved(t *testing.T) {
	source := sourceSchema(
		types.SourceColumn{Name: "id", Type: types.Int64, Nullable: false},
	)
	first, err := Translate(source, nil)
	require.NoError(t, err)

	second, err := Translate(source, first.Schema)
	require.NoError(t, err)
	assert.False(t, second.Evolved)
	assert.Same(t, first.Schema, second.Schema)
	assert.Equal(t, first.Mapping, second.Mapping)
}

func TestTranslateAppendsNewColumnAsOptional(t *testing.T) {
	current, err := Translate(sourceSchema(
		types.SourceColumn{Name: "id", Type: types.Int64, Nullable: false},
	), nil)
	require.NoError(t, err)

	next, err := Translate(sourceSchema(
		types.SourceColumn{Name: "id", Type: types.Int64, Nullable: false},
		types.SourceColumn{Name: "email", Type: types.String, Nullable: false},
	), current.Schema)
	require.NoError(t, err)

	require.True(t, next.Evolved)
	assert.Equal(t, current.Schema.SchemaID+1, next.Schema.SchemaID)

	field, found := next.Schema.Field("email")
	require.True(t, found)
	// appended columns stay optional even when the source marks them NOT NULL
	assert.False(t, field.Required)
	assert.Equal(t, current.Schema.MaxFieldID()+1, field.ID)

	// the prior field keeps its id
	idField, found := next.Schema.Field("id")
	require.True(t, found)
	assert.Equal(t, 1, idField.ID)
}

func TestTranslateWidensIntAndFloat(t *testing.T) {
	current, err := Translate(sourceSchema(
		types.SourceColumn{Name: "count", Type: types.Int32, Nullable: true},
		types.SourceColumn{Name: "ratio", Type: types.Float32, Nullable: true},
	), nil)
	require.NoError(t, err)

	next, err := Translate(sourceSchema(
		types.SourceColumn{Name: "count", Type: types.Int64, Nullable: true},
		types.SourceColumn{Name: "ratio", Type: types.Float64, Nullable: true},
	), current.Schema)
	require.NoError(t, err)
	require.True(t, next.Evolved)

	count, _ := next.Schema.Field("count")
	ratio, _ := next.Schema.Field("ratio")
	assert.Equal(t, types.IceLong, count.Type)
	assert.Equal(t, types.IceDouble, ratio.Type)
	// widening keeps the field ids stable
	assert.Equal(t, 1, count.ID)
	assert.Equal(t, 2, ratio.ID)
}

func TestTranslateNarrowingFails(t *testing.T) {
	current, err := Translate(sourceSchema(
		types.SourceColumn{Name: "count", Type: types.Int64, Nullable: true},
	), nil)
	require.NoError(t, err)

	_, err = Translate(sourceSchema(
		types.SourceColumn{Name: "count", Type: types.String, Nullable: true},
	), current.Schema)

	var evoErr *types.SchemaEvolutionError
	require.ErrorAs(t, err, &evoErr)
	assert.Equal(t, "count", evoErr.Column)
}

func TestTranslateRelaxesRequiredWhenSourceTurnsNullable(t *testing.T) {
	current, err := Translate(sourceSchema(
		types.SourceColumn{Name: "id", Type: types.Int64, Nullable: false},
	), nil)
	require.NoError(t, err)

	next, err := Translate(sourceSchema(
		types.SourceColumn{Name: "id", Type: types.Int64, Nullable: true},
	), current.Schema)
	require.NoError(t, err)
	require.True(t, next.Evolved)

	field, _ := next.Schema.Field("id")
	assert.False(t, field.Required)
}

func TestTranslateUnknownTypeFails(t *testing.T) {
	_, err := Translate(sourceSchema(
		types.SourceColumn{Name: "shape", RawType: "geometry", Type: types.Unknown, Nullable: true},
	), nil)

	var unsupported *types.UnsupportedTypeError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "shape", unsupported.Column)
	assert.Equal(t, "geometry", unsupported.RawType)
}
