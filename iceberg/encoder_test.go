package iceberg

import (
	"bytes"
	"math"
	"testing"
	"time"

	pqgo "github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datazip-inc/icemirror/types"
)

func testSchema() *types.TargetSchema {
	return &types.TargetSchema{
		SchemaID: 0,
		Fields: []types.Field{
			{ID: 1, Name: "id", Type: types.IceLong, Required: true},
			{ID: 2, Name: "name", Type: types.IceString, Required: false},
			{ID: 3, Name: "amount", Type: types.IceDecimal, Required: false},
			{ID: 4, Name: "created_at", Type: types.IceTimestamptz, Required: false},
		},
	}
}

func testMapping() types.ColumnMapping {
	return types.ColumnMapping{"id": 1, "name": 2, "amount": 3, "created_at": 4}
}

func TestEncodeProducesReadableParquet(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	batch := &types.Batch{
		Records: []types.Record{
			{"id": int64(1), "name": "alpha", "amount": "10.50", "created_at": now},
			{"id": int64(2), "name": "beta", "amount": "7.25", "created_at": now.Add(time.Hour)},
			{"id": int64(3), "name": nil, "amount": nil, "created_at": nil},
		},
	}

	block, err := Encode(batch, testSchema(), testMapping())
	require.NoError(t, err)
	assert.Equal(t, int64(3), block.RowCount)
	require.NotEmpty(t, block.Data)

	file, err := pqgo.OpenFile(bytes.NewReader(block.Data), int64(len(block.Data)))
	require.NoError(t, err)
	assert.Equal(t, int64(3), file.NumRows())
}

func TestEncodeStats(t *testing.T) {
	batch := &types.Batch{
		Records: []types.Record{
			{"id": int64(5), "name": "m", "amount": "2.00", "created_at": nil},
			{"id": int64(1), "name": "a", "amount": "10.00", "created_at": nil},
			{"id": int64(9), "name": nil, "amount": "9.99", "created_at": nil},
		},
	}

	block, err := Encode(batch, testSchema(), testMapping())
	require.NoError(t, err)

	idStats := block.Stats[1]
	assert.Equal(t, int64(0), idStats.NullCount)
	assert.Equal(t, "1", idStats.Lower)
	assert.Equal(t, "9", idStats.Upper)

	nameStats := block.Stats[2]
	assert.Equal(t, int64(1), nameStats.NullCount)
	assert.Equal(t, "a", nameStats.Lower)
	assert.Equal(t, "m", nameStats.Upper)

	// decimal bounds compare numerically, not lexically
	amountStats := block.Stats[3]
	assert.Equal(t, "2.00", amountStats.Lower)
	assert.Equal(t, "10.00", amountStats.Upper)

	createdStats := block.Stats[4]
	assert.Equal(t, int64(3), createdStats.NullCount)
	assert.Empty(t, createdStats.Lower)
}

func TestEncodeNullInRequiredFieldFails(t *testing.T) {
	batch := &types.Batch{
		Records: []types.Record{
			{"id": int64(1), "name": "ok"},
			{"id": nil, "name": "broken"},
		},
	}

	_, err := Encode(batch, testSchema(), testMapping())
	var encErr *types.EncodingError
	require.ErrorAs(t, err, &encErr)
	assert.Equal(t, "id", encErr.Column)
	assert.Equal(t, 1, encErr.Row)
}

func TestEncodeRejectsMistypedValue(t *testing.T) {
	batch := &types.Batch{
		Records: []types.Record{
			{"id": "not-a-number", "name": "x"},
		},
	}

	_, err := Encode(batch, testSchema(), testMapping())
	var encErr *types.EncodingError
	require.ErrorAs(t, err, &encErr)
	assert.Equal(t, "id", encErr.Column)
}

func TestNormalizeCoercions(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		target   types.IcebergType
		expected any
	}{
		{"int32 to long", int32(7), types.IceLong, int64(7)},
		{"int to int32", 7, types.IceInt, int32(7)},
		{"float32 to double", float32(1.5), types.IceDouble, float64(1.5)},
		{"bytes to string", []byte("abc"), types.IceString, "abc"},
		{"decimal string trimmed", " 12.300 ", types.IceDecimal, "12.300"},
		{"decimal from float", 2.5, types.IceDecimal, "2.5"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := normalize(test.value, test.target)
			require.NoError(t, err)
			assert.Equal(t, test.expected, got)
		})
	}
}

// Text-protocol scans hand every column back as a string; each numeric,
// boolean and timestamp target must parse its textual form.
func TestNormalizeParsesStringScans(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		target   types.IcebergType
		expected any
	}{
		{"long text", "42", types.IceLong, int64(42)},
		{"int text padded", " 7 ", types.IceInt, int32(7)},
		{"double text", "1.5", types.IceDouble, float64(1.5)},
		{"float text", "3.25", types.IceFloat, float32(3.25)},
		{"bool word", "true", types.IceBool, true},
		{"bool digit", "1", types.IceBool, true},
		{"bit byte set", "\x01", types.IceBool, true},
		{"bit byte clear", "\x00", types.IceBool, false},
		{"datetime text", "2024-05-01 12:00:00", types.IceTimestamptz, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)},
		{"date text", "2024-05-01", types.IceTimestamptz, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := normalize(test.value, test.target)
			require.NoError(t, err)
			assert.Equal(t, test.expected, got)
		})
	}
}

func TestNormalizeRejectsOutOfRangeInt(t *testing.T) {
	for _, value := range []any{
		int64(math.MaxInt32) + 1,
		int64(math.MinInt32) - 1,
		"2147483648",
	} {
		_, err := normalize(value, types.IceInt)
		require.Error(t, err, "value %v must not narrow silently", value)
	}

	// the extremes themselves still fit
	got, err := normalize(int64(math.MaxInt32), types.IceInt)
	require.NoError(t, err)
	assert.Equal(t, int32(math.MaxInt32), got)
}

func TestEncodeStatsAtInt32Extremes(t *testing.T) {
	schema := &types.TargetSchema{
		SchemaID: 0,
		Fields:   []types.Field{{ID: 1, Name: "v", Type: types.IceInt, Required: true}},
	}
	batch := &types.Batch{
		Records: []types.Record{
			{"v": int32(math.MaxInt32)},
			{"v": int32(0)},
			{"v": int32(math.MinInt32)},
		},
	}

	block, err := Encode(batch, schema, types.ColumnMapping{"v": 1})
	require.NoError(t, err)
	stats := block.Stats[1]
	assert.Equal(t, "-2147483648", stats.Lower)
	assert.Equal(t, "2147483647", stats.Upper)
}

func TestNormalizeTimestampForcesUTC(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	local := time.Date(2024, 5, 1, 10, 30, 0, 0, loc)

	got, err := normalize(local, types.IceTimestamptz)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, got.(time.Time).Location())
	assert.True(t, got.(time.Time).Equal(local))
}
