package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWidens(t *testing.T) {
	assert.True(t, IceLong.Widens(IceInt))
	assert.True(t, IceDouble.Widens(IceFloat))
	assert.True(t, IceLong.Widens(IceLong))

	assert.False(t, IceInt.Widens(IceLong))
	assert.False(t, IceFloat.Widens(IceDouble))
	assert.False(t, IceString.Widens(IceLong))
	assert.False(t, IceDouble.Widens(IceInt))
}

func TestDataTypeToIceberg(t *testing.T) {
	for _, dt := range []DataType{Bool, Int32, Int64, Float32, Float64, Decimal, String, Timestamp, TimestampMilli, TimestampMicro} {
		_, ok := dt.ToIceberg()
		assert.True(t, ok, "expected mapping for %s", dt)
	}
	_, ok := Unknown.ToIceberg()
	assert.False(t, ok)
}

func testMetadata() *TableMetadata {
	schema := &TargetSchema{SchemaID: 0, Fields: []Field{{ID: 1, Name: "id", Type: IceLong, Required: true}}}
	metadata := NewTableMetadata("public/orders", schema, 2)
	metadata.Snapshots = []*Snapshot{
		{ID: 100, ParentID: -1, SequenceNum: 1, ManifestList: []ManifestRef{{AddedRows: 10}}},
		{ID: 200, ParentID: 100, SequenceNum: 2, ManifestList: []ManifestRef{{AddedRows: 5}}},
	}
	metadata.CurrentSnapshot = 200
	return metadata
}

func TestTotalRowsWalksParentChain(t *testing.T) {
	assert.Equal(t, int64(15), testMetadata().TotalRows())
}

func TestTotalRowsIgnoresAbandonedSnapshots(t *testing.T) {
	metadata := testMetadata()
	// a snapshot not reachable from the current one counts for nothing
	metadata.Snapshots = append(metadata.Snapshots, &Snapshot{ID: 300, ParentID: 100, SequenceNum: 2, ManifestList: []ManifestRef{{AddedRows: 99}}})
	assert.Equal(t, int64(15), metadata.TotalRows())
}

func TestMetadataCloneIsIndependent(t *testing.T) {
	original := testMetadata()
	clone := original.Clone()

	clone.CurrentSnapshot = 300
	clone.Schemas[0].Fields[0].Name = "changed"
	clone.Snapshots = append(clone.Snapshots, &Snapshot{ID: 300})

	assert.Equal(t, int64(200), original.CurrentSnapshot)
	assert.Equal(t, "id", original.Schemas[0].Fields[0].Name)
	assert.Len(t, original.Snapshots, 2)
}

func TestLastSequenceNumber(t *testing.T) {
	metadata := testMetadata()
	assert.Equal(t, int64(2), metadata.LastSequenceNumber())
	assert.Equal(t, int64(0), NewTableMetadata("loc", &TargetSchema{}, 2).LastSequenceNumber())
}

func TestCurrentSchemaMissingRevision(t *testing.T) {
	metadata := testMetadata()
	metadata.CurrentSchemaID = 9
	_, err := metadata.CurrentSchema()
	require.Error(t, err)
}
