package types

import (
	"github.com/parquet-go/parquet-go"
)

type DataType string

const (
	Null           DataType = "null"
	Int32          DataType = "integer_small"
	Int64          DataType = "integer"
	Float32        DataType = "number_small"
	Float64        DataType = "number"
	Decimal        DataType = "decimal"
	String         DataType = "string"
	Bool           DataType = "boolean"
	Unknown        DataType = "unknown"
	Timestamp      DataType = "timestamp"
	TimestampMilli DataType = "timestamp_milli" // storing datetime up to 3 precisions
	TimestampMicro DataType = "timestamp_micro" // storing datetime up to 6 precisions
)

// IcebergType is a primitive type string as it appears in table metadata.
type IcebergType string

const (
	IceBool        IcebergType = "boolean"
	IceInt         IcebergType = "int"
	IceLong        IcebergType = "long"
	IceFloat       IcebergType = "float"
	IceDouble      IcebergType = "double"
	IceDecimal     IcebergType = "decimal"
	IceString      IcebergType = "string"
	IceTimestamptz IcebergType = "timestamptz"
)

// ToIceberg maps a source-agnostic type onto its Iceberg primitive. The
// mapping is total for every DataType except Unknown; callers decide how to
// treat unmappable source columns.
func (d DataType) ToIceberg() (IcebergType, bool) {
	switch d {
	case Bool:
		return IceBool, true
	case Int32:
		return IceInt, true
	case Int64:
		return IceLong, true
	case Float32:
		return IceFloat, true
	case Float64:
		return IceDouble, true
	case Decimal:
		return IceDecimal, true
	case Timestamp, TimestampMilli, TimestampMicro:
		return IceTimestamptz, true // use with timezone as we use default utc
	case String:
		return IceString, true
	default:
		return "", false
	}
}

// ToParquet returns the parquet node encoding for an Iceberg primitive.
// Optionality is layered on by the encoder based on field requiredness.
func (t IcebergType) ToParquet() parquet.Node {
	switch t {
	case IceBool:
		return parquet.Leaf(parquet.BooleanType)
	case IceInt:
		return parquet.Leaf(parquet.Int32Type)
	case IceLong:
		return parquet.Leaf(parquet.Int64Type)
	case IceFloat:
		return parquet.Leaf(parquet.FloatType)
	case IceDouble:
		return parquet.Leaf(parquet.DoubleType)
	case IceTimestamptz:
		return parquet.Timestamp(parquet.Microsecond)
	default:
		// decimal values travel as strings to keep arbitrary precision
		return parquet.String()
	}
}

// Widens reports whether a column of type t can hold every value of prior.
// Iceberg permits int->long and float->double promotions; everything else is
// a destructive change.
func (t IcebergType) Widens(prior IcebergType) bool {
	if t == prior {
		return true
	}
	switch prior {
	case IceInt:
		return t == IceLong
	case IceFloat:
		return t == IceDouble
	}
	return false
}
