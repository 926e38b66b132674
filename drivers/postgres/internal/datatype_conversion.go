package driver

import (
	"github.com/datazip-inc/icemirror/types"
)

// pgTypeToDataTypes maps udt names from information_schema onto the
// source-agnostic type set. Anything absent from the map is unmappable and
// fails schema translation.
var pgTypeToDataTypes = map[string]types.DataType{
	"bigint":      types.Int64,
	"int8":        types.Int64,
	"integer":     types.Int32,
	"smallint":    types.Int32,
	"smallserial": types.Int32,
	"int":         types.Int32,
	"int2":        types.Int32,
	"int4":        types.Int32,
	"serial":      types.Int32,
	"serial2":     types.Int32,
	"serial4":     types.Int32,
	"serial8":     types.Int64,
	"bigserial":   types.Int64,

	// numbers
	"decimal":          types.Decimal,
	"numeric":          types.Decimal,
	"money":            types.Decimal,
	"double precision": types.Float64,
	"float":            types.Float32,
	"float4":           types.Float32,
	"float8":           types.Float64,
	"real":             types.Float32,

	// boolean
	"bool":    types.Bool,
	"boolean": types.Bool,

	// strings; uuid/json/xml/interval values are read as text
	"bytea":             types.String,
	"character":         types.String,
	"char":              types.String,
	"varbit":            types.String,
	"bit":               types.String,
	"cidr":              types.String,
	"inet":              types.String,
	"macaddr":           types.String,
	"macaddr8":          types.String,
	"character varying": types.String,
	"text":              types.String,
	"varchar":           types.String,
	"name":              types.String,
	"uuid":              types.String,
	"json":              types.String,
	"jsonb":             types.String,
	"xml":               types.String,
	"interval":          types.String,
	"enum":              types.String,
	"bpchar":            types.String, // blank-padded character

	// date/time
	"time":                        types.String,
	"timez":                       types.String,
	"date":                        types.Timestamp,
	"timestamp":                   types.TimestampMicro,
	"timestampz":                  types.TimestampMicro,
	"timestamp with time zone":    types.TimestampMicro,
	"timestamp without time zone": types.TimestampMicro,
	"timestamptz":                 types.TimestampMicro,
}
