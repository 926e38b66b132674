package iceberg

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	pqgo "github.com/parquet-go/parquet-go"
	"github.com/shopspring/decimal"

	"github.com/datazip-inc/icemirror/types"
)

// Block is one immutable columnar buffer, ready for durable storage.
type Block struct {
	Data     []byte
	RowCount int64
	Stats    map[int]types.ColumnStats
}

// ParquetSchema renders a target revision as a parquet schema. Optional
// fields wrap their node so nulls encode as absent values.
func ParquetSchema(schema *types.TargetSchema) *pqgo.Schema {
	groupNode := pqgo.Group{}
	for _, field := range schema.Fields {
		node := field.Type.ToParquet()
		if !field.Required {
			node = pqgo.Optional(node)
		}
		groupNode[field.Name] = node
	}
	return pqgo.NewSchema("icemirror_schema", groupNode)
}

// Encode is the pure batch -> columnar block transform. It buffers the whole
// batch into a snappy-compressed parquet block and computes per-column
// min/max/null-count statistics keyed by field id.
func Encode(batch *types.Batch, schema *types.TargetSchema, mapping types.ColumnMapping) (*Block, error) {
	buf := &bytes.Buffer{}
	writer := pqgo.NewGenericWriter[any](buf, ParquetSchema(schema), pqgo.Compression(&pqgo.Snappy))

	// fields without a mapped source column (dropped upstream) read as null
	sourceName := make(map[int]string, len(mapping))
	for column, fieldID := range mapping {
		sourceName[fieldID] = column
	}

	stats := newStatsTracker(schema)
	for rowIdx, record := range batch.Records {
		row := map[string]any{}
		for _, field := range schema.Fields {
			value, present := record[sourceName[field.ID]]
			if !present || value == nil {
				if field.Required {
					return nil, &types.EncodingError{Column: field.Name, Row: rowIdx, Reason: "null value for required field"}
				}
				stats.null(field.ID)
				row[field.Name] = nil
				continue
			}

			normalized, err := normalize(value, field.Type)
			if err != nil {
				return nil, &types.EncodingError{Column: field.Name, Row: rowIdx, Reason: err.Error()}
			}
			stats.observe(field.ID, normalized)
			row[field.Name] = rowValue(normalized)
		}

		if _, err := writer.Write([]any{row}); err != nil {
			return nil, fmt.Errorf("failed to write row %d into parquet buffer: %s", rowIdx, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close parquet buffer: %s", err)
	}

	return &Block{
		Data:     buf.Bytes(),
		RowCount: int64(batch.Len()),
		Stats:    stats.result(),
	}, nil
}

// rowValue is the final coercion before a value enters the parquet row:
// timestamps travel as microseconds since epoch.
func rowValue(value any) any {
	if v, ok := value.(time.Time); ok {
		return v.UnixMicro()
	}
	return value
}

// timeLayouts covers the textual timestamp forms the SQL drivers hand back
// when a value does not scan as time.Time.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// normalize coerces a scanned source value into the Go representation the
// parquet node for the target type expects. String forms are parsed too:
// the mysql text protocol returns every column as bytes, which the scan
// layer has already turned into strings.
func normalize(value any, target types.IcebergType) (any, error) {
	switch target {
	case types.IceBool:
		switch v := value.(type) {
		case bool:
			return v, nil
		case string:
			// bit(1) scans as a single 0x00/0x01 byte
			if len(v) == 1 && v[0] <= 1 {
				return v[0] == 1, nil
			}
			parsed, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return nil, fmt.Errorf("invalid boolean %q", v)
			}
			return parsed, nil
		}
	case types.IceInt:
		switch v := value.(type) {
		case int32:
			return v, nil
		case int16:
			return int32(v), nil
		case int8:
			return int32(v), nil
		case int:
			return narrowToInt32(int64(v))
		case int64:
			return narrowToInt32(v)
		case string:
			parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid integer %q", v)
			}
			return narrowToInt32(parsed)
		}
	case types.IceLong:
		switch v := value.(type) {
		case int64:
			return v, nil
		case int32:
			return int64(v), nil
		case int16:
			return int64(v), nil
		case int:
			return int64(v), nil
		case uint64:
			if v > math.MaxInt64 {
				return nil, fmt.Errorf("value %d overflows long", v)
			}
			return int64(v), nil
		case string:
			parsed, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid integer %q", v)
			}
			return parsed, nil
		}
	case types.IceFloat:
		switch v := value.(type) {
		case float32:
			return v, nil
		case float64:
			return float32(v), nil
		case string:
			parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 32)
			if err != nil {
				return nil, fmt.Errorf("invalid float %q", v)
			}
			return float32(parsed), nil
		}
	case types.IceDouble:
		switch v := value.(type) {
		case float64:
			return v, nil
		case float32:
			return float64(v), nil
		case string:
			parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid float %q", v)
			}
			return parsed, nil
		}
	case types.IceTimestamptz:
		switch v := value.(type) {
		case time.Time:
			return v.UTC(), nil
		case string:
			trimmed := strings.TrimSpace(v)
			for _, layout := range timeLayouts {
				if parsed, err := time.Parse(layout, trimmed); err == nil {
					return parsed.UTC(), nil
				}
			}
			return nil, fmt.Errorf("invalid timestamp %q", v)
		}
	case types.IceDecimal:
		// decimals travel as arbitrary-precision strings
		switch v := value.(type) {
		case string:
			parsed, err := decimal.NewFromString(strings.TrimSpace(v))
			if err != nil {
				return nil, fmt.Errorf("invalid decimal %q", v)
			}
			return parsed.String(), nil
		case float64:
			return decimal.NewFromFloat(v).String(), nil
		case int64:
			return decimal.NewFromInt(v).String(), nil
		case decimal.Decimal:
			return v.String(), nil
		}
	case types.IceString:
		switch v := value.(type) {
		case string:
			return v, nil
		case []byte:
			return string(v), nil
		default:
			return fmt.Sprintf("%v", v), nil
		}
	}
	return nil, fmt.Errorf("value of type %T does not fit target type %s", value, target)
}

func narrowToInt32(v int64) (any, error) {
	if v < math.MinInt32 || v > math.MaxInt32 {
		return nil, fmt.Errorf("value %d overflows int", v)
	}
	return int32(v), nil
}

// statsTracker accumulates per-column metrics while a batch is encoded.
type statsTracker struct {
	fields map[int]types.Field
	nulls  map[int]int64
	lower  map[int]any
	upper  map[int]any
}

func newStatsTracker(schema *types.TargetSchema) *statsTracker {
	fields := map[int]types.Field{}
	for _, field := range schema.Fields {
		fields[field.ID] = field
	}
	return &statsTracker{
		fields: fields,
		nulls:  map[int]int64{},
		lower:  map[int]any{},
		upper:  map[int]any{},
	}
}

func (s *statsTracker) null(fieldID int) {
	s.nulls[fieldID]++
}

func (s *statsTracker) observe(fieldID int, value any) {
	if current, found := s.lower[fieldID]; !found || compareValues(value, current, s.fields[fieldID].Type) < 0 {
		s.lower[fieldID] = value
	}
	if current, found := s.upper[fieldID]; !found || compareValues(value, current, s.fields[fieldID].Type) > 0 {
		s.upper[fieldID] = value
	}
}

func (s *statsTracker) result() map[int]types.ColumnStats {
	out := map[int]types.ColumnStats{}
	for id := range s.fields {
		stat := types.ColumnStats{NullCount: s.nulls[id]}
		if v, found := s.lower[id]; found {
			stat.Lower = boundString(v)
		}
		if v, found := s.upper[id]; found {
			stat.Upper = boundString(v)
		}
		out[id] = stat
	}
	return out
}

func compareValues(a, b any, target types.IcebergType) int {
	switch target {
	case types.IceInt:
		av, bv := a.(int32), b.(int32)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	case types.IceLong:
		av, bv := a.(int64), b.(int64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	case types.IceFloat:
		av, bv := a.(float32), b.(float32)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	case types.IceDouble:
		av, bv := a.(float64), b.(float64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	case types.IceTimestamptz:
		return a.(time.Time).Compare(b.(time.Time))
	case types.IceDecimal:
		ad, _ := decimal.NewFromString(a.(string))
		bd, _ := decimal.NewFromString(b.(string))
		return ad.Cmp(bd)
	case types.IceBool:
		av, bv := a.(bool), b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		}
		return 1
	default:
		return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}
}

func boundString(value any) string {
	if v, ok := value.(time.Time); ok {
		return v.UTC().Format(time.RFC3339Nano)
	}
	return fmt.Sprint(value)
}
