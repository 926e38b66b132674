package jdbc

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/datazip-inc/icemirror/types"
)

// ConvertFn normalizes one scanned value for a column.
type ConvertFn func(value any, column string) (any, error)

// MapScan scans the current row into a Record, applying the driver's value
// converter column by column.
func MapScan(rows *sqlx.Rows, record types.Record, convert ConvertFn) error {
	raw := map[string]any{}
	if err := rows.MapScan(raw); err != nil {
		return fmt.Errorf("failed to scan row as map: %s", err)
	}
	for column, value := range raw {
		converted, err := convert(value, column)
		if err != nil {
			return fmt.Errorf("failed to convert column %q: %s", column, err)
		}
		record[column] = converted
	}
	return nil
}

// DefaultConverter covers the conversions shared by the relational drivers:
// byte slices become strings, times are normalized to UTC.
func DefaultConverter(value any, _ string) (any, error) {
	switch v := value.(type) {
	case []byte:
		return string(v), nil
	case time.Time:
		return v.UTC(), nil
	default:
		return value, nil
	}
}
