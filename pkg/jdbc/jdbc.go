package jdbc

import (
	"fmt"
	"strings"

	"github.com/datazip-inc/icemirror/constants"
	"github.com/datazip-inc/icemirror/types"
	"github.com/datazip-inc/icemirror/utils"
)

// CursorAlias is the synthetic column carrying the cursor value of each row
// during incremental extraction. It is stripped before encoding.
const CursorAlias = "_icemirror_cursor"

// QuoteIdentifier returns the properly quoted identifier based on database driver
func QuoteIdentifier(identifier string, driver constants.DriverType) string {
	switch driver {
	case constants.MySQL:
		return fmt.Sprintf("`%s`", identifier)
	case constants.Postgres:
		return fmt.Sprintf(`"%s"`, identifier)
	default:
		return identifier
	}
}

// QuoteTable returns the properly quoted schema.table combination
func QuoteTable(schema, table string, driver constants.DriverType) string {
	return fmt.Sprintf("%s.%s",
		QuoteIdentifier(schema, driver),
		QuoteIdentifier(table, driver))
}

// Placeholder returns the positional bind marker for the driver.
func Placeholder(driver constants.DriverType, position int) string {
	if driver == constants.Postgres {
		return fmt.Sprintf("$%d", position)
	}
	return "?"
}

// ProjectedColumns returns the configured column names, nil when the whole
// table is selected.
func ProjectedColumns(spec *types.TableSpec) []string {
	if spec.Columns == "" {
		return nil
	}
	return utils.SplitAndTrim(spec.Columns)
}

// Projection expands the configured column list, or * when none is set.
func Projection(spec *types.TableSpec, driver constants.DriverType) string {
	if spec.Columns == "" {
		return "*"
	}
	columns := utils.SplitAndTrim(spec.Columns)
	quoted := make([]string, len(columns))
	for i, col := range columns {
		quoted[i] = QuoteIdentifier(col, driver)
	}
	return strings.Join(quoted, ", ")
}

// CursorExpression returns the SQL expression producing the cursor value.
// Postgres supports the pseudo cursor "xid", rewritten onto the row's xmin so
// system-versioned replication works without a dedicated column.
func CursorExpression(spec *types.TableSpec, driver constants.DriverType) string {
	if driver == constants.Postgres && spec.Cursor.Field == "xid" {
		return "xmin::TEXT::BIGINT"
	}
	return QuoteIdentifier(spec.Cursor.Field, driver)
}

// CursorScanQuery builds one incremental batch: rows past the bound cursor
// value under the given operator, in cursor order, capped at limit. The
// cursor value rides along under CursorAlias.
func CursorScanQuery(spec *types.TableSpec, driver constants.DriverType, operator string, limit int) string {
	cursorExp := CursorExpression(spec, driver)
	if operator == "" {
		operator = ">"
	}

	var query strings.Builder
	fmt.Fprintf(&query, "SELECT %s, %s AS %s FROM %s",
		Projection(spec, driver),
		cursorExp,
		CursorAlias,
		QuoteTable(spec.Namespace, spec.Name, driver),
	)
	fmt.Fprintf(&query, " WHERE %s %s %s", cursorExp, operator, Placeholder(driver, 1))
	if spec.FilterExp != "" {
		fmt.Fprintf(&query, " AND (%s)", spec.FilterExp)
	}
	fmt.Fprintf(&query, " ORDER BY %s LIMIT %d", cursorExp, limit)
	return query.String()
}

// FullScanQuery builds the single streaming scan used by full-refresh tables.
func FullScanQuery(spec *types.TableSpec, driver constants.DriverType) string {
	var query strings.Builder
	fmt.Fprintf(&query, "SELECT %s FROM %s",
		Projection(spec, driver),
		QuoteTable(spec.Namespace, spec.Name, driver),
	)
	if spec.FilterExp != "" {
		fmt.Fprintf(&query, " WHERE (%s)", spec.FilterExp)
	}
	return query.String()
}

// PostgresSchemaQuery introspects column names, types and nullability in
// ordinal order.
func PostgresSchemaQuery() string {
	return `SELECT column_name, udt_name, is_nullable, COALESCE(numeric_precision, 0) AS numeric_precision, COALESCE(numeric_scale, 0) AS numeric_scale
FROM information_schema.columns
WHERE table_schema = $1 AND table_name = $2
ORDER BY ordinal_position`
}

// MySQLSchemaQuery introspects column names, types and nullability in ordinal
// order.
func MySQLSchemaQuery() string {
	return `SELECT column_name, data_type, is_nullable, COALESCE(numeric_precision, 0) AS numeric_precision, COALESCE(numeric_scale, 0) AS numeric_scale
FROM information_schema.columns
WHERE table_schema = ? AND table_name = ?
ORDER BY ordinal_position`
}

// TableExistsQuery checks the table is visible to the replicating role.
func TableExistsQuery(driver constants.DriverType) string {
	placeholderOne, placeholderTwo := Placeholder(driver, 1), Placeholder(driver, 2)
	return fmt.Sprintf(`SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = %s AND table_name = %s`, placeholderOne, placeholderTwo)
}
