package driver

import (
	"context"
	"fmt"

	_ "github.com/go-sql-driver/mysql" // registers the mysql database/sql driver
	"github.com/jmoiron/sqlx"

	"github.com/datazip-inc/icemirror/constants"
	"github.com/datazip-inc/icemirror/drivers/abstract"
	"github.com/datazip-inc/icemirror/pkg/jdbc"
	"github.com/datazip-inc/icemirror/types"
	"github.com/datazip-inc/icemirror/utils/logger"
)

var mysqlTypeToDataTypes = map[string]types.DataType{
	"tinyint":   types.Int32,
	"smallint":  types.Int32,
	"mediumint": types.Int32,
	"int":       types.Int32,
	"bigint":    types.Int64,

	"decimal": types.Decimal,
	"numeric": types.Decimal,
	"float":   types.Float32,
	"double":  types.Float64,

	"bit": types.Bool,

	"char":       types.String,
	"varchar":    types.String,
	"text":       types.String,
	"tinytext":   types.String,
	"mediumtext": types.String,
	"longtext":   types.String,
	"enum":       types.String,
	"set":        types.String,
	"json":       types.String,
	"time":       types.String,
	"year":       types.String,

	"date":      types.Timestamp,
	"datetime":  types.TimestampMicro,
	"timestamp": types.TimestampMicro,
}

type MySQL struct {
	config *Config
	client *sqlx.DB
}

func (m *MySQL) Type() constants.DriverType {
	return constants.MySQL
}

func (m *MySQL) GetConfigRef() any {
	m.config = &Config{}
	return m.config
}

func (m *MySQL) MaxRetries() int {
	return m.config.RetryCount
}

func (m *MySQL) Tables() []types.TableSpec {
	return m.config.Tables
}

func (m *MySQL) Setup(ctx context.Context) error {
	if err := m.config.Validate(); err != nil {
		return fmt.Errorf("failed to validate config: %s", err)
	}

	client, err := sqlx.Open("mysql", m.config.DSN())
	if err != nil {
		return fmt.Errorf("failed to open mysql connection: %s", err)
	}
	if err := client.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping mysql: %s", err)
	}
	m.client = client

	logger.Infof("Connected to mysql source %s:%d/%s", m.config.Host, m.config.Port, m.config.Database)
	return nil
}

func (m *MySQL) Check(ctx context.Context) error {
	for idx := range m.config.Tables {
		spec := &m.config.Tables[idx]
		var count int
		err := m.client.QueryRowxContext(ctx, jdbc.TableExistsQuery(constants.MySQL), spec.Namespace, spec.Name).Scan(&count)
		if err != nil {
			return &types.SourceReadError{Err: err}
		}
		if count == 0 {
			return fmt.Errorf("table %s not found in source", spec.ID())
		}
	}
	return nil
}

func (m *MySQL) Close() error {
	if m.client != nil {
		return m.client.Close()
	}
	return nil
}

func (m *MySQL) Discover(ctx context.Context, spec *types.TableSpec) (*types.SourceSchema, error) {
	rows, err := m.client.QueryxContext(ctx, jdbc.MySQLSchemaQuery(), spec.Namespace, spec.Name)
	if err != nil {
		return nil, &types.SourceReadError{Err: err}
	}
	defer rows.Close()

	projected := map[string]bool{}
	for _, col := range jdbc.ProjectedColumns(spec) {
		projected[col] = true
	}

	schema := &types.SourceSchema{}
	for rows.Next() {
		var name, dataType, isNullable string
		var precision, scale int
		if err := rows.Scan(&name, &dataType, &isNullable, &precision, &scale); err != nil {
			return nil, &types.SourceReadError{Err: err}
		}
		if len(projected) > 0 && !projected[name] {
			continue
		}
		mapped, found := mysqlTypeToDataTypes[dataType]
		if !found {
			mapped = types.Unknown
		}
		schema.Columns = append(schema.Columns, types.SourceColumn{
			Name:      name,
			RawType:   dataType,
			Type:      mapped,
			Nullable:  isNullable == "YES",
			Precision: precision,
			Scale:     scale,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, &types.SourceReadError{Err: err}
	}
	if len(schema.Columns) == 0 {
		return nil, fmt.Errorf("table %s has no visible columns", spec.ID())
	}
	return schema, nil
}

func (m *MySQL) ReadBatch(ctx context.Context, spec *types.TableSpec, after any, operator string, limit int) (*types.Batch, error) {
	query := jdbc.CursorScanQuery(spec, constants.MySQL, operator, limit)
	logger.Debugf("Table[%s]: cursor scan after %v: %s", spec.ID(), after, query)

	rows, err := m.client.QueryxContext(ctx, query, after)
	if err != nil {
		return nil, &types.SourceReadError{Err: err}
	}
	defer rows.Close()

	batch := &types.Batch{}
	for rows.Next() {
		record := make(types.Record)
		if err := jdbc.MapScan(rows, record, jdbc.DefaultConverter); err != nil {
			return nil, &types.SourceReadError{Err: err}
		}
		if cursor, found := record[jdbc.CursorAlias]; found {
			batch.EndCursor = cursor
			delete(record, jdbc.CursorAlias)
		}
		batch.Records = append(batch.Records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, &types.SourceReadError{Err: err}
	}
	return batch, nil
}

func (m *MySQL) ScanAll(ctx context.Context, spec *types.TableSpec, limit int, onBatch abstract.BatchFn) error {
	query := jdbc.FullScanQuery(spec, constants.MySQL)
	logger.Debugf("Table[%s]: full scan: %s", spec.ID(), query)

	rows, err := m.client.QueryxContext(ctx, query)
	if err != nil {
		return &types.SourceReadError{Err: err}
	}
	defer rows.Close()

	ordinal := 0
	batch := &types.Batch{Ordinal: ordinal}
	flush := func() error {
		if batch.Len() == 0 {
			return nil
		}
		if err := onBatch(ctx, batch); err != nil {
			return err
		}
		ordinal++
		batch = &types.Batch{Ordinal: ordinal}
		return nil
	}

	for rows.Next() {
		record := make(types.Record)
		if err := jdbc.MapScan(rows, record, jdbc.DefaultConverter); err != nil {
			return &types.SourceReadError{Err: err}
		}
		batch.Records = append(batch.Records, record)
		if batch.Len() >= limit {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := rows.Err(); err != nil {
		return &types.SourceReadError{Err: err}
	}
	return flush()
}
