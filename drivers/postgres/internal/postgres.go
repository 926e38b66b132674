package driver

import (
	"context"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the pgx database/sql driver
	"github.com/jmoiron/sqlx"

	"github.com/datazip-inc/icemirror/constants"
	"github.com/datazip-inc/icemirror/drivers/abstract"
	"github.com/datazip-inc/icemirror/pkg/jdbc"
	"github.com/datazip-inc/icemirror/types"
	"github.com/datazip-inc/icemirror/utils/logger"
)

type Postgres struct {
	config *Config
	client *sqlx.DB
}

func (p *Postgres) Type() constants.DriverType {
	return constants.Postgres
}

func (p *Postgres) GetConfigRef() any {
	p.config = &Config{}
	return p.config
}

func (p *Postgres) MaxRetries() int {
	return p.config.RetryCount
}

func (p *Postgres) Tables() []types.TableSpec {
	return p.config.Tables
}

func (p *Postgres) Setup(ctx context.Context) error {
	if err := p.config.Validate(); err != nil {
		return fmt.Errorf("failed to validate config: %s", err)
	}

	client, err := sqlx.Open("pgx", p.config.Connection.String())
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %s", err)
	}
	if err := client.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping postgres: %s", err)
	}
	p.client = client

	logger.Infof("Connected to postgres source %s:%d/%s", p.config.Host, p.config.Port, p.config.Database)
	return nil
}

func (p *Postgres) Check(ctx context.Context) error {
	for idx := range p.config.Tables {
		spec := &p.config.Tables[idx]
		var count int
		err := p.client.QueryRowxContext(ctx, jdbc.TableExistsQuery(constants.Postgres), spec.Namespace, spec.Name).Scan(&count)
		if err != nil {
			return &types.SourceReadError{Err: err}
		}
		if count == 0 {
			return fmt.Errorf("table %s not found in source", spec.ID())
		}
	}
	return nil
}

func (p *Postgres) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}

func (p *Postgres) Discover(ctx context.Context, spec *types.TableSpec) (*types.SourceSchema, error) {
	rows, err := p.client.QueryxContext(ctx, jdbc.PostgresSchemaQuery(), spec.Namespace, spec.Name)
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
		var name, udtName, isNullable string
		var precision, scale int
		if err := rows.Scan(&name, &udtName, &isNullable, &precision, &scale); err != nil {
			return nil, &types.SourceReadError{Err: err}
		}
		if len(projected) > 0 && !projected[name] {
			continue
		}
		schema.Columns = append(schema.Columns, types.SourceColumn{
			Name:      name,
			RawType:   udtName,
			Type:      mapPgType(udtName),
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

func mapPgType(udtName string) types.DataType {
	if mapped, found := pgTypeToDataTypes[udtName]; found {
		return mapped
	}
	return types.Unknown
}

func (p *Postgres) ReadBatch(ctx context.Context, spec *types.TableSpec, after any, operator string, limit int) (*types.Batch, error) {
	query := jdbc.CursorScanQuery(spec, constants.Postgres, operator, limit)
	logger.Debugf("Table[%s]: cursor scan after %v: %s", spec.ID(), after, query)

	rows, err := p.client.QueryxContext(ctx, query, after)
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

func (p *Postgres) ScanAll(ctx context.Context, spec *types.TableSpec, limit int, onBatch abstract.BatchFn) error {
	query := jdbc.FullScanQuery(spec, constants.Postgres)
	logger.Debugf("Table[%s]: full scan: %s", spec.ID(), query)

	rows, err := p.client.QueryxContext(ctx, query)
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
