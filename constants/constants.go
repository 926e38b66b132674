package constants

import (
	"time"
)

const (
	DefaultBatchSize     = 10000
	DefaultRetryCount    = 3
	DefaultCommitRetries = 5
	DefaultRetryTimeout  = time.Second
	DefaultBatchTimeout  = 5 * time.Minute
	DefaultCommitTimeout = time.Minute

	ParquetFileExt = "parquet"

	// DefaultEncodeWorkers bounds concurrent encode/upload tasks per table.
	DefaultEncodeWorkers = 4

	// TableFormatVersion is the Iceberg format-version written into table metadata.
	TableFormatVersion = 2
	InitialSchemaID    = 0
	// FirstFieldID is the lowest field id handed out to user columns.
	FirstFieldID = 1

	ConfigFolder = "CONFIG_FOLDER"
	StatePath    = "STATE_PATH"
)

type DriverType string

const (
	Postgres DriverType = "postgres"
	MySQL    DriverType = "mysql"
)

var RelationalDrivers = []DriverType{Postgres, MySQL}
