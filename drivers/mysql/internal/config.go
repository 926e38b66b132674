package driver

import (
	"fmt"
	"strings"

	"github.com/datazip-inc/icemirror/constants"
	"github.com/datazip-inc/icemirror/types"
)

type Config struct {
	Host       string            `json:"host"`
	Port       int               `json:"port"`
	Database   string            `json:"database"`
	Username   string            `json:"username"`
	Password   string            `json:"password"`
	TLSMode    string            `json:"tls_mode"`
	RetryCount int               `json:"retry_count"`
	Tables     []types.TableSpec `json:"tables"`
}

func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("empty host name")
	} else if strings.Contains(c.Host, "https") || strings.Contains(c.Host, "http") {
		return fmt.Errorf("host should not contain http or https")
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port number: must be between 1 and 65535")
	}

	if c.RetryCount <= 0 {
		c.RetryCount = constants.DefaultRetryCount
	}

	return types.ValidateTables(c.Tables)
}

// DSN builds the go-sql-driver connection string.
func (c *Config) DSN() string {
	tls := c.TLSMode
	if tls == "" {
		tls = "false"
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&tls=%s",
		c.Username, c.Password, c.Host, c.Port, c.Database, tls)
}
