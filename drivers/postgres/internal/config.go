package driver

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/datazip-inc/icemirror/constants"
	"github.com/datazip-inc/icemirror/types"
	"github.com/datazip-inc/icemirror/utils"
)

type Config struct {
	Connection    *url.URL          `json:"-"`
	Host          string            `json:"host"`
	Port          int               `json:"port"`
	Database      string            `json:"database"`
	Username      string            `json:"username"`
	Password      string            `json:"password"`
	JDBCURLParams map[string]string `json:"jdbc_url_params"`
	SSLMode       string            `json:"ssl_mode"`
	RetryCount    int               `json:"retry_count"`
	Tables        []types.TableSpec `json:"tables"`
}

func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("empty host name")
	} else if strings.Contains(c.Host, "https") || strings.Contains(c.Host, "http") {
		return fmt.Errorf("host should not contain http or https")
	}

	// Validate port
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port number: must be between 1 and 65535")
	}

	if c.RetryCount <= 0 {
		c.RetryCount = constants.DefaultRetryCount
	}

	if err := types.ValidateTables(c.Tables); err != nil {
		return err
	}

	// Add the connection parameters to the url
	parsed := &url.URL{
		Scheme: "postgres",
		User:   utils.Ternary(c.Password != "", url.UserPassword(c.Username, c.Password), url.User(c.Username)).(*url.Userinfo),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   "/" + c.Database,
	}

	query := parsed.Query()
	for k, v := range c.JDBCURLParams {
		query.Add(k, v)
	}

	sslmode := utils.Ternary(c.SSLMode == "", "disable", c.SSLMode).(string)
	query.Add("sslmode", sslmode)

	parsed.RawQuery = query.Encode()
	c.Connection = parsed

	return nil
}
