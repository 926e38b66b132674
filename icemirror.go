package icemirror

import (
	"github.com/datazip-inc/icemirror/drivers/abstract"
	"github.com/datazip-inc/icemirror/protocol"
	"github.com/datazip-inc/icemirror/utils/logger"
)

// RegisterDriver binds a source driver to the CLI and runs it.
func RegisterDriver(driver abstract.Driver) {
	root := protocol.CreateRootCommand(driver)
	if err := root.Execute(); err != nil {
		logger.Fatal(err)
	}
}
