package protocol

import (
	"github.com/spf13/cobra"

	"github.com/datazip-inc/icemirror/catalog"
	"github.com/datazip-inc/icemirror/storage"
	"github.com/datazip-inc/icemirror/utils/logger"
)

// checkCmd validates source connectivity and that every configured table
// exists; with --destination it also validates the store and catalog.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "check command",
	PreRunE: func(_ *cobra.Command, _ []string) error {
		if err := loadSourceConfig(); err != nil {
			return err
		}
		if destinationConfigPath != "not-set" {
			return loadDestinationConfig()
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := connector.Setup(cmd.Context()); err != nil {
			return err
		}
		defer connector.Close()

		if err := connector.Check(cmd.Context()); err != nil {
			return err
		}
		logger.Infof("Connection check passed for %s source, %d tables visible", connector.Type(), len(connector.Tables()))

		if destinationConfig != nil {
			if _, err := storage.New(cmd.Context(), &destinationConfig.Store); err != nil {
				return err
			}
			if _, err := catalog.New(&destinationConfig.Catalog); err != nil {
				return err
			}
			logger.Infof("Destination check passed (%s store, %s catalog)", destinationConfig.Store.Type, destinationConfig.Catalog.Type)
		}
		return nil
	},
}
