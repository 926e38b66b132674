package protocol

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/datazip-inc/icemirror/catalog"
	"github.com/datazip-inc/icemirror/constants"
	"github.com/datazip-inc/icemirror/replicate"
	"github.com/datazip-inc/icemirror/storage"
	"github.com/datazip-inc/icemirror/utils/logger"
)

// syncCmd runs one replication pass over all configured tables.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "sync command",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		if err := loadSourceConfig(); err != nil {
			return err
		}
		if err := loadDestinationConfig(); err != nil {
			return err
		}

		loaded, err := replicate.LoadState(viper.GetString(constants.StatePath))
		if err != nil {
			return err
		}
		state = loaded

		stateBytes, _ := state.MarshalJSON()
		logger.Infof("Running sync with state: %s", stateBytes)
		return nil
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		syncCtx := cmd.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			syncCtx, cancel = context.WithTimeout(syncCtx, time.Duration(timeout)*time.Second)
			defer cancel()
		}

		if err := connector.Setup(syncCtx); err != nil {
			return err
		}
		defer connector.Close()
		if err := connector.Check(syncCtx); err != nil {
			return err
		}

		store, err := storage.New(syncCtx, &destinationConfig.Store)
		if err != nil {
			return err
		}
		register, err := catalog.New(&destinationConfig.Catalog)
		if err != nil {
			return err
		}

		if batchSize > 0 {
			applyBatchSizeOverride(batchSize)
		}

		runner := replicate.NewRunner(connector, store, register, destinationConfig, state, viper.GetString(constants.StatePath))
		return runner.Sync(syncCtx)
	},
}

// applyBatchSizeOverride fills the CLI batch size into tables that do not
// pin their own.
func applyBatchSizeOverride(size int) {
	tables := connector.Tables()
	for idx := range tables {
		if tables[idx].BatchSize == 0 {
			tables[idx].BatchSize = size
		}
	}
}
