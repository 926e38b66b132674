package protocol

import (
	"errors"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/datazip-inc/icemirror/iceberg"
	"github.com/datazip-inc/icemirror/utils/logger"
)

// discoverCmd introspects every configured table and prints the source
// schema together with the target schema it would translate to on a fresh
// table.
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "discover command",
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return loadSourceConfig()
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := connector.Setup(cmd.Context()); err != nil {
			return err
		}
		defer connector.Close()

		tables := connector.Tables()
		if len(tables) == 0 {
			return errors.New("no tables configured")
		}

		for idx := range tables {
			spec := &tables[idx]
			source, err := connector.Discover(cmd.Context(), spec)
			if err != nil {
				return err
			}
			translation, err := iceberg.Translate(source, nil)
			if err != nil {
				logger.Warnf("Table[%s]: not replicable: %s", spec.ID(), err)
				continue
			}
			rendered, err := json.MarshalIndent(translation.Schema, "", "  ")
			if err != nil {
				return err
			}
			logger.Infof("Table[%s] -> %s:\n%s", spec.ID(), spec.TargetID(), rendered)
		}
		return nil
	},
}
