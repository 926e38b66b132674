package protocol

import (
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/datazip-inc/icemirror/types"
	"github.com/datazip-inc/icemirror/utils/logger"
)

// specCmd prints skeleton source and destination configs for the bound
// driver.
var specCmd = &cobra.Command{
	Use:   "spec",
	Short: "spec command",
	RunE: func(_ *cobra.Command, _ []string) error {
		spec := map[string]any{
			"driver": connector.Type(),
			"source": connector.GetConfigRef(),
			"destination": types.DestinationConfig{
				Store:   types.StoreConfig{Type: "local", Path: "/data/warehouse"},
				Catalog: types.CatalogConfig{Type: "file", Path: "/data/warehouse/catalog.json"},
			},
			"tables": []types.TableSpec{
				{
					Namespace: "public",
					Name:      "orders",
					Cursor:    &types.CursorSpec{Field: "updated_at", Operator: ">"},
				},
			},
		}

		rendered, err := json.MarshalIndent(spec, "", "  ")
		if err != nil {
			return err
		}
		logger.Info(string(rendered))
		return nil
	},
}
