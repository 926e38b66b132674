package protocol

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/datazip-inc/icemirror/constants"
	"github.com/datazip-inc/icemirror/drivers/abstract"
	"github.com/datazip-inc/icemirror/types"
	"github.com/datazip-inc/icemirror/utils"
	"github.com/datazip-inc/icemirror/utils/logger"
)

var (
	configPath            string
	destinationConfigPath string
	statePath             string
	batchSize             int
	timeout               int64 // seconds, -1 means library defaults

	destinationConfig *types.DestinationConfig
	state             *types.State

	commands  = []*cobra.Command{}
	connector abstract.Driver
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "icemirror",
	Short: "root command",
	RunE: func(cmd *cobra.Command, args []string) error {
		viper.SetDefault(constants.ConfigFolder, os.TempDir())
		viper.SetDefault(constants.StatePath, filepath.Join(os.TempDir(), "state.json"))

		if configPath != "not-set" {
			configFolder := filepath.Dir(configPath)
			viper.Set(constants.ConfigFolder, configFolder)
			statePathEnv := utils.Ternary(statePath == "", filepath.Join(configFolder, "state.json"), statePath).(string)
			viper.Set(constants.StatePath, statePathEnv)
		} else if statePath != "" {
			viper.Set(constants.StatePath, statePath)
		}

		// logger uses CONFIG_FOLDER
		logger.Init()

		if len(args) == 0 {
			return cmd.Help()
		}

		if ok := utils.IsValidSubcommand(commands, args[0]); !ok {
			return fmt.Errorf("'%s' is an invalid command. Use 'icemirror --help' to display usage guide", args[0])
		}

		return nil
	},
}

// CreateRootCommand attaches the subcommands and binds the source driver.
func CreateRootCommand(driver abstract.Driver) *cobra.Command {
	RootCmd.AddCommand(commands...)
	connector = driver
	return RootCmd
}

func init() {
	commands = append(commands, specCmd, checkCmd, discoverCmd, syncCmd)
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "", "not-set", "(Required) Source config for connector")
	RootCmd.PersistentFlags().StringVarP(&destinationConfigPath, "destination", "", "not-set", "(Required) Destination config for connector")
	RootCmd.PersistentFlags().StringVarP(&statePath, "state", "", "", "(Optional) Checkpoint state file for connector")
	RootCmd.PersistentFlags().IntVarP(&batchSize, "batch-size", "", 0, "(Optional) Batch size override for tables without one")
	RootCmd.PersistentFlags().Int64VarP(&timeout, "timeout", "", -1, "(Optional) Timeout to override default timeouts (in seconds)")
	RootCmd.SilenceUsage = true
	RootCmd.SilenceErrors = true
}

// loadSourceConfig unmarshals --config into the connector's config struct.
func loadSourceConfig() error {
	if configPath == "not-set" {
		return fmt.Errorf("--config not passed")
	}
	return utils.UnmarshalFile(configPath, connector.GetConfigRef())
}

// loadDestinationConfig unmarshals and validates --destination.
func loadDestinationConfig() error {
	if destinationConfigPath == "not-set" {
		return fmt.Errorf("--destination not passed")
	}
	destinationConfig = &types.DestinationConfig{}
	if err := utils.UnmarshalFile(destinationConfigPath, destinationConfig); err != nil {
		return err
	}
	return destinationConfig.Validate()
}
