// Package configcmder provides the config command for managing persistent
// synergy configuration stored in the .synergy/ directory.
package configcmder

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/synergyreader/synergy/pkg/config"
)

const configShortDesc string = "Manage persistent synergy configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long: `Manage persistent synergy configuration.

Configuration is stored as config.toml in the .synergy/ directory and
provides default values for command flags. SYNERGY_* environment variables
override the file, and CLI flags override both.

Keys use dotted notation matching the TOML section structure:
  ` + strings.Join(config.ValidConfigKeys(), ",\n  ") + `

Examples:
  synergy config set client.backend_url http://reader.internal:5000
  synergy config set eventstream.brokers kafka-1:9092,kafka-2:9092
  synergy config get client.model
  synergy config list`,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}
