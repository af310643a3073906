// Package pingcmder provides the ping command.
package pingcmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/synergyreader/synergy/cmd/synergy/backend"
	"github.com/synergyreader/synergy/pkg/cliui"
	"github.com/synergyreader/synergy/pkg/config"
)

func NewPingCmd() *cobra.Command {
	var backendURL string
	var conn *backend.Conn

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Check that the reading assistant is reachable",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			conn, err = backend.Resolve(cmd, backend.Flags, config.FlagBackend)
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cl, err := conn.Client()
			if err != nil {
				return err
			}

			var msg string
			err = cliui.Step(cmd.OutOrStdout(), "Pinging "+conn.BackendURL(), func() error {
				var err error
				msg, err = cl.Ping(cmd.Context())
				return err
			})
			if err != nil {
				return fmt.Errorf("backend unreachable: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", cliui.DimStyle.Render(msg))
			return nil
		},
	}

	config.AddStringFlag(cmd, backend.Flags, config.FlagBackend, &backendURL)

	return cmd
}
