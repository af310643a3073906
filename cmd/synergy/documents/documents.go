// Package documentscmder provides the documents command.
package documentscmder

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/synergyreader/synergy/cmd/synergy/backend"
	"github.com/synergyreader/synergy/pkg/cliui"
	"github.com/synergyreader/synergy/pkg/config"
)

const documentsShortDesc string = "List documents uploaded to the reading assistant"

func NewDocumentsCmd() *cobra.Command {
	var backendURL string
	var conn *backend.Conn

	cmd := &cobra.Command{
		Use:   "documents",
		Short: documentsShortDesc,
		Long:  documentsShortDesc + ".",
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

			docs, err := cl.Documents(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing documents: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(docs) == 0 {
				fmt.Fprintf(out, "\n  %s No documents uploaded.\n\n", cliui.DimStyle.Render("●"))
				return nil
			}

			fmt.Fprintf(out, "\n  %s\n\n", cliui.HeaderStyle.Render("Documents"))
			for _, d := range docs {
				fmt.Fprintf(out, "  %s  %s  %s\n",
					cliui.IDStyle.Render(fmt.Sprintf("#%-4d", d.ID)),
					cliui.NameStyle.Render(d.Filename),
					cliui.DimStyle.Render(fmt.Sprintf("%d chunks, uploaded %s", d.ChunksCount, d.UploadTimestamp)),
				)
			}
			fmt.Fprintln(out)
			return nil
		},
	}

	config.AddStringFlag(cmd, backend.Flags, config.FlagBackend, &backendURL)

	return cmd
}
