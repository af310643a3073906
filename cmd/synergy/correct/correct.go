// Package correctcmder provides the correct command for proposing a better
// answer.
package correctcmder

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/synergyreader/synergy/cmd/synergy/backend"
	"github.com/synergyreader/synergy/pkg/client"
	"github.com/synergyreader/synergy/pkg/cliui"
	"github.com/synergyreader/synergy/pkg/config"
)

const correctLongDesc string = `Submit a corrected answer for an exchange.

The corrected answer is given with --answer, or read from stdin when
--answer is "-". Corrections are collected by the backend and used the
next time an administrator trains the model.

Examples:
  synergy correct 42 --answer "The clause only applies to resellers."
  synergy correct last --answer - < fixed.md`

const correctShortDesc string = "Submit a corrected answer"

func NewCorrectCmd() *cobra.Command {
	var (
		backendURL string
		corrected  string
		comment    string
		conn       *backend.Conn
	)

	cmd := &cobra.Command{
		Use:   "correct <entry-id|last>",
		Short: correctShortDesc,
		Long:  correctLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			conn, err = backend.Resolve(cmd, backend.Flags, config.FlagBackend)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := conn.EntryID(args[0])
			if err != nil {
				return err
			}

			if corrected == "-" {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
				corrected = string(data)
			}
			corrected = strings.TrimSpace(corrected)
			if corrected == "" {
				return errors.New("a corrected answer is required (--answer)")
			}

			cl, err := conn.Client()
			if err != nil {
				return err
			}

			_, err = cl.SubmitCorrection(cmd.Context(), &client.CorrectionRequest{
				ChatID:          id,
				CorrectedAnswer: corrected,
				Comment:         comment,
			})
			if err != nil {
				return fmt.Errorf("submitting correction for entry %d: %w", id, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n  %s Correction submitted for entry %s\n\n",
				cliui.SuccessMark,
				cliui.IDStyle.Render(fmt.Sprintf("%d", id)),
			)
			return nil
		},
	}

	config.AddStringFlag(cmd, backend.Flags, config.FlagBackend, &backendURL)
	cmd.Flags().StringVar(&corrected, "answer", "", `Corrected answer ("-" reads stdin)`)
	cmd.Flags().StringVarP(&comment, "comment", "c", "", "Optional note for reviewers")

	return cmd
}
