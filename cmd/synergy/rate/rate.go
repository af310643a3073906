// Package ratecmder provides the rate command for giving feedback on an answer.
package ratecmder

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/synergyreader/synergy/cmd/synergy/backend"
	"github.com/synergyreader/synergy/pkg/client"
	"github.com/synergyreader/synergy/pkg/cliui"
	"github.com/synergyreader/synergy/pkg/config"
	"github.com/synergyreader/synergy/pkg/storage"
)

const rateLongDesc string = `Rate an answer from 1 to 5 stars.

The entry id is the one printed after an answer. "last" rates the most
recent answer from "synergy ask".

Examples:
  synergy rate 42 5
  synergy rate last 2 --comment "cited the wrong section"`

const rateShortDesc string = "Rate an answer from 1 to 5 stars"

func NewRateCmd() *cobra.Command {
	var (
		backendURL string
		comment    string
		conn       *backend.Conn
	)

	cmd := &cobra.Command{
		Use:   "rate <entry-id|last> <1-5>",
		Short: rateShortDesc,
		Long:  rateLongDesc,
		Args:  cobra.ExactArgs(2),
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

			rating, err := strconv.Atoi(args[1])
			if err != nil || !storage.ValidRating(rating) {
				return fmt.Errorf("rating must be a whole number from %d to %d", storage.MinRating, storage.MaxRating)
			}

			cl, err := conn.Client()
			if err != nil {
				return err
			}

			if _, err := cl.Rate(cmd.Context(), &client.RatingRequest{ID: id, Rating: rating, Comment: comment}); err != nil {
				return fmt.Errorf("rating entry %d: %w", id, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\n  %s Rated entry %s %s\n\n",
				cliui.SuccessMark,
				cliui.IDStyle.Render(fmt.Sprintf("%d", id)),
				cliui.Stars(rating),
			)
			return nil
		},
	}

	config.AddStringFlag(cmd, backend.Flags, config.FlagBackend, &backendURL)
	cmd.Flags().StringVarP(&comment, "comment", "c", "", "Optional comment explaining the rating")

	return cmd
}
