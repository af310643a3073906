// Package admincmder provides the admin command for reviewing feedback and
// training the model.
package admincmder

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/synergyreader/synergy/cmd/synergy/backend"
	"github.com/synergyreader/synergy/pkg/client"
	"github.com/synergyreader/synergy/pkg/cliui"
	"github.com/synergyreader/synergy/pkg/config"
	"github.com/synergyreader/synergy/pkg/utils"
)

const adminLongDesc string = `Administrative commands. These require a session for an account with
admin rights on the backend.

Examples:
  synergy admin ratings
  synergy admin stats
  synergy admin train`

func NewAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Review feedback and train the model",
		Long:  adminLongDesc,
	}

	cmd.AddCommand(newRatingsCmd())
	cmd.AddCommand(newStatsCmd())
	cmd.AddCommand(newTrainCmd())

	return cmd
}

// adminCmd builds a subcommand that resolves a signed-in client before run.
func adminCmd(use, short string, run func(*cobra.Command, *client.Client) error) *cobra.Command {
	var backendURL string
	var conn *backend.Conn

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			conn, err = backend.Resolve(cmd, backend.Flags, config.FlagBackend)
			if err != nil {
				return err
			}
			_, err = conn.RequireToken()
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cl, err := conn.Client()
			if err != nil {
				return err
			}
			return run(cmd, cl)
		},
	}

	config.AddStringFlag(cmd, backend.Flags, config.FlagBackend, &backendURL)

	return cmd
}

func newRatingsCmd() *cobra.Command {
	return adminCmd("ratings", "List every rated answer", func(cmd *cobra.Command, cl *client.Client) error {
		ratings, err := cl.AdminRatings(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing ratings: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(ratings) == 0 {
			fmt.Fprintf(out, "\n  %s No ratings yet.\n\n", cliui.DimStyle.Render("●"))
			return nil
		}

		fmt.Fprintf(out, "\n  %s\n\n", cliui.HeaderStyle.Render("Ratings"))
		for _, r := range ratings {
			fmt.Fprintf(out, "  %s  %s  %s  %s\n",
				cliui.IDStyle.Render(fmt.Sprintf("#%-4d", r.ID)),
				cliui.Stars(r.Rating),
				cliui.NameStyle.Render(r.Username),
				cliui.DimStyle.Render(r.Timestamp),
			)
			fmt.Fprintf(out, "         %s\n", utils.Truncate(utils.OneLine(r.Question), 100))
			if r.Comment != "" {
				fmt.Fprintf(out, "         %s\n", cliui.DimStyle.Render("“"+utils.Truncate(utils.OneLine(r.Comment), 96)+"”"))
			}
		}
		fmt.Fprintln(out)
		return nil
	})
}

func newStatsCmd() *cobra.Command {
	return adminCmd("stats", "Show aggregate rating statistics", func(cmd *cobra.Command, cl *client.Client) error {
		stats, err := cl.AdminRatingStats(cmd.Context())
		if err != nil {
			return fmt.Errorf("loading rating stats: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "\n  %s\n\n", cliui.HeaderStyle.Render("Rating statistics"))
		fmt.Fprintf(out, "  %s %s\n", cliui.KeyStyle.Render("total:"), cliui.ValueStyle.Render(strconv.Itoa(stats.TotalRatings)))
		fmt.Fprintf(out, "  %s %s\n\n", cliui.KeyStyle.Render("average:"), cliui.ValueStyle.Render(fmt.Sprintf("%.2f", stats.AverageRating)))

		stars := make([]string, 0, len(stats.Distribution))
		for k := range stats.Distribution {
			stars = append(stars, k)
		}
		sort.Sort(sort.Reverse(sort.StringSlice(stars)))

		for _, k := range stars {
			n, err := strconv.Atoi(k)
			if err != nil {
				continue
			}
			fmt.Fprintf(out, "  %s  %d\n", cliui.Stars(n), stats.Distribution[k])
		}
		fmt.Fprintln(out)
		return nil
	})
}

func newTrainCmd() *cobra.Command {
	return adminCmd("train", "Fine-tune the model on collected feedback", func(cmd *cobra.Command, cl *client.Client) error {
		var resp *client.StatusResponse
		err := cliui.Step(cmd.OutOrStdout(), "Training model", func() error {
			var err error
			resp, err = cl.TrainModel(cmd.Context())
			return err
		})
		if err != nil {
			return fmt.Errorf("training model: %w", err)
		}

		if resp.Message != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", cliui.DimStyle.Render(resp.Message))
		}
		return nil
	})
}
