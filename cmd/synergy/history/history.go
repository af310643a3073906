// Package historycmder provides the history command, listing past questions
// either from the backend or from the local recording store.
package historycmder

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/synergyreader/synergy/cmd/synergy/backend"
	"github.com/synergyreader/synergy/pkg/cliui"
	"github.com/synergyreader/synergy/pkg/config"
	"github.com/synergyreader/synergy/pkg/storage"
	"github.com/synergyreader/synergy/pkg/utils"
)

type historyCommander struct {
	backendURL string
	apiTarget  string
	local      bool
	search     string
	limit      int

	conn *backend.Conn
	out  io.Writer
}

const historyLongDesc string = `List past questions and answers.

By default the signed-in user's history is fetched from the backend.
With --local, the exchanges recorded by a running "synergy serve" are
listed from its API instead; no sign-in is needed. --search runs a
keyword search over the recorded exchanges.

Examples:
  synergy history
  synergy history --local --limit 20
  synergy history --search indemnity`

const historyShortDesc string = "List past questions and answers"

func NewHistoryCmd() *cobra.Command {
	cmder := &historyCommander{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: historyShortDesc,
		Long:  historyLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.conn, err = backend.Resolve(cmd, backend.Flags, config.FlagBackend, config.FlagAPITarget)
			return err
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.out = cmd.OutOrStdout()
			if cmder.search != "" {
				return cmder.runSearch(cmd.Context())
			}
			if cmder.local {
				return cmder.runLocal(cmd.Context())
			}
			return cmder.runRemote(cmd.Context())
		},
	}

	config.AddStringFlag(cmd, backend.Flags, config.FlagBackend, &cmder.backendURL)
	config.AddStringFlag(cmd, backend.Flags, config.FlagAPITarget, &cmder.apiTarget)
	cmd.Flags().BoolVar(&cmder.local, "local", false, "List exchanges recorded by the local gateway")
	cmd.Flags().StringVarP(&cmder.search, "search", "q", "", "Keyword search over locally recorded exchanges")
	cmd.Flags().IntVarP(&cmder.limit, "limit", "n", 20, "Maximum number of local entries")

	return cmd
}

func (c *historyCommander) runRemote(ctx context.Context) error {
	if _, err := c.conn.RequireToken(); err != nil {
		return err
	}

	cl, err := c.conn.Client()
	if err != nil {
		return err
	}

	items, err := cl.History(ctx)
	if err != nil {
		return fmt.Errorf("fetching history: %w", err)
	}

	if len(items) == 0 {
		fmt.Fprintf(c.out, "\n  %s No history yet.\n\n", cliui.DimStyle.Render("●"))
		return nil
	}

	fmt.Fprintf(c.out, "\n  %s\n\n", cliui.HeaderStyle.Render("History"))
	for _, item := range items {
		c.printItem(item.ID, item.Timestamp, item.Question, item.Answer, "")
	}
	return nil
}

func (c *historyCommander) runLocal(ctx context.Context) error {
	list, err := backend.ListLocal(ctx, c.conn.APITarget(), c.limit)
	if err != nil {
		return err
	}

	if list.Count == 0 {
		fmt.Fprintf(c.out, "\n  %s No recorded exchanges.\n\n", cliui.DimStyle.Render("●"))
		return nil
	}

	fmt.Fprintf(c.out, "\n  %s %s\n\n",
		cliui.HeaderStyle.Render("Recorded exchanges"),
		cliui.DimStyle.Render(fmt.Sprintf("(%d)", list.Count)),
	)
	for _, e := range list.Entries {
		c.printItem(e.ID, e.CreatedAt.Local().Format(time.DateTime), e.Question, e.Answer, localDetail(e))
	}
	return nil
}

func (c *historyCommander) runSearch(ctx context.Context) error {
	out, err := backend.SearchLocal(ctx, c.conn.APITarget(), c.search, c.limit)
	if err != nil {
		return err
	}

	if out.Count == 0 {
		fmt.Fprintf(c.out, "\n  %s No recorded exchanges match %q.\n\n", cliui.DimStyle.Render("●"), out.Query)
		return nil
	}

	fmt.Fprintf(c.out, "\n  %s %s\n\n",
		cliui.HeaderStyle.Render("Matches for "+out.Query),
		cliui.DimStyle.Render(fmt.Sprintf("(%d)", out.Count)),
	)
	for _, r := range out.Results {
		detail := ""
		if r.Rating != nil {
			detail = cliui.Stars(*r.Rating)
		}
		detail += " " + cliui.DimStyle.Render("in "+strings.Join(r.Matched, ", "))
		c.printItem(r.ID, r.CreatedAt.Local().Format(time.DateTime), r.Question, r.Preview, detail)
	}
	return nil
}

func (c *historyCommander) printItem(id int64, when, question, ans, detail string) {
	fmt.Fprintf(c.out, "  %s  %s %s\n",
		cliui.IDStyle.Render(fmt.Sprintf("#%d", id)),
		cliui.DimStyle.Render(when),
		detail,
	)
	fmt.Fprintf(c.out, "  %s %s\n", cliui.KeyStyle.Render("Q:"), cliui.ValueStyle.Render(utils.Truncate(utils.OneLine(question), 100)))
	fmt.Fprintf(c.out, "  %s %s\n\n", cliui.KeyStyle.Render("A:"), cliui.DimStyle.Render(utils.Truncate(utils.OneLine(ans), 100)))
}

func localDetail(e *storage.Entry) string {
	detail := ""
	if e.Rating != nil {
		detail = cliui.Stars(*e.Rating)
	}
	if e.BackendID != nil {
		detail += " " + cliui.DimStyle.Render(fmt.Sprintf("backend #%d", *e.BackendID))
	}
	if len(e.Errors) > 0 {
		detail += " " + cliui.WarnStyle.Render("!")
	}
	return detail
}
