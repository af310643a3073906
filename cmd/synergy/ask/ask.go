// Package askcmder provides the ask command, which streams an answer about
// selected text from the reading assistant.
package askcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/synergyreader/synergy/cmd/synergy/backend"
	"github.com/synergyreader/synergy/pkg/answer"
	"github.com/synergyreader/synergy/pkg/client"
	"github.com/synergyreader/synergy/pkg/cliui"
	"github.com/synergyreader/synergy/pkg/config"
	"github.com/synergyreader/synergy/pkg/dotdir"
	"github.com/synergyreader/synergy/pkg/extract"
	"github.com/synergyreader/synergy/pkg/marker"
)

type askCommander struct {
	backendURL string
	model      string
	selected   string
	file       string
	rawPath    string
	render     bool
	tui        bool

	conn *backend.Conn
	out  io.Writer
}

const askLongDesc string = `Ask a question about a passage of text.

The passage is given with --selected, or read from a document with --file
(PDF, DOCX, TXT or JSON; "-" reads stdin). The answer streams to the
terminal as the model generates it. Entry id, cited sources and any errors
the backend reports mid-stream are printed once the answer completes.

The entry id of the answer is remembered so it can be rated or corrected
with "last":
  synergy rate last 5

Examples:
  synergy ask "What does this clause mean?" --selected "$(pbpaste)"
  synergy ask "Summarise section 2" --file contract.pdf --render
  synergy ask "Explain" -s "..." --raw answer.stream
  synergy ask "Explain" -s "..." --tui`

const askShortDesc string = "Ask a question about selected text"

func NewAskCmd() *cobra.Command {
	cmder := &askCommander{}

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: askShortDesc,
		Long:  askLongDesc,
		Args:  cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.conn, err = backend.Resolve(cmd, backend.Flags, config.FlagBackend, config.FlagModel)
			if err != nil {
				return err
			}

			if cmder.selected != "" && cmder.file != "" {
				return errors.New("use either --selected or --file, not both")
			}
			if cmder.tui && cmder.rawPath != "" {
				return errors.New("--raw cannot be combined with --tui")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.out = cmd.OutOrStdout()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return cmder.run(ctx, cmd.InOrStdin(), strings.Join(args, " "))
		},
	}

	config.AddStringFlag(cmd, backend.Flags, config.FlagBackend, &cmder.backendURL)
	config.AddStringFlag(cmd, backend.Flags, config.FlagModel, &cmder.model)
	cmd.Flags().StringVarP(&cmder.selected, "selected", "s", "", "Selected text the question is about")
	cmd.Flags().StringVarP(&cmder.file, "file", "f", "", `Document to use as the selected text ("-" for stdin)`)
	cmd.Flags().StringVar(&cmder.rawPath, "raw", "", "Write the raw answer stream, markers included, to this file")
	cmd.Flags().BoolVar(&cmder.render, "render", false, "Render the finished answer as markdown instead of streaming it")
	cmd.Flags().BoolVar(&cmder.tui, "tui", false, "Show the answer in an interactive terminal view")

	return cmd
}

func (c *askCommander) run(ctx context.Context, stdin io.Reader, question string) error {
	selected, err := c.selectedText(stdin)
	if err != nil {
		return err
	}

	cl, err := c.conn.Client()
	if err != nil {
		return err
	}

	req := &client.AskRequest{
		SelectedText: selected,
		Question:     question,
		Model:        c.conn.Viper.GetString("client.model"),
	}

	var raw io.Writer
	if c.rawPath != "" {
		f, err := os.Create(c.rawPath)
		if err != nil {
			return fmt.Errorf("creating raw stream file: %w", err)
		}
		defer f.Close()
		raw = f
	}

	stream, err := cl.Ask(ctx, req, raw)
	if err != nil {
		return fmt.Errorf("could not get answer from backend: %w", err)
	}
	defer stream.Close()

	var state answer.State
	if c.tui {
		state, err = runTUI(ctx, stream, question)
	} else {
		state, err = c.stream(ctx, stream, question)
	}
	if err != nil {
		return err
	}

	return c.remember(state, req.Model)
}

// stream prints tokens as they arrive, or renders the whole answer once it
// is complete when --render is set.
func (c *askCommander) stream(ctx context.Context, src answer.Source, question string) (answer.State, error) {
	s := answer.New(question)

	collect := func() error {
		for {
			if err := ctx.Err(); err != nil {
				return err
			}

			ev, err := src.Next()
			if err != nil {
				s = answer.Reduce(s, marker.StreamError{Message: "answer stream interrupted: " + err.Error()})
				return nil
			}
			if ev == nil {
				return nil
			}

			s = answer.Reduce(s, ev)
			if tok, ok := ev.(marker.Token); ok && !c.render {
				fmt.Fprint(c.out, tok.Text)
			}
		}
	}

	var err error
	if c.render {
		err = cliui.Step(c.out, "Thinking", collect)
	} else {
		err = collect()
	}
	s = answer.Finish(s)
	if err != nil {
		return s, err
	}

	if c.render {
		rendered, rerr := cliui.RenderMarkdown(s.Answer())
		if rerr != nil {
			c.conn.Logger.Debug("markdown rendering failed", "error", rerr)
		}
		fmt.Fprint(c.out, rendered)
	} else {
		fmt.Fprintln(c.out)
	}

	cliui.PrintAnswerFooter(c.out, s)
	return s, nil
}

func (c *askCommander) selectedText(stdin io.Reader) (string, error) {
	switch {
	case c.file == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil

	case c.file != "":
		text, err := extract.File(c.file)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", c.file, err)
		}
		return text, nil
	}

	if strings.TrimSpace(c.selected) == "" {
		return "", errors.New("selected text is required (use --selected or --file)")
	}
	return c.selected, nil
}

// remember saves the entry id of the answer so "last" can refer to it.
func (c *askCommander) remember(s answer.State, model string) error {
	if s.EntryID == nil {
		return nil
	}

	err := dotdir.NewManager().SaveLastAsk(&dotdir.LastAsk{
		EntryID:  *s.EntryID,
		Question: s.Question,
		Model:    model,
		AskedAt:  time.Now().UTC(),
	}, c.conn.ConfigDir)
	if err != nil {
		c.conn.Logger.Warn("could not remember last answer", "error", err)
	}
	return nil
}
