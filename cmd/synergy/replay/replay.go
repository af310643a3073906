// Package replaycmder provides the replay command, which parses a captured
// answer stream offline.
package replaycmder

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/synergyreader/synergy/pkg/answer"
	"github.com/synergyreader/synergy/pkg/cliui"
	"github.com/synergyreader/synergy/pkg/marker"
)

type replayCommander struct {
	chunk    int
	coalesce bool
	answer   bool
}

const replayLongDesc string = `Parse a captured answer stream and print its events.

A stream captured with "synergy ask --raw" (or any copy of a /ask response
body) is fed through the same parser the live client uses. --chunk feeds
the file in fixed-size pieces to reproduce how a network splits a stream;
the events, once coalesced, do not depend on the chunk size.

Examples:
  synergy replay answer.stream
  synergy replay answer.stream --chunk 1 --coalesce
  synergy replay answer.stream --answer`

const replayShortDesc string = "Parse a captured answer stream"

func NewReplayCmd() *cobra.Command {
	cmder := &replayCommander{}

	cmd := &cobra.Command{
		Use:   "replay <file>",
		Short: replayShortDesc,
		Long:  replayLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmder.chunk < 0 {
				return errors.New("--chunk must not be negative")
			}
			return cmder.run(cmd.OutOrStdout(), args[0])
		},
	}

	cmd.Flags().IntVar(&cmder.chunk, "chunk", 0, "Feed the stream in chunks of this many bytes (0 reads freely)")
	cmd.Flags().BoolVar(&cmder.coalesce, "coalesce", false, "Merge adjacent text tokens")
	cmd.Flags().BoolVar(&cmder.answer, "answer", false, "Print the folded answer instead of the events")

	return cmd
}

func (c *replayCommander) run(out io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening stream: %w", err)
	}
	defer f.Close()

	var src io.Reader = f
	if c.chunk > 0 {
		src = &chunkReader{r: f, size: c.chunk}
	}

	events, err := marker.NewTeeReader(src, nil).Drain()
	if err != nil {
		return fmt.Errorf("reading stream: %w", err)
	}

	if c.answer {
		s := answer.New("")
		for _, ev := range events {
			s = answer.Reduce(s, ev)
		}
		s = answer.Finish(s)

		fmt.Fprintln(out, s.Answer())
		cliui.PrintAnswerFooter(out, s)
		return nil
	}

	if c.coalesce {
		events = marker.Coalesce(events)
	}
	for _, ev := range events {
		fmt.Fprintln(out, describe(ev))
	}
	fmt.Fprintf(out, "\n  %s\n", cliui.DimStyle.Render(fmt.Sprintf("%d events", len(events))))

	return nil
}

func describe(ev marker.Event) string {
	switch e := ev.(type) {
	case marker.Token:
		return fmt.Sprintf("%s %q", cliui.KeyStyle.Render("token  "), e.Text)
	case marker.EntryRecorded:
		return fmt.Sprintf("%s %s", cliui.KeyStyle.Render("entry  "), cliui.IDStyle.Render(fmt.Sprintf("%d", e.ID)))
	case marker.ContextAttached:
		return fmt.Sprintf("%s %s", cliui.KeyStyle.Render("context"), e.RawJSON)
	case marker.StreamError:
		return fmt.Sprintf("%s %s", cliui.WarnStyle.Render("error  "), e.Message)
	}
	return fmt.Sprintf("%T", ev)
}

// chunkReader returns at most size bytes per Read.
type chunkReader struct {
	r    io.Reader
	size int
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if len(p) > c.size {
		p = p[:c.size]
	}
	return c.r.Read(p)
}
