package cliui

import (
	"fmt"
	"io"
	"strings"

	"github.com/synergyreader/synergy/pkg/answer"
)

// PrintAnswerFooter prints what the stream reported besides the answer text:
// the recorded entry id, cited sources and any stream errors.
func PrintAnswerFooter(w io.Writer, s answer.State) {
	fmt.Fprintln(w)

	if s.EntryID != nil {
		fmt.Fprintf(w, "  %s %s %s\n",
			Mark(nil),
			KeyStyle.Render("Entry:"),
			IDStyle.Render(fmt.Sprintf("%d", *s.EntryID)),
		)
	}

	if cites := s.Citations(); len(cites) > 0 {
		fmt.Fprintf(w, "  %s %s\n",
			KeyStyle.Render("Sources:"),
			ValueStyle.Render(strings.Join(cites, ", ")),
		)
	}

	if s.Context != nil && s.Context.SimilarityScore != nil {
		fmt.Fprintf(w, "  %s %s\n",
			KeyStyle.Render("Similarity:"),
			DimStyle.Render(fmt.Sprintf("%.3f", *s.Context.SimilarityScore)),
		)
	}

	for _, e := range s.Errors {
		fmt.Fprintf(w, "  %s %s\n", WarnStyle.Render("!"), ErrorStyle.Render(e))
	}
}
