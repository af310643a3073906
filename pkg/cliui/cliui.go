// Package cliui holds the styles and small output helpers shared by the
// synergy commands.
package cliui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	SuccessMark  = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Render("✓")
	FailMark     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("✗")
	StepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
)

// Text styles shared by command output.
var (
	HeaderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Bold(true)
	KeyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("111"))
	ValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	NameStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	DimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	WarnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	ErrorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	IDStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("180"))
	starStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
)

// Step runs fn behind a spinner line and then rewrites the line with a mark,
// msg and the elapsed time. The spinner only animates when w is a terminal;
// elsewhere just the result line is written.
func Step(w io.Writer, msg string, fn func() error) error {
	stop := func() {}
	if isTerminal(w) {
		stop = spin(w, msg)
	}

	start := time.Now()
	err := fn()
	stop()

	fmt.Fprintf(w, "\r  %s %s %s\n", Mark(err), msg,
		StepStyle.Render("("+FormatDuration(time.Since(start))+")"))
	return err
}

// spin animates spinner.Dot, the same spinner `ask --tui` shows, until the
// returned func is called. The func returns once the last frame is written.
func spin(w io.Writer, msg string) func() {
	s := spinner.Dot
	done := make(chan struct{})
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)
		ticker := time.NewTicker(s.FPS)
		defer ticker.Stop()

		for frame := 0; ; frame++ {
			fmt.Fprintf(w, "\r  %s %s", spinnerStyle.Render(s.Frames[frame%len(s.Frames)]), msg)
			select {
			case <-done:
				return
			case <-ticker.C:
			}
		}
	}()

	return func() {
		close(done)
		<-stopped
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Mark returns a ✓ for nil errors or ✗ for non-nil errors.
func Mark(err error) string {
	if err != nil {
		return FailMark
	}
	return SuccessMark
}

// FormatDuration formats a duration for display (e.g. "12ms" or "3.2s").
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// Stars renders a 1-5 rating as filled and empty stars. Zero renders as
// "unrated".
func Stars(rating int) string {
	if rating <= 0 {
		return DimStyle.Render("unrated")
	}
	rating = min(rating, 5)
	return starStyle.Render(strings.Repeat("★", rating)) + DimStyle.Render(strings.Repeat("☆", 5-rating))
}

// RenderMarkdown renders an answer for the terminal, wrapped at 80 columns.
// On failure the input is returned unchanged along with the error, so
// callers can still print something.
func RenderMarkdown(content string) (string, error) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(80))
	if err == nil {
		var out string
		if out, err = r.Render(content); err == nil {
			return out, nil
		}
	}
	return content, err
}
