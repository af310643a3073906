// Package answer folds answer-stream events into the state shown to users
// and recorded by the gateway.
package answer

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/synergyreader/synergy/pkg/marker"
)

// State is the fold of one answer stream. States are values, but a chain of
// them shares one text buffer, so fold a chain from a single goroutine.
type State struct {
	Question string

	// text holds every Token in arrival order; see appendText.
	text    *transcript
	textLen int

	EntryID *int64

	// Context is the decoded __CONTEXT__ payload. RawContext keeps the JSON
	// as received, including when it could not be decoded.
	Context    *Context
	RawContext string

	Errors []string
	Tokens int
	Done   bool
}

// New returns the empty State for question.
func New(question string) State {
	return State{Question: question}
}

// Reduce applies ev to s and returns the new State. s is not modified.
func Reduce(s State, ev marker.Event) State {
	switch e := ev.(type) {
	case marker.Token:
		s = s.appendText(e.Text)
		s.Tokens++

	case marker.EntryRecorded:
		if s.EntryID != nil {
			return s.withError(fmt.Sprintf("duplicate entry id %d", e.ID))
		}
		id := e.ID
		s.EntryID = &id

	case marker.ContextAttached:
		if s.RawContext != "" {
			return s.withError("duplicate context")
		}
		s.RawContext = e.RawJSON
		c, err := ParseContext(e.RawJSON)
		if err != nil {
			return s.withError(fmt.Sprintf("could not decode context: %v", err))
		}
		s.Context = c

	case marker.StreamError:
		msg := e.Message
		if msg == "" {
			msg = "backend reported an error"
		}
		return s.withError(msg)
	}

	return s
}

// Finish marks the stream as complete.
func Finish(s State) State {
	s.Done = true
	return s
}

func (s State) withError(msg string) State {
	s.Errors = append(slices.Clip(s.Errors), msg)
	return s
}

// transcript is the byte buffer behind a chain of States. Each State sees
// only its first textLen bytes.
type transcript struct {
	b []byte
}

// appendText extends the text in place when s is the newest State of its
// chain, so folding a stream stays linear. An older State gets a copy
// first, leaving the newer States' text untouched.
func (s State) appendText(t string) State {
	if t == "" {
		return s
	}
	if s.text == nil || len(s.text.b) != s.textLen {
		b := make([]byte, s.textLen, max(2*s.textLen, 256)+len(t))
		if s.text != nil {
			copy(b, s.text.b[:s.textLen])
		}
		s.text = &transcript{b: b}
	}
	s.text.b = append(s.text.b, t...)
	s.textLen = len(s.text.b)
	return s
}

// Text returns every Token concatenated in arrival order.
func (s State) Text() string {
	if s.text == nil {
		return ""
	}
	return string(s.text.b[:s.textLen])
}

// Answer returns the answer text without the surrounding whitespace the
// backend puts around its markers.
func (s State) Answer() string {
	return strings.TrimSpace(s.Text())
}

// Failed reports whether any error was seen in the stream.
func (s State) Failed() bool {
	return len(s.Errors) > 0
}

// Citations returns the citation labels, if any context was attached.
func (s State) Citations() []string {
	if s.Context == nil {
		return nil
	}
	labels := make([]string, 0, len(s.Context.Citations))
	for _, c := range s.Context.Citations {
		if l := c.Label(); l != "" {
			labels = append(labels, l)
		}
	}
	return labels
}

// Source yields events until it returns nil, nil.
type Source interface {
	Next() (marker.Event, error)
}

// Collect drains src into a finished State. It stops early with ctx's error
// when ctx is cancelled between events.
func Collect(ctx context.Context, src Source, question string) (State, error) {
	s := New(question)
	for {
		if err := ctx.Err(); err != nil {
			return s, err
		}

		ev, err := src.Next()
		if err != nil {
			return s, err
		}
		if ev == nil {
			return Finish(s), nil
		}
		s = Reduce(s, ev)
	}
}
