// Package marker parses the Synergy answer stream.
//
// The backend streams answer text as a plain chunked HTTP body and embeds
// control markers inline with the visible text:
//
//	__READY__                 stream initialisation, dropped
//	__ENTRY_ID__<digits>__    the exchange was persisted under <digits>
//	__CONTEXT__<json>__       retrieval metadata (chunks, citations, score)
//	__ERROR__<text>__         a backend failure reported mid-stream
//
// Markers may be split across any number of chunks. The Parser withholds
// bytes that could still begin a marker and never leaks marker text as an
// answer Token.
package marker

import "strings"

// Event is one meaningful unit of the answer stream. The concrete types are
// Token, EntryRecorded, ContextAttached and StreamError.
type Event interface {
	event()
}

// Token is a fragment of visible answer text.
type Token struct {
	Text string
}

// EntryRecorded reports that the backend persisted the exchange under ID.
type EntryRecorded struct {
	ID int64
}

// ContextAttached carries the raw JSON object of the __CONTEXT__ marker.
// The JSON is syntactically valid; its shape is decoded by consumers.
type ContextAttached struct {
	RawJSON string
}

// StreamError is a failure embedded in the stream, either reported by the
// backend through __ERROR__ or produced for a malformed marker.
type StreamError struct {
	Message string
}

func (Token) event()           {}
func (EntryRecorded) event()   {}
func (ContextAttached) event() {}
func (StreamError) event()     {}

// Compile-time checks.
var (
	_ Event = Token{}
	_ Event = EntryRecorded{}
	_ Event = ContextAttached{}
	_ Event = StreamError{}
)

// Coalesce merges adjacent Token events. The parser emits tokens as soon as
// they are known to be visible text, so the token boundaries depend on how
// the stream was chunked; the coalesced sequence does not.
func Coalesce(events []Event) []Event {
	out := make([]Event, 0, len(events))
	var pending strings.Builder
	hasPending := false

	for _, ev := range events {
		if tok, ok := ev.(Token); ok {
			pending.WriteString(tok.Text)
			hasPending = true
			continue
		}
		if hasPending {
			out = append(out, Token{Text: pending.String()})
			pending.Reset()
			hasPending = false
		}
		out = append(out, ev)
	}
	if hasPending {
		out = append(out, Token{Text: pending.String()})
	}

	return out
}

// Text concatenates the text of every Token in events.
func Text(events []Event) string {
	var b strings.Builder
	for _, ev := range events {
		if tok, ok := ev.(Token); ok {
			b.WriteString(tok.Text)
		}
	}
	return b.String()
}
