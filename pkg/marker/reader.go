package marker

import (
	"errors"
	"io"
)

const readBufferSize = 4 * 1024

// TeeReader reads answer-stream Events from a source io.Reader while
// simultaneously writing all raw bytes verbatim to a destination io.Writer.
//
// ┌──────────────────┐
// │ source io.Reader │
// └──────────────────┘
// │
// ▼
// ┌──────────────────┐   ┌───────────────────────┐
// │ TeeReader.Next() │──▶│ destination io.Writer │
// └──────────────────┘   └───────────────────────┘
// │
// ▼
// ┌──────────────────┐
// │      Event       │
// └──────────────────┘
//
// The destination receives the exact upstream bytes, markers included, so a
// downstream client sees the same stream the backend produced.
type TeeReader struct {
	src  io.Reader
	dest io.Writer

	decoder *Decoder
	parser  *Parser
	buf     []byte

	queue []Event
	done  bool
}

// NewTeeReader returns a TeeReader parsing src and copying it to dest.
// dest may be nil when no copy is needed.
func NewTeeReader(src io.Reader, dest io.Writer) *TeeReader {
	return &TeeReader{
		src:     src,
		dest:    dest,
		decoder: NewDecoder(),
		parser:  NewParser(),
		buf:     make([]byte, readBufferSize),
	}
}

// Next returns the next Event. It blocks until the source yields enough
// bytes to resolve one. Next returns nil, nil once the source is exhausted
// and every buffered event has been returned.
//
// Errors from the source or the destination are returned as is; events
// already returned remain valid.
func (r *TeeReader) Next() (Event, error) {
	for len(r.queue) == 0 {
		if r.done {
			return nil, nil
		}

		n, err := r.src.Read(r.buf)
		if n > 0 {
			if r.dest != nil {
				if _, werr := r.dest.Write(r.buf[:n]); werr != nil {
					return nil, werr
				}
			}
			r.queue = append(r.queue, r.parser.Feed(r.decoder.Decode(r.buf[:n], false))...)
		}

		if errors.Is(err, io.EOF) {
			r.queue = append(r.queue, r.parser.Feed(r.decoder.Decode(nil, true))...)
			r.queue = append(r.queue, r.parser.Close()...)
			r.done = true
			continue
		}
		if err != nil {
			return nil, err
		}
	}

	ev := r.queue[0]
	r.queue = r.queue[1:]
	return ev, nil
}

// Drain reads every remaining Event.
func (r *TeeReader) Drain() ([]Event, error) {
	var events []Event
	for {
		ev, err := r.Next()
		if err != nil {
			return events, err
		}
		if ev == nil {
			return events, nil
		}
		events = append(events, ev)
	}
}
