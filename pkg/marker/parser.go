package marker

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

const (
	readyMarker   = "__READY__"
	entryIDMarker = "__ENTRY_ID__"
	errorMarker   = "__ERROR__"
	contextMarker = "__CONTEXT__"

	terminator = "__"

	// An __ENTRY_ID__ gone wrong is given this many bytes to reach its
	// terminator before its bytes are handed back as text.
	maxEntryIDPayload = 64

	// Likewise for a __CONTEXT__ object whose braces never balance.
	maxContextPayload = 1 << 20
)

type state int

const (
	// stateScanning: the buffer holds no unresolved bytes.
	stateScanning state = iota

	// statePotentialMarker: the buffer holds a proper prefix of a marker
	// header ("_", "__", "__ENT", ...) that needs more input to resolve.
	statePotentialMarker

	// stateMarkerPayload: a header was matched and the buffer holds the
	// payload read so far.
	stateMarkerPayload
)

type markerKind int

const (
	kindReady markerKind = iota
	kindEntryID
	kindError
	kindContext
)

type header struct {
	prefix string
	kind   markerKind
}

var headers = []header{
	{prefix: readyMarker, kind: kindReady},
	{prefix: entryIDMarker, kind: kindEntryID},
	{prefix: errorMarker, kind: kindError},
	{prefix: contextMarker, kind: kindContext},
}

type headerMatch int

const (
	matchNone headerMatch = iota
	matchPartial
	matchFull
)

// Parser converts arbitrarily chunked answer text into Events.
//
// A Parser is driven synchronously: Feed never blocks and returns the events
// that became certain with the new chunk. Close flushes the end of stream.
// A Parser handles exactly one stream and is not safe for concurrent use.
type Parser struct {
	state state
	kind  markerKind
	buf   []byte

	// scan is the resume offset into buf while in stateMarkerPayload.
	scan int

	// malformed is set once an __ENTRY_ID__ payload hit a non-digit at
	// badAt; the payload is then skipped up to its terminator.
	malformed bool
	badAt     int

	// JSON object tracking for __CONTEXT__ payloads.
	depth    int
	started  bool
	inString bool
	escaped  bool
	rawMode  bool

	sawEntry   bool
	sawContext bool
	closed     bool

	events []Event
}

// NewParser returns a Parser ready for the first chunk of a stream.
func NewParser() *Parser {
	return &Parser{}
}

// Feed appends chunk to the stream and returns the events it resolved.
// Calling Feed after Close returns nil.
func (p *Parser) Feed(chunk string) []Event {
	if p.closed {
		return nil
	}

	p.buf = append(p.buf, chunk...)
	for p.step() {
	}

	return p.flush()
}

// Close marks the end of the stream and returns the remaining events.
// Withheld bytes that never became a marker are emitted as text; an
// unterminated marker becomes a StreamError.
func (p *Parser) Close() []Event {
	if p.closed {
		return nil
	}
	p.closed = true

	for p.finish() {
		for p.step() {
		}
	}

	p.buf = nil
	p.state = stateScanning

	return p.flush()
}

// finish resolves whatever is left in buf at end of stream. It reports
// true when it handed bytes back to the scanner, which then has to run
// again over them.
func (p *Parser) finish() bool {
	switch p.state {
	case stateScanning, statePotentialMarker:
		p.emitText(p.buf)
		p.consume(len(p.buf))

	case stateMarkerPayload:
		switch p.kind {
		case kindEntryID:
			if p.malformed {
				p.rescanMalformedEntryID()
				return true
			}
			p.emitError("unterminated " + entryIDMarker + " marker")
		case kindError:
			if len(p.buf) == 0 {
				p.emitError("unterminated " + errorMarker + " marker")
			} else {
				p.emitError(string(p.buf))
			}
		case kindContext:
			if !p.rawMode && p.abandonContext() {
				return true
			}
			p.emitError("unterminated " + contextMarker + " marker")
		}
		p.consume(len(p.buf))
		p.state = stateScanning
	}
	return false
}

// step advances the state machine once. It reports whether another step
// can make progress without more input.
func (p *Parser) step() bool {
	switch p.state {
	case stateScanning, statePotentialMarker:
		return p.scanText()
	case stateMarkerPayload:
		switch p.kind {
		case kindEntryID:
			return p.scanEntryID()
		case kindError:
			return p.scanError()
		case kindContext:
			return p.scanContext()
		}
	}
	return false
}

// scanText emits visible text up to the next marker header and switches to
// the payload state when a full header is found.
func (p *Parser) scanText() bool {
	from := 0
	for {
		i := bytes.IndexByte(p.buf[from:], '_')
		if i < 0 {
			p.emitText(p.buf)
			p.consume(len(p.buf))
			p.state = stateScanning
			return false
		}
		i += from

		h, m := matchHeader(p.buf[i:])
		switch m {
		case matchFull:
			p.emitText(p.buf[:i])
			p.consume(i + len(h.prefix))
			if h.kind == kindReady {
				from = 0
				continue
			}
			p.enterPayload(h.kind)
			return true

		case matchPartial:
			p.emitText(p.buf[:i])
			p.consume(i)
			p.state = statePotentialMarker
			return false

		default:
			from = i + 1
		}
	}
}

func matchHeader(b []byte) (header, headerMatch) {
	for _, h := range headers {
		if len(b) >= len(h.prefix) {
			if bytes.HasPrefix(b, []byte(h.prefix)) {
				return h, matchFull
			}
			continue
		}
		if bytes.HasPrefix([]byte(h.prefix), b) {
			return h, matchPartial
		}
	}
	return header{}, matchNone
}

func (p *Parser) enterPayload(kind markerKind) {
	p.state = stateMarkerPayload
	p.kind = kind
	p.scan = 0
	p.depth = 0
	p.started = false
	p.inString = false
	p.escaped = false
	p.rawMode = false
	p.malformed = false
	p.badAt = 0
}

func (p *Parser) leavePayload(n int) {
	p.consume(n)
	p.state = stateScanning
	p.scan = 0
	p.malformed = false
}

// scanEntryID reads the digits of an __ENTRY_ID__ payload. Anything other
// than digits before the terminator makes the marker malformed: one error is
// reported and the payload is skipped through its terminator.
func (p *Parser) scanEntryID() bool {
	if p.malformed {
		return p.skipMalformedEntryID()
	}

	for p.scan < len(p.buf) {
		c := p.buf[p.scan]
		if c >= '0' && c <= '9' {
			p.scan++
			continue
		}

		if c == '_' {
			if p.scan+1 >= len(p.buf) {
				return false
			}
			if p.buf[p.scan+1] == '_' {
				p.resolveEntryID(p.buf[:p.scan])
				p.leavePayload(p.scan + len(terminator))
				return true
			}
		}

		p.malformed = true
		p.badAt = p.scan
		return true
	}

	return false
}

func (p *Parser) skipMalformedEntryID() bool {
	j, ok := p.findTerminator()
	if ok {
		p.emitError(p.malformedEntryID())
		p.leavePayload(j + len(terminator))
		return true
	}
	if len(p.buf)-p.badAt > maxEntryIDPayload {
		p.rescanMalformedEntryID()
		return true
	}
	return false
}

// rescanMalformedEntryID gives up on finding a terminator: the error is
// reported and scanning resumes as text at the offending byte.
func (p *Parser) rescanMalformedEntryID() {
	p.emitError(p.malformedEntryID())
	p.leavePayload(p.badAt)
}

func (p *Parser) malformedEntryID() string {
	return fmt.Sprintf("malformed %s marker: unexpected %q", entryIDMarker, p.buf[p.badAt])
}

func (p *Parser) resolveEntryID(digits []byte) {
	if len(digits) == 0 {
		p.emitError("malformed " + entryIDMarker + " marker: empty id")
		return
	}

	id, err := strconv.ParseInt(string(digits), 10, 64)
	if err != nil {
		p.emitError(fmt.Sprintf("malformed %s marker: %v", entryIDMarker, err))
		return
	}

	if p.sawEntry {
		p.emitError(fmt.Sprintf("duplicate %s marker: %d", entryIDMarker, id))
		return
	}
	p.sawEntry = true
	p.emit(EntryRecorded{ID: id})
}

// scanError reads free text up to the first terminator.
func (p *Parser) scanError() bool {
	j, ok := p.findTerminator()
	if !ok {
		return false
	}

	p.emitError(string(p.buf[:j]))
	p.leavePayload(j + len(terminator))
	return true
}

// scanContext reads a JSON object payload. The object boundary is found by
// tracking braces outside of JSON strings, so "__" inside a string value
// does not end the marker. A payload that is not an object falls back to
// the first terminator and is reported as invalid.
func (p *Parser) scanContext() bool {
	if p.rawMode {
		j, ok := p.findTerminator()
		if !ok {
			return false
		}
		p.emitError("invalid " + contextMarker + " payload: not a JSON object")
		p.leavePayload(j + len(terminator))
		return true
	}

	for p.scan < len(p.buf) && (!p.started || p.depth > 0) {
		c := p.buf[p.scan]
		p.scan++

		if !p.started {
			switch c {
			case ' ', '\t', '\r', '\n':
			case '{':
				p.started = true
				p.depth = 1
			default:
				p.rawMode = true
				p.scan--
				return true
			}
			continue
		}

		switch {
		case p.escaped:
			p.escaped = false
		case p.inString:
			switch c {
			case '\\':
				p.escaped = true
			case '"':
				p.inString = false
			}
		case c == '"':
			p.inString = true
		case c == '{' || c == '[':
			p.depth++
		case c == '}' || c == ']':
			p.depth--
		}
	}

	if !p.started || p.depth > 0 {
		if len(p.buf) > maxContextPayload {
			return p.abandonContext()
		}
		return false
	}

	end := p.scan
	rest := p.buf[end:]
	if len(rest) < len(terminator) {
		if bytes.HasPrefix([]byte(terminator), rest) {
			return false
		}
		p.rawMode = true
		return true
	}
	if !bytes.HasPrefix(rest, []byte(terminator)) {
		p.rawMode = true
		return true
	}

	p.resolveContext(p.buf[:end])
	p.leavePayload(end + len(terminator))
	return true
}

// abandonContext handles an object whose braces never balanced: the payload
// is taken to end at its first terminator, reported as invalid, and the
// bytes after that terminator are scanned as ordinary stream. It reports
// false when there is no terminator to fall back on.
func (p *Parser) abandonContext() bool {
	j := bytes.Index(p.buf, []byte(terminator))
	if j < 0 {
		return false
	}
	p.emitError("invalid " + contextMarker + " JSON: unterminated object")
	p.leavePayload(j + len(terminator))
	return true
}

func (p *Parser) resolveContext(raw []byte) {
	raw = bytes.TrimSpace(raw)

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		p.emitError(fmt.Sprintf("invalid %s JSON: %v", contextMarker, err))
		return
	}

	if p.sawContext {
		p.emitError("duplicate " + contextMarker + " marker")
		return
	}
	p.sawContext = true
	p.emit(ContextAttached{RawJSON: string(raw)})
}

// findTerminator looks for "__" from the resume offset. When it is not
// found the offset is moved forward, keeping one byte that may be the first
// half of a split terminator.
func (p *Parser) findTerminator() (int, bool) {
	j := bytes.Index(p.buf[p.scan:], []byte(terminator))
	if j < 0 {
		if len(p.buf) > 0 {
			p.scan = len(p.buf) - 1
		}
		return 0, false
	}
	return p.scan + j, true
}

func (p *Parser) consume(n int) {
	p.buf = append(p.buf[:0], p.buf[n:]...)
}

func (p *Parser) emitText(b []byte) {
	if len(b) == 0 {
		return
	}

	if n := len(p.events); n > 0 {
		if tok, ok := p.events[n-1].(Token); ok {
			p.events[n-1] = Token{Text: tok.Text + string(b)}
			return
		}
	}
	p.emit(Token{Text: string(b)})
}

func (p *Parser) emitError(msg string) {
	p.emit(StreamError{Message: msg})
}

func (p *Parser) emit(ev Event) {
	p.events = append(p.events, ev)
}

func (p *Parser) flush() []Event {
	out := p.events
	p.events = nil
	return out
}
