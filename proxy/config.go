package proxy

import (
	"time"

	"github.com/synergyreader/synergy/pkg/eventstream"
)

// Config is the gateway configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string

	// UpstreamURL is the question-answering backend (e.g., "http://localhost:5000")
	UpstreamURL string

	// Name identifies this gateway in the recorded-by response header.
	// Defaults to "synergy".
	Name string

	// Publisher announces recorded entries. If nil, events are not published.
	Publisher eventstream.Publisher

	// NumWorkers is the number of recording workers (defaults to 3).
	NumWorkers uint

	// UpstreamTimeout bounds forwarded non-streaming requests. Answer
	// streams are not bounded. Defaults to 30s.
	UpstreamTimeout time.Duration
}
