// Package header decides which headers cross the gateway.
//
//	Client <--> Gateway <--> Backend
//
// Each leg negotiates hops, compression and length on its own, so those
// headers stop at the gateway in both directions.
package header

import (
	"net/http"
	"net/textproto"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// RecordedBy names the gateway that recorded an /ask response.
const RecordedBy = "X-Synergy-Recorded-By"

// hopByHop headers never cross the gateway (RFC 9110 section 7.6.1).
var hopByHop = map[string]struct{}{
	"Connection":          {},
	"Keep-Alive":          {},
	"Proxy-Connection":    {},
	"Proxy-Authenticate":  {},
	"Proxy-Authorization": {},
	"Te":                  {},
	"Trailer":             {},
	"Transfer-Encoding":   {},
	"Upgrade":             {},
}

// upstreamOnly is dropped from requests on top of hopByHop. Host is set by
// http.Transport from the upstream URL; Accept-Encoding is left to the
// transport so it can decompress transparently; a client must not be able
// to claim the exchange was recorded already.
var upstreamOnly = map[string]struct{}{
	"Host":            {},
	"Accept-Encoding": {},
	RecordedBy:        {},
}

// clientOnly is dropped from responses on top of hopByHop. The gateway body
// is always decompressed, and fiber computes the final length.
var clientOnly = map[string]struct{}{
	"Content-Encoding": {},
	"Content-Length":   {},
}

// ToUpstream copies the client's request headers onto req.
func ToUpstream(c *fiber.Ctx, req *http.Request) {
	listed := connectionTokens(string(c.Request().Header.Peek("Connection")))

	c.Request().Header.VisitAll(func(key, value []byte) {
		k := textproto.CanonicalMIMEHeaderKey(string(key))
		if dropped(k, upstreamOnly, listed) {
			return
		}
		req.Header.Add(k, string(value))
	})
}

// ToClient copies the backend's response headers onto the client response.
// Multiple values are joined with ", ".
func ToClient(c *fiber.Ctx, resp *http.Response) {
	listed := connectionTokens(resp.Header.Get("Connection"))

	for k, v := range resp.Header {
		k = textproto.CanonicalMIMEHeaderKey(k)
		if dropped(k, clientOnly, listed) {
			continue
		}
		c.Set(k, strings.Join(v, ", "))
	}
}

// MarkAnswerStream prepares the client response for a streamed answer.
// recorder is written to RecordedBy unless empty.
func MarkAnswerStream(c *fiber.Ctx, recorder string) {
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set("X-Accel-Buffering", "no")
	if recorder != "" {
		c.Set(RecordedBy, recorder)
	}
}

func dropped(k string, extra, listed map[string]struct{}) bool {
	if _, ok := hopByHop[k]; ok {
		return true
	}
	if _, ok := extra[k]; ok {
		return true
	}
	_, ok := listed[k]
	return ok
}

// connectionTokens returns the header names a Connection header lists as
// hop-by-hop for this connection.
func connectionTokens(v string) map[string]struct{} {
	if v == "" {
		return nil
	}
	out := map[string]struct{}{}
	for _, tok := range strings.Split(v, ",") {
		if tok = strings.TrimSpace(tok); tok != "" {
			out[textproto.CanonicalMIMEHeaderKey(tok)] = struct{}{}
		}
	}
	return out
}
