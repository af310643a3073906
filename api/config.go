// Package api provides an HTTP API server for browsing the recorded exchanges.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8081")
	ListenAddr string

	// DisableMCP leaves /mcp unmounted.
	DisableMCP bool
}
