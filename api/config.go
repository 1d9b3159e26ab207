// Package api serves the fact-checking HTTP API used by the web frontend.
package api

import "net/http"

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8000")
	ListenAddr string

	// CORSOrigins is a comma separated list of allowed browser origins.
	// Empty disables CORS headers.
	CORSOrigins string

	// MCPHandler is mounted at /mcp when set.
	MCPHandler http.Handler
}
