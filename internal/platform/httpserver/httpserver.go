// Package httpserver builds the http.Server for the filing backend.
package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server for the API. Read and write timeouts stay
// generous: document uploads run multipart bodies up to the configured size
// cap, and auto-issue requests can wait on carrier approval well past
// typical API latencies. The handler-level timeout middleware cuts requests
// off first; these are the backstop.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      3 * time.Minute,
		IdleTimeout:       2 * time.Minute,
		MaxHeaderBytes:    1 << 20,
	}
}
