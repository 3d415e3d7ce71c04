// Package server runs the HTTP API on a Gin engine.
//
// The standard middleware stack (recovery, request id, request logging, body
// size limit) wraps the whole engine at the net/http level, so every route
// registered on Engine() is covered. /health aggregates component health and
// /info reports build information.
//
// The server is a lifecycle component: Start binds the port and returns,
// Stop drains in-flight requests within the configured shutdown timeout.
package server
