// Package logger provides structured logging on top of zerolog.
//
// A Logger writes to stdout or stderr in JSON or console form and can fan
// every event out to extra sinks as raw JSON lines; the in-memory log store
// is attached that way.
//
//	logging:
//	  level: "info"
//	  format: "console"
package logger
