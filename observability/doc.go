// Package observability wires OpenTelemetry tracing and metrics.
//
// Metrics holds the service instruments (transcripts received, open
// streams, processed notifications). Export over OTLP HTTP is switched on
// by configuring an endpoint:
//
//	observability:
//	  endpoint: "localhost:4318"
//	  insecure: true
package observability
