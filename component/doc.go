// Package component defines the lifecycle interface shared by the server,
// the subscription registry and telemetry, and a Registry that starts them
// in order and stops them in reverse.
package component
