// Package errors defines the AppError type shared by every layer of the
// service. Each error carries a machine-readable code, the HTTP status the
// API layer should answer with, and a retryable flag.
package errors
