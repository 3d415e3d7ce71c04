// Package streaming owns the live transcript stream of one subscription.
//
// A Handler dials the stream with a bearer token, runs a receive loop that
// parses transcript frames into a bounded buffer, and tracks the
// subscription status:
//
//	Inactive -> Active -> Expired | Error
//
// Expired and Error are terminal. Snapshot returns copies and never waits on
// the receive loop.
package streaming
