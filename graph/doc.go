// Package graph calls the remote meeting API: transcript activity
// subscriptions, call-event webhook subscriptions, and join URL parsing.
//
// Transcript subscriptions use the delegated token when one is available;
// webhook subscriptions always use the app token. Non-2xx responses become
// REMOTE_CALL_FAILED errors carrying the status and reason.
package graph
