// Package resilience holds the retry and circuit breaker policies applied to
// calls against the remote meeting API.
package resilience
