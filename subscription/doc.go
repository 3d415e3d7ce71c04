// Package subscription is the registry of live transcript subscriptions and
// of webhook event subscriptions.
//
// Service is created once at startup and passed explicitly to the API and
// the notification processor. Subscriptions are keyed by the id the remote
// feed assigns; at most one handler exists per id.
package subscription
