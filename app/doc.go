// Package app assembles the service: configuration sections, the certificate
// sources, token providers, the remote client, the subscription registry,
// the notification processor and the HTTP API.
package app
