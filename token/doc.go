// Package token supplies bearer tokens for the meeting API and the
// transcript stream.
//
// ClientCredentials obtains app-only tokens with a certificate-signed client
// assertion. Router picks between the app token and a delegated one, falling
// back to the app token when no delegated token can be had.
package token
