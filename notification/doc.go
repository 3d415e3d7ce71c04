// Package notification handles encrypted call-event webhooks.
//
// Decrypt implements the hybrid scheme the sender uses: an RSA-OAEP wrapped
// AES key, an HMAC-SHA256 signature over the ciphertext, and AES-CBC with
// the IV taken from the key. Processor parses a webhook batch, decrypts the
// first item and starts a transcript subscription when transcription begins.
package notification
