// Package meeting holds the data types shared by the streaming, registry,
// and notification packages. JSON tags follow the remote API wire format.
package meeting
