package streaming

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"

	"github.com/coder/websocket"
)

// FrameKind classifies an inbound frame.
type FrameKind int

const (
	FrameText FrameKind = iota + 1
	FrameBinary
	// FrameClose is reported once when the remote end closes the stream.
	FrameClose
)

// Frame is one inbound message.
type Frame struct {
	Kind FrameKind
	Data []byte
}

// Conn is an open stream. Close must unblock a pending ReadFrame.
type Conn interface {
	ReadFrame() (Frame, error)
	Close() error
}

// Dialer opens streams.
type Dialer interface {
	Dial(ctx context.Context, url, bearerToken string) (Conn, error)
}

// DefaultMaxPayloadBytes caps a single inbound message when none is configured.
const DefaultMaxPayloadBytes = 1 << 20

// WebSocketDialer dials streams over WebSocket.
type WebSocketDialer struct {
	// Origin is sent as the Origin header when set.
	Origin    string
	TLSConfig *tls.Config
	// MaxPayloadBytes caps a single message; zero uses DefaultMaxPayloadBytes.
	MaxPayloadBytes int
}

// Dial opens a WebSocket with an Authorization bearer header.
func (d *WebSocketDialer) Dial(ctx context.Context, url, bearerToken string) (Conn, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+bearerToken)
	if d.Origin != "" {
		header.Set("Origin", d.Origin)
	}
	opts := &websocket.DialOptions{HTTPHeader: header}
	if d.TLSConfig != nil {
		opts.HTTPClient = &http.Client{Transport: &http.Transport{TLSClientConfig: d.TLSConfig}}
	}

	ws, _, err := websocket.Dial(ctx, url, opts)
	if err != nil {
		return nil, fmt.Errorf("streaming: dial %s: %w", url, err)
	}
	limit := int64(d.MaxPayloadBytes)
	if limit <= 0 {
		limit = DefaultMaxPayloadBytes
	}
	ws.SetReadLimit(limit)
	return &wsConn{ws: ws}, nil
}

type wsConn struct {
	ws *websocket.Conn
}

// ReadFrame reports a close frame from the remote as FrameClose. A
// connection that ends without one is an error.
func (c *wsConn) ReadFrame() (Frame, error) {
	typ, data, err := c.ws.Read(context.Background())
	if err != nil {
		if websocket.CloseStatus(err) != -1 {
			return Frame{Kind: FrameClose}, nil
		}
		return Frame{}, err
	}
	if typ == websocket.MessageBinary {
		return Frame{Kind: FrameBinary, Data: data}, nil
	}
	return Frame{Kind: FrameText, Data: data}, nil
}

// Close sends a normal closure and drops the connection if the handshake
// does not complete.
func (c *wsConn) Close() error {
	if err := c.ws.Close(websocket.StatusNormalClosure, ""); err != nil {
		_ = c.ws.CloseNow()
		return err
	}
	return nil
}
