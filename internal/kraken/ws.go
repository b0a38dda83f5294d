package kraken

import "errors"

// DefaultWSURL is the public Kraken websocket v2 endpoint.
const DefaultWSURL = "wss://ws.kraken.com/v2"

// ErrClosed is returned by operations on a closed connection.
var ErrClosed = errors.New("websocket client closed")

// WSConn is one full-duplex streaming connection.
// Receive must only be called from a single goroutine.
type WSConn interface {
	// Send writes v as a JSON text frame.
	Send(v interface{}) error

	// Receive blocks until the next text message arrives.
	Receive() ([]byte, error)

	// Close closes the connection. Safe to call more than once.
	Close() error
}
