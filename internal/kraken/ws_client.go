package kraken

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// WSClientConfig configures WebSocket client behavior.
type WSClientConfig struct {
	// HandshakeTimeout bounds the opening handshake.
	HandshakeTimeout time.Duration
	// PingInterval is interval for sending ping frames. Zero disables pings.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading one message. Zero waits forever.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSClientConfig {
	return WSClientConfig{
		HandshakeTimeout: 10 * time.Second,
		PingInterval:     30 * time.Second,
		ReadTimeout:      0,
		WriteTimeout:     10 * time.Second,
	}
}

// WSClient implements WSConn using gorilla/websocket.
// There is no reconnect: a dropped connection ends the session.
type WSClient struct {
	endpoint string
	config   WSClientConfig

	conn    *websocket.Conn
	writeMu sync.Mutex
	closed  atomic.Bool

	done chan struct{}
	wg   sync.WaitGroup
}

// Compile-time interface check.
var _ WSConn = (*WSClient)(nil)

// DialWS connects to the endpoint and starts the ping loop.
func DialWS(ctx context.Context, endpoint string, config *WSClientConfig) (*WSClient, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: cfg.HandshakeTimeout,
	}

	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}

	c := &WSClient{
		endpoint: endpoint,
		config:   cfg,
		conn:     conn,
		done:     make(chan struct{}),
	}

	if cfg.PingInterval > 0 {
		c.wg.Add(1)
		go c.pingLoop()
	}

	return c, nil
}

// Endpoint returns the URL the client is connected to.
func (c *WSClient) Endpoint() string {
	return c.endpoint
}

// Send writes v as a JSON text frame.
func (c *WSClient) Send(v interface{}) error {
	if c.closed.Load() {
		return ErrClosed
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.config.WriteTimeout > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteTimeout))
	}
	if err := c.conn.WriteJSON(v); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// Receive blocks until the next text message arrives.
// After Close it returns ErrClosed.
func (c *WSClient) Receive() ([]byte, error) {
	for {
		if c.closed.Load() {
			return nil, ErrClosed
		}

		if c.config.ReadTimeout > 0 {
			c.conn.SetReadDeadline(time.Now().Add(c.config.ReadTimeout))
		}

		msgType, message, err := c.conn.ReadMessage()
		if err != nil {
			if c.closed.Load() {
				return nil, ErrClosed
			}
			return nil, fmt.Errorf("read message: %w", err)
		}

		// Binary frames are not part of the protocol
		if msgType != websocket.TextMessage {
			continue
		}
		return message, nil
	}
}

// Close closes the WebSocket connection.
func (c *WSClient) Close() error {
	if c.closed.Swap(true) {
		return nil // Already closed
	}

	close(c.done)

	c.writeMu.Lock()
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	err := c.conn.Close()
	c.writeMu.Unlock()

	c.wg.Wait()
	return err
}

// pingLoop sends periodic ping frames to keep connection alive.
func (c *WSClient) pingLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.writeMu.Lock()
			deadline := time.Now().Add(c.config.WriteTimeout)
			if err := c.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				// Connection might be dead, reader will surface the error
			}
			c.writeMu.Unlock()
		}
	}
}
