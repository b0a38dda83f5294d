package stub

import (
	"encoding/json"
	"sync"

	"kraken-tools/internal/kraken"
)

// WSConn implements kraken.WSConn with a scripted inbound queue.
// Receive blocks once the queue is drained until Close is called.
type WSConn struct {
	mu      sync.Mutex
	inbound []inbound
	sent    [][]byte
	closed  bool
	closeCh chan struct{}
	wake    chan struct{}
	drained bool

	// SendErr is returned by every Send when set.
	SendErr error

	// OnDrain is called once when Receive finds the queue empty.
	OnDrain func()

	closes int
}

type inbound struct {
	msg []byte
	err error
}

// NewWSConn creates a stub connection.
func NewWSConn() *WSConn {
	return &WSConn{
		closeCh: make(chan struct{}),
		wake:    make(chan struct{}, 1),
	}
}

// Push queues an inbound text message.
func (c *WSConn) Push(msg string) {
	c.enqueue(inbound{msg: []byte(msg)})
}

// Fail queues a receive error.
func (c *WSConn) Fail(err error) {
	c.enqueue(inbound{err: err})
}

func (c *WSConn) enqueue(in inbound) {
	c.mu.Lock()
	c.inbound = append(c.inbound, in)
	c.drained = false
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// Send records the JSON encoding of v.
func (c *WSConn) Send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return kraken.ErrClosed
	}
	if c.SendErr != nil {
		return c.SendErr
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.sent = append(c.sent, data)
	return nil
}

// Receive returns the next queued message.
func (c *WSConn) Receive() ([]byte, error) {
	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return nil, kraken.ErrClosed
		}
		if len(c.inbound) > 0 {
			in := c.inbound[0]
			c.inbound = c.inbound[1:]
			c.mu.Unlock()
			return in.msg, in.err
		}
		onDrain := c.OnDrain
		fire := !c.drained && onDrain != nil
		c.drained = true
		c.mu.Unlock()

		if fire {
			onDrain()
		}

		select {
		case <-c.closeCh:
		case <-c.wake:
		}
	}
}

// Close marks the connection closed and unblocks Receive.
func (c *WSConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closes++
	if c.closed {
		return nil
	}
	c.closed = true
	close(c.closeCh)
	return nil
}

// Sent returns copies of all sent messages.
func (c *WSConn) Sent() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.sent))
	for i, m := range c.sent {
		out[i] = append([]byte(nil), m...)
	}
	return out
}

// Closes returns how many times Close was called.
func (c *WSConn) Closes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}

var _ kraken.WSConn = (*WSConn)(nil)
