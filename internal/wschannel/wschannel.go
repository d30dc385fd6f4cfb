// Package wschannel implements the long-lived, open-once, duplex
// text-framed JSON channel (spec §4.3, §6) over gorilla/websocket. It
// surfaces OPEN/CLOSE/MESSAGE/ERROR events and a best-effort Send; it
// never reconnects itself — that policy lives in internal/controller.
package wschannel

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Channel is a single-use duplex text-JSON connection.
type Channel struct {
	url string

	mu     sync.Mutex
	conn   *websocket.Conn
	open   bool
	closed bool

	onOpen    func()
	onClose   func(err error)
	onMessage func(text string)
	onError   func(err error)

	writeMu sync.Mutex
}

// New builds a channel targeting ws://endpoint/client.
func New(endpoint string) *Channel {
	return &Channel{url: "ws://" + endpoint + "/client"}
}

// OnOpen registers the OPEN handler.
func (c *Channel) OnOpen(fn func()) { c.onOpen = fn }

// OnClose registers the CLOSE handler; err is nil on a clean close.
func (c *Channel) OnClose(fn func(err error)) { c.onClose = fn }

// OnMessage registers the MESSAGE(text) handler.
func (c *Channel) OnMessage(fn func(text string)) { c.onMessage = fn }

// OnError registers the ERROR handler.
func (c *Channel) OnError(fn func(err error)) { c.onError = fn }

// Open dials the channel once and starts the read loop in the
// background. Calling Open a second time on the same Channel is an
// error — callers needing reconnect construct a fresh Channel.
func (c *Channel) Open(ctx context.Context) error {
	c.mu.Lock()
	if c.conn != nil {
		c.mu.Unlock()
		return errAlreadyOpened
	}
	c.mu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, c.url, http.Header{})
	if err != nil {
		if c.onError != nil {
			c.onError(err)
		}
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.open = true
	c.mu.Unlock()

	if c.onOpen != nil {
		c.onOpen()
	}

	go c.readLoop()
	return nil
}

func (c *Channel) readLoop() {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			alreadyNotified := !c.open
			c.open = false
			c.mu.Unlock()

			if !alreadyNotified && c.onClose != nil {
				var closeErr error
				if _, ok := err.(*websocket.CloseError); !ok {
					closeErr = err
				}
				c.onClose(closeErr)
			}
			return
		}
		if c.onMessage != nil {
			c.onMessage(string(data))
		}
	}
}

// Send writes a text frame. It no-ops if the channel is not open
// (spec §4.3).
func (c *Channel) Send(text string) {
	c.mu.Lock()
	conn := c.conn
	open := c.open
	c.mu.Unlock()
	if !open || conn == nil {
		return
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		if c.onError != nil {
			c.onError(err)
		}
	}
}

// IsOpen reports whether the channel is currently connected.
func (c *Channel) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Close closes the underlying connection. The read loop observes the
// resulting error and fires the usual CLOSE notification exactly once.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}

type channelError string

func (e channelError) Error() string { return string(e) }

var errAlreadyOpened = channelError("wschannel: channel already opened")
