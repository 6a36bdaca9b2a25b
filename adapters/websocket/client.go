package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/satriahrh/contextchat/utils/log"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 * 1024
)

// Message is one frame sent to a streaming client.
type Message struct {
	Chunk *string `json:"chunk,omitempty"`
	Done  bool    `json:"done,omitempty"`
	Error string  `json:"error,omitempty"`
}

// Client is a relay.Sink over one WebSocket connection. It owns the read side
// only to notice when the peer goes away.
type Client struct {
	conn   *websocket.Conn
	ctx    context.Context
	cancel context.CancelFunc

	closeOnce sync.Once
}

// NewClient wraps conn. The returned client's Context is canceled when the
// peer disconnects or Close is called.
func NewClient(ctx context.Context, conn *websocket.Conn) *Client {
	ctx, cancel := context.WithCancel(ctx)
	conn.SetReadLimit(maxMessageSize)
	return &Client{conn: conn, ctx: ctx, cancel: cancel}
}

// Context returns the client's context
func (c *Client) Context() context.Context {
	return c.ctx
}

// watch drains incoming frames until the connection fails, then cancels the
// client context.
func (c *Client) watch() {
	defer c.cancel()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.WithCtx(c.ctx).Debug("WebSocket read error", zap.Error(err))
			}
			return
		}
	}
}

func (c *Client) Open() error {
	go c.watch()
	return nil
}

func (c *Client) WriteChunk(text string) error {
	return c.write(Message{Chunk: &text})
}

func (c *Client) WriteDone() error {
	return c.write(Message{Done: true})
}

func (c *Client) WriteError(message string) error {
	return c.write(Message{Error: message})
}

func (c *Client) write(msg Message) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteJSON(msg)
}

// Close sends a normal close frame and closes the connection. It is safe to
// call more than once.
func (c *Client) Close() error {
	return c.closeWith(websocket.CloseNormalClosure)
}

func (c *Client) closeWith(code int) error {
	var err error
	c.closeOnce.Do(func() {
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(code, ""),
			time.Now().Add(writeWait))
		err = c.conn.Close()
		c.cancel()
	})
	return err
}
