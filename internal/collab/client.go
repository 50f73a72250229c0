package collab

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// Conn is the part of *websocket.Conn a client needs.
type Conn interface {
	Read(ctx context.Context) (websocket.MessageType, []byte, error)
	Write(ctx context.Context, typ websocket.MessageType, p []byte) error
	Ping(ctx context.Context) error
	Close(code websocket.StatusCode, reason string) error
	SetReadLimit(n int64)
}

// Limits tunes a client connection.
type Limits struct {
	WriteTimeout time.Duration
	PingInterval time.Duration
	ReadLimit    int64
}

func DefaultLimits() Limits {
	return Limits{
		WriteTimeout: 10 * time.Second,
		PingInterval: 30 * time.Second,
		ReadLimit:    64 * 1024,
	}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.WriteTimeout <= 0 {
		l.WriteTimeout = d.WriteTimeout
	}
	if l.PingInterval <= 0 {
		l.PingInterval = d.PingInterval
	}
	if l.ReadLimit <= 0 {
		l.ReadLimit = d.ReadLimit
	}
	return l
}

// Client is one editor connection inside a project room. Outbound messages
// are queued on send and drained by the write loop.
type Client struct {
	hub         *Hub
	conn        Conn
	send        chan []byte
	UserID      string
	DisplayName string
	ProjectID   string
	ClientID    string

	mu     sync.Mutex
	closed bool
}

func NewClient(hub *Hub, conn Conn, userID, displayName, projectID, clientID string) *Client {
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, 256),
		UserID:      userID,
		DisplayName: displayName,
		ProjectID:   projectID,
		ClientID:    clientID,
	}
}

// Serve runs the connection until the peer goes away or ctx ends. Reads run
// on the calling goroutine; the write loop is stopped before Serve returns.
func (c *Client) Serve(ctx context.Context, lim Limits) {
	lim = lim.withDefaults()
	ctx, cancel := context.WithCancel(ctx)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.writeLoop(ctx, lim)
	}()

	c.readLoop(ctx, lim)
	c.hub.Unregister(c)
	cancel()
	wg.Wait()
	c.conn.Close(websocket.StatusNormalClosure, "")
}

func (c *Client) readLoop(ctx context.Context, lim Limits) {
	c.conn.SetReadLimit(lim.ReadLimit)
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			if !closedByPeer(err) && ctx.Err() == nil {
				slog.Debug("read error", "error", err, "user", c.UserID)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type == "" {
			slog.Warn("invalid message", "error", err, "user", c.UserID)
			c.Send(errorMessage(CodeBadRequest, "malformed message", ""))
			continue
		}
		c.stamp(&msg)
		c.hub.Submit(c, &msg)
	}
}

func (c *Client) writeLoop(ctx context.Context, lim Limits) {
	ticker := time.NewTicker(lim.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case data, ok := <-c.send:
			if !ok {
				c.conn.Close(websocket.StatusGoingAway, "room closed")
				return
			}
			if err := c.withTimeout(ctx, lim, func(ctx context.Context) error {
				return c.conn.Write(ctx, websocket.MessageText, data)
			}); err != nil {
				slog.Debug("write error", "error", err, "user", c.UserID)
				return
			}
		case <-ticker.C:
			if err := c.withTimeout(ctx, lim, c.conn.Ping); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) withTimeout(ctx context.Context, lim Limits, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, lim.WriteTimeout)
	defer cancel()
	return fn(ctx)
}

// stamp overwrites the identity fields so a client cannot speak for another.
func (c *Client) stamp(msg *Message) {
	msg.UserID = c.UserID
	msg.ClientID = c.ClientID
	msg.ProjectID = c.ProjectID
}

func closedByPeer(err error) bool {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	}
	return false
}

// Send queues msg for the write loop. Messages to a full or closed client
// are dropped.
func (c *Client) Send(msg *Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.Error("marshal message", "error", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		slog.Warn("client send buffer full, dropping message", "user", c.UserID)
	}
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
