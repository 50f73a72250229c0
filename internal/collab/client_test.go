package collab

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	frames chan []byte
	writes chan []byte
	hungUp chan struct{}

	mu        sync.Mutex
	closeOnce sync.Once
	closeCode websocket.StatusCode
	readLimit int64
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		frames: make(chan []byte, 8),
		writes: make(chan []byte, 64),
		hungUp: make(chan struct{}),
	}
}

func (f *fakeConn) Read(ctx context.Context) (websocket.MessageType, []byte, error) {
	select {
	case data := <-f.frames:
		return websocket.MessageText, data, nil
	case <-f.hungUp:
		return 0, nil, websocket.CloseError{Code: websocket.StatusNormalClosure}
	case <-ctx.Done():
		return 0, nil, ctx.Err()
	}
}

func (f *fakeConn) Write(_ context.Context, _ websocket.MessageType, p []byte) error {
	f.writes <- p
	return nil
}

func (f *fakeConn) Ping(context.Context) error { return nil }

func (f *fakeConn) Close(code websocket.StatusCode, _ string) error {
	f.closeOnce.Do(func() {
		f.mu.Lock()
		f.closeCode = code
		f.mu.Unlock()
		close(f.hungUp)
	})
	return nil
}

func (f *fakeConn) SetReadLimit(n int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readLimit = n
}

func (f *fakeConn) code() websocket.StatusCode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closeCode
}

// written reads frames the client wrote until one of type typ arrives.
func written(t *testing.T, conn *fakeConn, typ string) *Message {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case data := <-conn.writes:
			var msg Message
			require.NoError(t, json.Unmarshal(data, &msg))
			if msg.Type == typ {
				return &msg
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", typ)
			return nil
		}
	}
}

func serve(f *fixture, conn *fakeConn) (*Client, <-chan struct{}) {
	c := NewClient(f.hub, conn, "user-a", "a", testProject, "client-a")
	f.hub.Register(c)
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Serve(context.Background(), Limits{})
	}()
	return c, done
}

func wait(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return")
	}
}

func TestServeRelaysMessages(t *testing.T) {
	f := newFixture(t, 0)
	b := f.join(t, "b")
	conn := newFakeConn()
	_, done := serve(f, conn)

	written(t, conn, TypeWelcome)

	conn.frames <- []byte("{")
	var perr ErrorPayload
	require.NoError(t, json.Unmarshal(written(t, conn, TypeError).Payload, &perr))
	assert.Equal(t, CodeBadRequest, perr.Code)

	conn.frames <- []byte(`{"type":"","payload":{}}`)
	written(t, conn, TypeError)

	conn.frames <- []byte(`{"type":"presence.update","userId":"user-b","payload":{"cursor":{"x":1,"y":2}}}`)
	msg := expect(t, b, TypePresenceUpdate)
	assert.Equal(t, "user-a", msg.UserID, "identity comes from the connection")

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, ""))
	wait(t, done)

	var left PresenceLeavePayload
	require.NoError(t, json.Unmarshal(expect(t, b, TypePresenceLeave).Payload, &left))
	assert.Equal(t, "user-a", left.UserID)
	assert.Equal(t, int64(64*1024), conn.readLimit)
}

func TestServeEndsWhenHubStops(t *testing.T) {
	f := newFixture(t, 0)
	conn := newFakeConn()
	_, done := serve(f, conn)
	written(t, conn, TypeWelcome)

	f.hub.Stop()

	wait(t, done)
	assert.Equal(t, websocket.StatusGoingAway, conn.code())
}

func TestLimitsDefaults(t *testing.T) {
	lim := Limits{PingInterval: time.Second}.withDefaults()
	assert.Equal(t, time.Second, lim.PingInterval)
	assert.Equal(t, DefaultLimits().WriteTimeout, lim.WriteTimeout)
	assert.Equal(t, DefaultLimits().ReadLimit, lim.ReadLimit)
}
