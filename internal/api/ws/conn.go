package ws

import (
	"sync"

	"github.com/gorilla/websocket"

	"github.com/facetlabs/facet/internal/domain/lifecycle"
	"github.com/facetlabs/facet/internal/shared/types"
)

// conn serializes writes to one WebSocket connection. The lifecycle
// goroutine (progress, UI swap) and the read-loop responses write
// concurrently.
type conn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func newConn(ws *websocket.Conn) *conn {
	return &conn{ws: ws}
}

func (c *conn) send(v any) error {
	payload, err := types.Encode(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, payload)
}

// presenter implements lifecycle.Presenter over the connection. The swap is
// one message carrying the full composition: splash removal and tab-UI
// insertion are atomic from the client's point of view, so default inputs
// bind before any dependent observer can run.
type presenter struct {
	conn *conn
}

func (p *presenter) Swap(c lifecycle.Composition) error {
	return p.conn.send(map[string]any{
		"type": types.MsgUISwap,
		"ui":   c,
	})
}

// progressSink streams registry-build progress to the client. Fractions are
// clamped monotonic and Close is idempotent.
type progressSink struct {
	conn   *conn
	mu     sync.Mutex
	last   float64
	closed bool
}

func newProgressSink(c *conn) *progressSink {
	return &progressSink{conn: c}
}

func (s *progressSink) Advance(fraction float64, label string) {
	s.mu.Lock()
	if s.closed || fraction < s.last {
		s.mu.Unlock()
		return
	}
	s.last = fraction
	s.mu.Unlock()

	s.conn.send(map[string]any{
		"type":     types.MsgProgress,
		"fraction": fraction,
		"label":    label,
	})
}

func (s *progressSink) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.conn.send(map[string]any{
		"type": types.MsgProgress,
		"done": true,
	})
}
