// Package transport hosts the websocket boundary between arenad and the
// outside world: agents driving a match and spectators observing one.
// The connection-pump idiom (read/write goroutines, ping/pong keepalive,
// bounded outbound queue) sits underneath an eviction and
// forfeit-on-disconnect policy specific to this service.
package transport

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 16
)

// Conn wraps one upgraded websocket with a bounded outbound queue and
// the pump goroutines that drain it. Sends never block the caller: a
// full queue evicts the connection rather than stall whoever is
// fanning out state.
type Conn struct {
	ws     *websocket.Conn
	send   chan []byte
	log    *zap.Logger
	closed chan struct{}
	once   sync.Once

	// onClose runs exactly once, from whichever pump notices the
	// connection is gone first (read error, write error, or an
	// eviction from a full outbound queue).
	onClose func(reason string)
}

// NewConn wraps ws with a send queue of the given depth (the default
// recipient queue depth is 32) and starts its write pump. Reading is
// done by the caller through ReadLoop.
func NewConn(ws *websocket.Conn, queueDepth int, log *zap.Logger, onClose func(reason string)) *Conn {
	c := &Conn{
		ws:      ws,
		send:    make(chan []byte, queueDepth),
		log:     log,
		closed:  make(chan struct{}),
		onClose: onClose,
	}
	ws.SetReadLimit(maxMessageSize)
	go c.writePump()
	return c
}

// Send enqueues a frame for delivery without blocking. If the
// connection's outbound queue is already full the connection is
// considered unresponsive and is evicted: the caller never stalls
// waiting on a slow peer.
func (c *Conn) Send(payload []byte) {
	select {
	case c.send <- payload:
	case <-c.closed:
	default:
		c.log.Warn("evicting slow connection, outbound queue full")
		c.Close("outbound queue overflow")
	}
}

// ReadLoop blocks reading frames from the peer and invokes handle for
// each one, until the connection closes or handle returns false.
// Callers run this on the goroutine that owns the connection's
// lifetime; it returns once the peer disconnects or misbehaves.
func (c *Conn) ReadLoop(handle func(raw []byte) bool) {
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			c.Close("read error: " + err.Error())
			return
		}
		if !handle(raw) {
			c.Close("handler requested close")
			return
		}
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer c.ws.Close()

	for {
		select {
		case payload, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				c.Close("write error: " + err.Error())
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close("ping failed: " + err.Error())
				return
			}
		case <-c.closed:
			c.drainAndClose()
			return
		}
	}
}

// drainAndClose flushes frames that were queued before Close was
// called, so an ordered farewell (game_end, match_cancelled) reaches
// the peer ahead of the close frame. The first write failure abandons
// the rest.
func (c *Conn) drainAndClose() {
	for {
		select {
		case payload := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		default:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// Close tears the connection down idempotently and reports reason to
// onClose exactly once. The underlying socket is closed by the write
// pump once it has drained any farewell frames still queued.
func (c *Conn) Close(reason string) {
	c.once.Do(func() {
		close(c.closed)
		if c.onClose != nil {
			c.onClose(reason)
		}
	})
}
