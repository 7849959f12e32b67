// Package ws is the WebSocket Transport of spec §4.1: it accepts the
// long-lived duplex connection, demarcates text frames, and turns each one
// into a (sessionId, rawLine) event handed to the Coordinator. It never
// interprets a line itself — that is the Codec's and Coordinator's job.
package ws

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/tomlinvo/rtc-signal/internal/core"
)

// Config carries the per-connection timing knobs from spec §5/§6.
type Config struct {
	// PingPeriod is how often the server sends a WebSocket ping control
	// frame. Default 15s.
	PingPeriod time.Duration
	// IdleTimeout is how long the connection tolerates silence (including a
	// missing pong) before it is torn down. Default 15s.
	IdleTimeout time.Duration
	// OutboxSize bounds the per-peer outbound queue. Default 32.
	OutboxSize int
}

// DefaultConfig returns the spec's default timings.
func DefaultConfig() Config {
	return Config{
		PingPeriod:  15 * time.Second,
		IdleTimeout: 15 * time.Second,
		OutboxSize:  32,
	}
}

// Conn adapts a *websocket.Conn to core.Peer. It owns the outbox channel
// drained by its own write pump; Send never blocks the caller.
type Conn struct {
	id   core.SessionID
	ws   *websocket.Conn
	send chan string
	done chan struct{}
	cfg  Config
	log  zerolog.Logger
}

// Accept registers a freshly-upgraded WebSocket connection with coord and
// starts its read/write pumps. It mints no session identifier itself — the
// caller (the HTTP adapter) decides how sid is generated.
func Accept(coord *core.Coordinator, wsConn *websocket.Conn, sid core.SessionID, cfg Config, logger zerolog.Logger) *Conn {
	if cfg.OutboxSize <= 0 {
		cfg.OutboxSize = 32
	}
	if cfg.PingPeriod <= 0 {
		cfg.PingPeriod = 15 * time.Second
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 15 * time.Second
	}

	c := &Conn{
		id:   sid,
		ws:   wsConn,
		send: make(chan string, cfg.OutboxSize),
		done: make(chan struct{}),
		cfg:  cfg,
		log:  logger,
	}

	coord.OnOpen(sid, c)

	go c.writePump()
	go c.readPump(coord)

	return c
}

// ID satisfies core.Peer.
func (c *Conn) ID() core.SessionID { return c.id }

// Send satisfies core.Peer: it enqueues line without blocking, returning
// core.ErrBackpressure if the outbox is full.
func (c *Conn) Send(line string) error {
	select {
	case c.send <- line:
		return nil
	default:
		return core.ErrBackpressure
	}
}

// Close satisfies core.Peer. It is idempotent: only the first caller signals
// teardown. The actual close-frame write and socket close happen on their
// own goroutine — Close is called from Coordinator handlers while the
// coordinator lock is held, and MUST NOT block on network I/O (spec §5).
func (c *Conn) Close(reason string) {
	select {
	case <-c.done:
		return
	default:
	}
	close(c.done)
	go func() {
		_ = c.ws.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason),
			time.Now().Add(time.Second),
		)
		_ = c.ws.Close()
	}()
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(c.cfg.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case line, ok := <-c.send:
			if !ok {
				return
			}
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.cfg.IdleTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
				c.log.Debug().Str("sid", string(c.id)).Err(err).Msg("write error")
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.cfg.IdleTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.log.Debug().Str("sid", string(c.id)).Err(err).Msg("ping error")
				return
			}
		}
	}
}

func (c *Conn) readPump(coord *core.Coordinator) {
	defer func() {
		coord.OnClose(c.id)
		c.Close("read loop exit")
	}()

	_ = c.ws.SetReadDeadline(time.Now().Add(c.cfg.IdleTimeout))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(c.cfg.IdleTimeout))
	})

	for {
		mt, data, err := c.ws.ReadMessage()
		if err != nil {
			c.log.Debug().Str("sid", string(c.id)).Err(err).Msg("read loop exiting")
			return
		}
		// Any traffic — text or binary — resets the idle deadline.
		_ = c.ws.SetReadDeadline(time.Now().Add(c.cfg.IdleTimeout))

		if mt == websocket.BinaryMessage {
			c.log.Warn().Str("sid", string(c.id)).Msg("ignoring binary frame")
			continue
		}
		if mt != websocket.TextMessage {
			continue
		}
		coord.OnMessage(c.id, string(data))
	}
}
