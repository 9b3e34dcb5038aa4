// Package agent is a development stand-in for the remote agent. It speaks
// the session protocol over a websocket: it answers the ready handshake,
// keeps the latency probe going and echoes user text.
package agent

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/VoiceLink/internal/core"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

type Options struct {
	Name       string
	PingPeriod time.Duration
	ReadLimit  int64
	// TextLimit user-text messages are accepted per TextWindow and client.
	TextLimit  int
	TextWindow time.Duration
}

type Controller struct {
	opts    Options
	limiter *TextRateLimiter

	mu    sync.RWMutex
	conns map[string]*agentConn
}

func NewController(opts Options) *Controller {
	if opts.Name == "" {
		opts.Name = "voicelink-agent"
	}
	return &Controller{
		opts:    opts,
		limiter: NewTextRateLimiter(opts.TextLimit, opts.TextWindow),
		conns:   make(map[string]*agentConn),
	}
}

type agentConn struct {
	id    string
	token string
	conn  *websocket.Conn
	send  chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *agentConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *agentConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *Controller) HandleSignal(ctx context.Context, c *gin.Context) {
	token := c.GetString("client_token")
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "agent").Msg("ws upgrade")
		return
	}
	if ctl.opts.ReadLimit > 0 {
		ws.SetReadLimit(ctl.opts.ReadLimit)
	}

	conn := &agentConn{
		id:    uuid.NewString(),
		token: token,
		conn:  ws,
		send:  make(chan core.Frame, 32),
	}
	ctl.mu.Lock()
	ctl.conns[conn.id] = conn
	ctl.mu.Unlock()
	log.Info().Str("module", "agent").Str("conn_id", conn.id).Str("client_token", token).Msg("client connected")

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go ctl.pingLoop(ctx, conn)
	go func() {
		defer cancel()
		ctl.readPump(ctx, conn)
	}()
}

// Active returns the number of open client connections.
func (ctl *Controller) Active() int {
	ctl.mu.RLock()
	defer ctl.mu.RUnlock()
	return len(ctl.conns)
}

// CloseAll drops every client connection without a close frame.
func (ctl *Controller) CloseAll() {
	ctl.mu.Lock()
	conns := make([]*agentConn, 0, len(ctl.conns))
	for _, c := range ctl.conns {
		conns = append(conns, c)
	}
	ctl.mu.Unlock()
	for _, c := range conns {
		c.Close()
	}
	log.Info().Str("module", "agent").Int("conns", len(conns)).Msg("dropped all clients")
}

func (ctl *Controller) forget(c *agentConn) {
	ctl.mu.Lock()
	delete(ctl.conns, c.id)
	ctl.mu.Unlock()
}
