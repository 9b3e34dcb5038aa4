// Package ws owns the physical websocket connection to the agent and keeps
// it alive: exponential backoff reconnection and periodic ping frames.
package ws

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/VoiceLink/internal/core"
	"github.com/dkeye/VoiceLink/internal/domain"
	"github.com/dkeye/VoiceLink/internal/protocol"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	ErrBackpressure  = errors.New("backpressure")
	ErrChannelClosed = errors.New("channel not open")
)

const sendBuffer = 64

// Options configures a Channel. Zero values fall back to defaults.
type Options struct {
	URL          string
	Header       http.Header
	Backoff      BackoffConfig
	PingInterval time.Duration
	WriteTimeout time.Duration
	ReadLimit    int64
	Dialer       Dialer
	// Probe is started on every keep-alive ping. Optional.
	Probe *protocol.LatencyProbe
	// After schedules reconnection timers; defaults to time.After.
	After func(time.Duration) <-chan time.Time
}

// Events are the owner's hooks. They are invoked from channel goroutines.
type Events struct {
	// OnOpen fires after every successful open; reconnected is false for the
	// open that completes Connect.
	OnOpen    func(reconnected bool)
	OnMessage func(frame core.Frame)
	// OnDrop fires on an unplanned close; a reconnection follows.
	OnDrop func(err error)
	// OnGiveUp fires when background reconnection stops without success.
	OnGiveUp func(err error)
}

// Channel is a reconnecting websocket. At most one physical connection
// exists at a time.
type Channel struct {
	opts Options
	ev   Events

	mu         sync.Mutex
	conn       Conn
	send       chan core.Frame
	connCancel context.CancelFunc
	lifeCancel context.CancelFunc
	life       context.Context
	manual     bool
	attempt    int
}

func NewChannel(opts Options, ev Events) *Channel {
	opts.Backoff = opts.Backoff.WithDefaults()
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	if opts.Dialer == nil {
		opts.Dialer = NewGorillaDialer(10 * time.Second)
	}
	if opts.After == nil {
		opts.After = time.After
	}
	return &Channel{opts: opts, ev: ev}
}

// Connect opens the connection, retrying transient failures with backoff.
// It returns once open, or with a *domain.ChannelError when retries are
// exhausted, the server refused the handshake, or Disconnect was called.
func (c *Channel) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.manual {
		c.mu.Unlock()
		return &domain.ChannelError{Op: "connect", Err: ErrChannelClosed}
	}
	if c.conn != nil {
		c.mu.Unlock()
		return nil
	}
	if c.lifeCancel != nil {
		c.lifeCancel()
	}
	c.life, c.lifeCancel = context.WithCancel(context.Background())
	c.attempt = 0
	life := c.life
	c.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(life, cancel)
	defer stop()

	return c.dialLoop(ctx, false, nil)
}

// Disconnect closes the connection with a normal-closure code and cancels
// any pending reconnection. It never triggers OnDrop. A disconnected
// Channel refuses further Connect calls.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	if c.manual && c.conn == nil {
		c.mu.Unlock()
		return
	}
	c.manual = true
	if c.lifeCancel != nil {
		c.lifeCancel()
	}
	conn := c.conn
	c.conn = nil
	if c.connCancel != nil {
		c.connCancel()
		c.connCancel = nil
	}
	c.mu.Unlock()

	if conn == nil {
		return
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "manual disconnect")
	if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.opts.WriteTimeout)); err != nil {
		log.Debug().Err(err).Str("module", "adapters.ws").Msg("close frame")
	}
	_ = conn.Close()
	log.Info().Str("module", "adapters.ws").Str("url", c.opts.URL).Msg("disconnected")
}

// Send queues a frame. While the channel is not open the frame is dropped
// with a warning; frames are never queued across reconnections.
func (c *Channel) Send(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		log.Warn().Str("module", "adapters.ws").Int("bytes", len(f)).Msg("channel not open, frame not sent")
		return ErrChannelClosed
	}
	select {
	case c.send <- f:
		return nil
	default:
		log.Warn().Str("module", "adapters.ws").Msg("send buffer full, frame dropped")
		return ErrBackpressure
	}
}

// IsOpen reports whether a physical connection is currently open.
func (c *Channel) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

func (c *Channel) dialLoop(ctx context.Context, reconnect bool, lastErr error) error {
	for first := !reconnect; ; first = false {
		if !first {
			delay, n, ok := c.nextDelay()
			if !ok {
				return &domain.ChannelError{Op: "connect", Attempts: n, Err: lastErr}
			}
			log.Warn().Str("module", "adapters.ws").
				Dur("delay", delay).
				Int("attempt", n).
				Int("max_retries", c.opts.Backoff.MaxRetries).
				Msg("reconnecting")
			select {
			case <-ctx.Done():
				return c.abortErr(ctx)
			case <-c.opts.After(delay):
			}
		}

		conn, resp, err := c.opts.Dialer.DialContext(ctx, c.opts.URL, c.opts.Header)
		if err == nil {
			if !c.attach(conn, reconnect) {
				_ = conn.Close()
				return &domain.ChannelError{Op: "connect", Err: ErrChannelClosed}
			}
			return nil
		}
		if ctx.Err() != nil {
			return c.abortErr(ctx)
		}
		if resp != nil && resp.StatusCode >= 400 && resp.StatusCode < 500 {
			log.Error().Err(err).Str("module", "adapters.ws").Int("status", resp.StatusCode).Msg("handshake rejected")
			return &domain.ChannelError{Op: "connect", Fatal: true, Err: err}
		}
		log.Error().Err(err).Str("module", "adapters.ws").Str("url", c.opts.URL).Msg("dial failed")
		lastErr = err
	}
}

func (c *Channel) abortErr(ctx context.Context) error {
	c.mu.Lock()
	manual := c.manual
	c.mu.Unlock()
	if manual {
		return &domain.ChannelError{Op: "connect", Err: ErrChannelClosed}
	}
	return &domain.ChannelError{Op: "connect", Err: ctx.Err()}
}

func (c *Channel) nextDelay() (time.Duration, int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.attempt >= c.opts.Backoff.MaxRetries {
		return 0, c.attempt, false
	}
	delay := c.opts.Backoff.Delay(c.attempt)
	c.attempt++
	return delay, c.attempt, true
}

func (c *Channel) attach(conn Conn, reconnected bool) bool {
	if c.opts.ReadLimit > 0 {
		conn.SetReadLimit(c.opts.ReadLimit)
	}

	c.mu.Lock()
	if c.manual {
		c.mu.Unlock()
		return false
	}
	c.conn = conn
	c.attempt = 0
	c.send = make(chan core.Frame, sendBuffer)
	ctx, cancel := context.WithCancel(c.life)
	c.connCancel = cancel
	send := c.send
	c.mu.Unlock()

	log.Info().Str("module", "adapters.ws").Str("url", c.opts.URL).Bool("reconnected", reconnected).Msg("connected")

	go c.writePump(ctx, conn, send)
	go c.pingLoop(ctx)
	if c.ev.OnOpen != nil {
		c.ev.OnOpen(reconnected)
	}
	go c.readPump(ctx, conn)
	return true
}

// handleClose runs when the read side of conn fails.
func (c *Channel) handleClose(conn Conn, err error) {
	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	if c.connCancel != nil {
		c.connCancel()
		c.connCancel = nil
	}
	manual := c.manual
	life := c.life
	c.mu.Unlock()

	_ = conn.Close()
	if manual {
		return
	}

	log.Warn().Err(err).Str("module", "adapters.ws").Msg("connection lost")
	if c.ev.OnDrop != nil {
		c.ev.OnDrop(err)
	}
	go c.reconnect(life, err)
}

func (c *Channel) reconnect(life context.Context, cause error) {
	err := c.dialLoop(life, true, cause)
	if err == nil {
		return
	}
	c.mu.Lock()
	manual := c.manual
	c.mu.Unlock()
	if manual {
		return
	}
	log.Error().Err(err).Str("module", "adapters.ws").Msg("giving up")
	if c.ev.OnGiveUp != nil {
		c.ev.OnGiveUp(err)
	}
}
