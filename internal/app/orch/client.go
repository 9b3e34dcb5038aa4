// Package orch wires the session layer together: state machine, guard,
// reconnecting channel, codec, device and track registries.
package orch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dkeye/VoiceLink/internal/adapters/ws"
	"github.com/dkeye/VoiceLink/internal/app"
	"github.com/dkeye/VoiceLink/internal/config"
	"github.com/dkeye/VoiceLink/internal/core"
	"github.com/dkeye/VoiceLink/internal/domain"
	"github.com/dkeye/VoiceLink/internal/protocol"
	"github.com/rs/zerolog/log"
)

type Options struct {
	EnableMic       bool
	EnableCam       bool
	ProtocolVersion string
	Backoff         ws.BackoffConfig
	PingInterval    time.Duration
	WriteTimeout    time.Duration
	ReadLimit       int64

	// Dialer and After are replaced in tests.
	Dialer ws.Dialer
	After  func(time.Duration) <-chan time.Time
	Now    func() time.Time
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		EnableMic:       cfg.EnableMic,
		EnableCam:       cfg.EnableCam,
		ProtocolVersion: cfg.ProtocolVersion,
		Backoff: ws.BackoffConfig{
			BaseDelay:  cfg.Reconnect.BaseDelay,
			MaxDelay:   cfg.Reconnect.MaxDelay,
			MaxRetries: cfg.Reconnect.MaxRetries,
		},
		PingInterval: cfg.PingPeriod,
		WriteTimeout: cfg.WriteTimeout,
		ReadLimit:    cfg.ReadLimit,
	}
}

// Client is one session with a remote agent.
type Client struct {
	opts     Options
	cb       core.Callbacks
	dispatch *app.Dispatcher
	state    *app.StateMachine
	guard    app.Guard
	devices  *app.DeviceRegistry
	tracks   *app.TrackRegistry
	probe    *protocol.LatencyProbe

	mu      sync.Mutex
	channel *ws.Channel
}

func New(opts Options, media core.MediaDevices, cb core.Callbacks) *Client {
	if opts.ProtocolVersion == "" {
		opts.ProtocolVersion = protocol.DefaultVersion
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	d := app.NewDispatcher()
	sm := app.NewStateMachine(d, cb.TransportStateChanged)
	return &Client{
		opts:     opts,
		cb:       cb,
		dispatch: d,
		state:    sm,
		guard:    app.NewGuard(sm),
		devices:  app.NewDeviceRegistry(media, opts.EnableCam, d, cb.MicUpdated),
		tracks:   app.NewTrackRegistry(),
		probe:    protocol.NewLatencyProbeWithClock(opts.Now),
	}
}

// Connect runs the whole handshake and returns once the session is ready.
// Transient dial failures are retried with backoff before it gives up.
func (c *Client) Connect(ctx context.Context, params domain.ConnectionParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	withDevices := c.opts.EnableMic || c.opts.EnableCam
	first := domain.StateConnecting
	if withDevices {
		first = domain.StateInitializing
	}
	epoch, err := c.state.Begin("connect", first)
	if err != nil {
		return err
	}
	log.Info().Str("module", "app.orch").Str("url", params.URL).Uint64("epoch", epoch).Msg("connecting")

	if withDevices {
		if err := c.initDevices(ctx, epoch); err != nil {
			return err
		}
		if !c.state.Advance(epoch, domain.StateInitialized, domain.StateConnecting) {
			return domain.ErrStaleSession
		}
	}

	ch := ws.NewChannel(ws.Options{
		URL:          params.URL,
		Header:       params.Header,
		Backoff:      c.opts.Backoff,
		PingInterval: c.opts.PingInterval,
		WriteTimeout: c.opts.WriteTimeout,
		ReadLimit:    c.opts.ReadLimit,
		Dialer:       c.opts.Dialer,
		Probe:        c.probe,
		After:        c.opts.After,
	}, ws.Events{
		OnOpen:    func(reconnected bool) { c.onOpen(epoch, reconnected) },
		OnMessage: c.onFrame,
		OnDrop:    c.onDrop,
		OnGiveUp:  func(err error) { c.abandon(epoch, err) },
	})
	c.mu.Lock()
	if !c.state.Current(epoch) {
		c.mu.Unlock()
		return domain.ErrStaleSession
	}
	c.channel = ch
	c.mu.Unlock()

	if err := ch.Connect(ctx); err != nil {
		if !c.state.Current(epoch) {
			return domain.ErrStaleSession
		}
		var cerr *domain.ChannelError
		if errors.As(err, &cerr) && cerr.Fatal {
			if c.state.Fail(epoch) {
				c.release()
				c.emitError(err)
			}
			return err
		}
		c.abandon(epoch, err)
		return err
	}

	if !c.state.Advance(epoch, domain.StateConnecting, domain.StateConnected) {
		ch.Disconnect()
		return domain.ErrStaleSession
	}
	c.dispatch.Post(c.cb.Connected)

	if err := c.sendReady(); err != nil {
		log.Warn().Err(err).Str("module", "app.orch").Msg("ready handshake not sent")
	}
	if !c.state.Advance(epoch, domain.StateConnected, domain.StateReady) {
		return domain.ErrStaleSession
	}
	log.Info().Str("module", "app.orch").Str("url", params.URL).Msg("session ready")
	return nil
}

func (c *Client) initDevices(ctx context.Context, epoch uint64) error {
	err := c.devices.Acquire(ctx, func() bool { return c.state.Current(epoch) })
	if errors.Is(err, domain.ErrStaleSession) {
		return err
	}
	if err != nil {
		if c.state.Fail(epoch) {
			c.emitError(err)
		}
		return err
	}
	if !c.opts.EnableMic {
		c.devices.EnableMic(false)
	}
	if !c.state.Advance(epoch, domain.StateInitializing, domain.StateInitialized) {
		return domain.ErrStaleSession
	}
	return nil
}

// Disconnect tears the session down. Calling it again, or on a session that
// never connected, does nothing.
func (c *Client) Disconnect() {
	epoch, ok := c.state.BeginDisconnect()
	if !ok {
		return
	}
	c.release()
	if c.state.Finish(epoch) {
		c.dispatch.Post(c.cb.Disconnected)
	}
	log.Info().Str("module", "app.orch").Msg("session closed")
}

func (c *Client) release() {
	c.mu.Lock()
	ch := c.channel
	c.channel = nil
	c.mu.Unlock()

	if ch != nil {
		ch.Disconnect()
	}
	c.devices.Release()
	c.tracks.Reset()
	c.probe.Reset()
}

// abandon reports err and closes the session when the channel gave up.
func (c *Client) abandon(epoch uint64, err error) {
	if !c.state.Current(epoch) {
		return
	}
	log.Error().Err(err).Str("module", "app.orch").Msg("channel gave up")
	c.emitError(err)
	c.Disconnect()
}

func (c *Client) emitError(err error) {
	if c.cb.Error == nil {
		return
	}
	fn := c.cb.Error
	c.dispatch.Post(func() { fn(err) })
}

func (c *Client) State() domain.SessionState { return c.state.State() }

func (c *Client) Latency() time.Duration { return c.probe.Latency() }

func (c *Client) LatencyMs() int64 { return c.probe.Latency().Milliseconds() }
