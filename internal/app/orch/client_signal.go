package orch

import (
	"errors"

	"github.com/dkeye/VoiceLink/internal/adapters/ws"
	"github.com/dkeye/VoiceLink/internal/core"
	"github.com/dkeye/VoiceLink/internal/domain"
	"github.com/dkeye/VoiceLink/internal/protocol"
	"github.com/rs/zerolog/log"
)

// Send transmits an application message. It is rejected with an error
// matching domain.ErrNotReady unless the session is ready. A ping starts
// the latency timer.
func (c *Client) Send(env protocol.Envelope) error {
	return c.guard.Ready("send", func() error {
		if env.Type != protocol.TypePing {
			return c.transmit(env)
		}
		c.probe.PingSent()
		sent, err := c.queue(env)
		if !sent {
			c.probe.Reset()
		}
		return err
	})
}

// SendMessage builds an envelope of the given type and sends it.
func (c *Client) SendMessage(typ string, data any) error {
	if err := c.guard.RequireReady("send"); err != nil {
		return err
	}
	env, err := protocol.NewEnvelope(typ, data)
	if err != nil {
		return err
	}
	return c.Send(env)
}

func (c *Client) sendReady() error {
	env, err := protocol.ReadyMessage(c.opts.ProtocolVersion)
	if err != nil {
		return err
	}
	return c.transmit(env)
}

// transmit encodes and queues env. A frame sent while the channel is
// reconnecting is dropped by the channel with a warning.
func (c *Client) transmit(env protocol.Envelope) error {
	_, err := c.queue(env)
	return err
}

// queue reports whether env reached the send buffer.
func (c *Client) queue(env protocol.Envelope) (bool, error) {
	c.mu.Lock()
	ch := c.channel
	c.mu.Unlock()
	if ch == nil {
		log.Warn().Str("module", "app.orch").Str("type", env.Type).Msg("no channel, message not sent")
		return false, nil
	}
	frame, err := protocol.Encode(env, c.opts.Now())
	if err != nil {
		return false, err
	}
	if err := ch.Send(frame); err != nil {
		if errors.Is(err, ws.ErrChannelClosed) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (c *Client) onOpen(epoch uint64, reconnected bool) {
	if !reconnected || !c.state.Current(epoch) {
		return
	}
	// state stays ready across a transparent reconnection
	log.Info().Str("module", "app.orch").Str("state", c.state.State().String()).Msg("channel reopened, repeating handshake")
	if err := c.sendReady(); err != nil {
		log.Warn().Err(err).Str("module", "app.orch").Msg("ready handshake not sent")
	}
}

func (c *Client) onDrop(err error) {
	c.probe.Reset()
	log.Warn().Err(err).Str("module", "app.orch").Msg("channel dropped, reconnecting")
}

func (c *Client) onFrame(frame core.Frame) {
	env, err := protocol.Decode(frame)
	if err != nil {
		log.Warn().Err(err).Str("module", "app.orch").Msg("dropping malformed frame")
		return
	}

	switch env.Type {
	case protocol.TypePong:
		if d, ok := c.probe.PongReceived(); ok {
			log.Debug().Str("module", "app.orch").Dur("latency", d).Msg("pong")
			if fn := c.cb.LatencyUpdated; fn != nil {
				c.dispatch.Post(func() { fn(d) })
			}
		}
		return
	case protocol.TypePing:
		pong, err := protocol.NewEnvelope(protocol.TypePong, nil)
		if err == nil {
			err = c.transmit(pong)
		}
		if err != nil {
			log.Warn().Err(err).Str("module", "app.orch").Msg("pong not sent")
		}
		return
	}

	if fn := c.cb.MessageReceived; fn != nil {
		c.dispatch.Enqueue(func() { fn(env) })
	}
	c.enqueueTyped(env)
	c.dispatch.Flush()
}

func (c *Client) enqueueTyped(env protocol.Envelope) {
	switch env.Type {
	case protocol.TypeBotReady:
		if fn := c.cb.BotReady; fn != nil {
			c.dispatch.Enqueue(func() { fn(env) })
		}
	case protocol.TypeUserTranscript:
		var t protocol.Transcript
		if !decodeTyped(env, &t) {
			return
		}
		if fn := c.cb.UserTranscript; fn != nil {
			c.dispatch.Enqueue(func() { fn(t) })
		}
	case protocol.TypeBotLLMText, protocol.TypeBotTranscript:
		var t protocol.BotText
		if !decodeTyped(env, &t) {
			return
		}
		if fn := c.cb.BotText; fn != nil {
			c.dispatch.Enqueue(func() { fn(t) })
		}
	case protocol.TypeError:
		var e protocol.ErrorData
		if decodeTyped(env, &e) {
			log.Warn().Str("module", "app.orch").Str("message", e.Message).Bool("fatal", e.Fatal).Msg("agent reported error")
		}
	}
}

func decodeTyped(env protocol.Envelope, v any) bool {
	if err := env.DecodeData(v); err != nil {
		perr := &domain.ProtocolError{Frame: string(env.Data), Err: err}
		log.Warn().Err(perr).Str("module", "app.orch").Str("type", env.Type).Msg("bad payload")
		return false
	}
	return true
}
