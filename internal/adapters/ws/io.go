package ws

import (
	"context"
	"time"

	"github.com/dkeye/VoiceLink/internal/core"
	"github.com/dkeye/VoiceLink/internal/protocol"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func (c *Channel) writePump(ctx context.Context, conn Conn, send <-chan core.Frame) {
	for {
		select {
		case <-ctx.Done():
			return
		case data := <-send:
			if err := conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout)); err != nil {
				log.Error().Err(err).Str("module", "adapters.ws").Msg("writePump set deadline")
				_ = conn.Close()
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "adapters.ws").Msg("writePump write error")
				// the read side observes the close and decides about reconnection
				_ = conn.Close()
				return
			}
		}
	}
}

func (c *Channel) readPump(ctx context.Context, conn Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				log.Debug().Err(err).Str("module", "adapters.ws").Msg("readPump read error")
			}
			c.handleClose(conn, err)
			return
		}
		if c.ev.OnMessage != nil {
			c.ev.OnMessage(data)
		}
	}
}

// pingLoop emits keep-alive pings independent of application traffic.
func (c *Channel) pingLoop(ctx context.Context) {
	if c.opts.PingInterval <= 0 {
		return
	}
	ticker := time.NewTicker(c.opts.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.sendPing()
		}
	}
}

// sendPing queues a keep-alive ping and starts timing it. The pending ping
// is forgotten when the frame could not be queued.
func (c *Channel) sendPing() {
	env, err := protocol.NewEnvelope(protocol.TypePing, nil)
	if err != nil {
		return
	}
	frame, err := protocol.Encode(env, time.Now())
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.ws").Msg("encode ping")
		return
	}
	if c.opts.Probe != nil {
		c.opts.Probe.PingSent()
	}
	if err := c.Send(frame); err != nil && c.opts.Probe != nil {
		c.opts.Probe.Reset()
	}
}
