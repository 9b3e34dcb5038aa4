package agent

import (
	"context"
	"time"

	"github.com/dkeye/VoiceLink/internal/protocol"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func (ctl *Controller) writePump(ctx context.Context, c *agentConn) {
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "agent").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "agent").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, c *agentConn) {
	defer func() {
		ctl.forget(c)
		c.Close()
		log.Info().Str("module", "agent").Str("conn_id", c.id).Msg("readPump closing")
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				log.Info().Str("module", "agent").Str("conn_id", c.id).Msg("client closed")
			} else if ctx.Err() == nil {
				log.Warn().Err(err).Str("module", "agent").Str("conn_id", c.id).Msg("readPump read error")
			}
			return
		}
		ctl.handleSignal(c, data)
	}
}

func (ctl *Controller) pingLoop(ctx context.Context, c *agentConn) {
	if ctl.opts.PingPeriod <= 0 {
		return
	}
	ticker := time.NewTicker(ctl.opts.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := ctl.sendEnvelope(c, protocol.TypePing, nil); err != nil {
				return
			}
		}
	}
}

func (ctl *Controller) handleSignal(c *agentConn, data []byte) {
	env, err := protocol.Decode(data)
	if err != nil {
		log.Error().Err(err).Str("module", "agent").Msg("bad frame")
		return
	}

	switch env.Type {
	case protocol.TypeClientReady:
		ctl.handleReady(c, env)
	case protocol.TypePing:
		ctl.handlePing(c)
	case protocol.TypePong:
		log.Debug().Str("module", "agent").Str("conn_id", c.id).Msg("pong")
	case protocol.TypeUserText:
		ctl.handleUserText(c, env)
	default:
		log.Warn().Str("module", "agent").Str("type", env.Type).Msg("unknown message")
	}
}

func (ctl *Controller) sendEnvelope(c *agentConn, typ string, data any) error {
	env, err := protocol.NewEnvelope(typ, data)
	if err != nil {
		log.Error().Err(err).Str("module", "agent").Msg("sendEnvelope build")
		return err
	}
	b, err := protocol.Encode(env, time.Now())
	if err != nil {
		log.Error().Err(err).Str("module", "agent").Msg("sendEnvelope encode")
		return err
	}
	if err := c.TrySend(b); err != nil {
		log.Warn().Err(err).Str("module", "agent").Str("type", typ).Msg("sendEnvelope dropped")
		return err
	}
	return nil
}
