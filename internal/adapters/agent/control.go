package agent

import (
	"github.com/dkeye/VoiceLink/internal/protocol"
	"github.com/rs/zerolog/log"
)

// BotReadyData is the payload of the agent's bot-ready answer.
type BotReadyData struct {
	Version string `json:"version"`
	Name    string `json:"name"`
}

type userText struct {
	Text string `json:"text"`
}

func (ctl *Controller) handleReady(c *agentConn, env protocol.Envelope) {
	var ready protocol.ReadyData
	if err := env.DecodeData(&ready); err != nil {
		log.Warn().Err(err).Str("module", "agent").Msg("client-ready without version")
	}
	if ready.Version == "" {
		ready.Version = protocol.DefaultVersion
	}
	log.Info().Str("module", "agent").Str("conn_id", c.id).Str("version", ready.Version).Msg("client ready")
	_ = ctl.sendEnvelope(c, protocol.TypeBotReady, BotReadyData{Version: ready.Version, Name: ctl.opts.Name})
}

func (ctl *Controller) handlePing(c *agentConn) {
	_ = ctl.sendEnvelope(c, protocol.TypePong, nil)
}

func (ctl *Controller) handleUserText(c *agentConn, env protocol.Envelope) {
	if !ctl.limiter.Allow(c.token) {
		log.Warn().Str("module", "agent").Str("client_token", c.token).Msg("user-text rate limited")
		_ = ctl.sendEnvelope(c, protocol.TypeError, protocol.ErrorData{Message: "rate limited"})
		return
	}
	var in userText
	if err := env.DecodeData(&in); err != nil || in.Text == "" {
		_ = ctl.sendEnvelope(c, protocol.TypeError, protocol.ErrorData{Message: "user-text requires text"})
		return
	}
	_ = ctl.sendEnvelope(c, protocol.TypeUserTranscript, protocol.Transcript{Text: in.Text, Final: true, UserID: c.token})
	_ = ctl.sendEnvelope(c, protocol.TypeBotLLMText, protocol.BotText{Text: in.Text})
}
