package core

import (
	"time"

	"github.com/dkeye/VoiceLink/internal/domain"
	"github.com/dkeye/VoiceLink/internal/protocol"
)

// Callbacks is the handler set supplied once at construction.
// Any nil handler is skipped.
type Callbacks struct {
	Connected             func()
	Disconnected          func()
	Error                 func(err error)
	TransportStateChanged func(state domain.SessionState)
	MicUpdated            func(mic domain.Device)
	MessageReceived       func(env protocol.Envelope)

	BotReady       func(env protocol.Envelope)
	UserTranscript func(t protocol.Transcript)
	BotText        func(t protocol.BotText)
	LatencyUpdated func(latency time.Duration)
	TrackStarted   func(track Track, participant domain.Participant, kind domain.TrackKind)
}
