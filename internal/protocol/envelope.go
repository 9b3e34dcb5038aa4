package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Label is the constant discriminator of this protocol family.
const Label = "rtvi-ai"

const (
	TypeClientReady    = "client-ready"
	TypePing           = "ping"
	TypePong           = "pong"
	TypeBotReady       = "bot-ready"
	TypeUserTranscript = "user-transcript"
	TypeBotLLMText     = "bot-llm-text"
	TypeBotTranscript  = "bot-transcript"
	TypeUserText       = "user-text"
	TypeError          = "error"
)

// DefaultVersion is the protocol version announced in the ready handshake.
const DefaultVersion = "1.0.0"

// Envelope is one message unit. It is a value; copies never share Data.
type Envelope struct {
	ID        string          `json:"id"`
	Label     string          `json:"label"`
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

// NewEnvelope builds an envelope with a fresh id. data may be nil.
func NewEnvelope(typ string, data any) (Envelope, error) {
	env := Envelope{ID: uuid.NewString(), Label: Label, Type: typ}
	if data == nil {
		return env, nil
	}
	if raw, ok := data.(json.RawMessage); ok {
		env.Data = append(json.RawMessage(nil), raw...)
		return env, nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", typ, err)
	}
	env.Data = b
	return env, nil
}

// Normalize fills the id and label when the caller omitted them.
func (e Envelope) Normalize() Envelope {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.Label = Label
	if e.Data != nil {
		e.Data = append(json.RawMessage(nil), e.Data...)
	}
	return e
}

// DecodeData unmarshals the payload into v.
func (e Envelope) DecodeData(v any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("%s: empty payload", e.Type)
	}
	return json.Unmarshal(e.Data, v)
}
