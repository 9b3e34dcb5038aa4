package protocol

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/dkeye/VoiceLink/internal/domain"
)

var ErrMissingType = errors.New("missing message type")

type wireMessage struct {
	ID        string          `json:"id,omitempty"`
	Label     string          `json:"label,omitempty"`
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp,omitempty"`
}

// Encode serializes env stamped with now in unix milliseconds.
func Encode(env Envelope, now time.Time) ([]byte, error) {
	if env.Type == "" {
		return nil, ErrMissingType
	}
	env = env.Normalize()
	return json.Marshal(wireMessage{
		ID:        env.ID,
		Label:     env.Label,
		Type:      env.Type,
		Data:      env.Data,
		Timestamp: now.UnixMilli(),
	})
}

// Decode parses an inbound frame. Missing ids are generated and the label is
// forced to Label. Failures are returned as *domain.ProtocolError.
func Decode(frame []byte) (Envelope, error) {
	var msg wireMessage
	if err := json.Unmarshal(frame, &msg); err != nil {
		return Envelope{}, &domain.ProtocolError{Frame: clip(frame), Err: err}
	}
	if msg.Type == "" {
		return Envelope{}, &domain.ProtocolError{Frame: clip(frame), Err: ErrMissingType}
	}
	if string(msg.Data) == "null" {
		msg.Data = nil
	}
	env := Envelope{
		ID:        msg.ID,
		Type:      msg.Type,
		Data:      msg.Data,
		Timestamp: msg.Timestamp,
	}
	return env.Normalize(), nil
}

func clip(frame []byte) string {
	const max = 128
	if len(frame) > max {
		return string(frame[:max]) + "..."
	}
	return string(frame)
}
