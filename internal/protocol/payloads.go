package protocol

// ReadyData is the client-ready payload.
type ReadyData struct {
	Version string `json:"version"`
}

// Transcript is a user-transcript payload.
type Transcript struct {
	Text      string `json:"text"`
	Final     bool   `json:"final"`
	Timestamp string `json:"timestamp,omitempty"`
	UserID    string `json:"user_id,omitempty"`
}

// BotText is a bot-llm-text or bot-transcript payload.
type BotText struct {
	Text string `json:"text"`
}

// ErrorData is the payload of an error message.
type ErrorData struct {
	Message string `json:"message"`
	Fatal   bool   `json:"fatal"`
}

// ReadyMessage builds the client-ready handshake.
func ReadyMessage(version string) (Envelope, error) {
	if version == "" {
		version = DefaultVersion
	}
	return NewEnvelope(TypeClientReady, ReadyData{Version: version})
}
