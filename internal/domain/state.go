// Package domain contains entities without logic, just meta-data
package domain

// SessionState is the authoritative connection state of a session.
type SessionState string

const (
	StateDisconnected  SessionState = "disconnected"
	StateInitializing  SessionState = "initializing"
	StateInitialized   SessionState = "initialized"
	StateConnecting    SessionState = "connecting"
	StateConnected     SessionState = "connected"
	StateReady         SessionState = "ready"
	StateDisconnecting SessionState = "disconnecting"
	StateFailed        SessionState = "error"
)

func (s SessionState) String() string { return string(s) }

// In reports whether s is one of states.
func (s SessionState) In(states ...SessionState) bool {
	for _, st := range states {
		if s == st {
			return true
		}
	}
	return false
}
