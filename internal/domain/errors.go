package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotReady         = errors.New("transport not in ready state")
	ErrPermissionDenied = errors.New("capture permission denied")
	ErrNoDevice         = errors.New("no matching capture device")
	ErrStaleSession     = errors.New("session closed before completion")
)

// ValidationError reports malformed connection parameters.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("validation error [%s]: %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("validation error [%s]: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// DeviceError reports a failed capture acquisition.
type DeviceError struct {
	Op  string
	Err error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("device error: %s: %v", e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

// ChannelError reports an open failure or an unexpected close.
// Fatal errors are never retried.
type ChannelError struct {
	Op       string
	Attempts int
	Fatal    bool
	Err      error
}

func (e *ChannelError) Error() string {
	if e.Attempts > 0 {
		return fmt.Sprintf("channel error: %s after %d retries: %v", e.Op, e.Attempts, e.Err)
	}
	return fmt.Sprintf("channel error: %s: %v", e.Op, e.Err)
}

func (e *ChannelError) Unwrap() error { return e.Err }

// ProtocolError reports a malformed inbound frame.
type ProtocolError struct {
	Frame string
	Err   error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error: %v (frame %q)", e.Err, e.Frame)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// StateError reports an operation called while its guard is unmet.
type StateError struct {
	Op      string
	State   SessionState
	Allowed []SessionState
}

func (e *StateError) Error() string {
	names := make([]string, 0, len(e.Allowed))
	for _, s := range e.Allowed {
		names = append(names, string(s))
	}
	return fmt.Sprintf("attempt to call %s when transport is %s, want one of [%s]",
		e.Op, e.State, strings.Join(names, ","))
}

// Is makes a ready-only guard failure match ErrNotReady.
func (e *StateError) Is(target error) bool {
	return target == ErrNotReady && len(e.Allowed) == 1 && e.Allowed[0] == StateReady
}
