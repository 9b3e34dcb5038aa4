package app

import (
	"sync"

	"github.com/dkeye/VoiceLink/internal/domain"
	"github.com/rs/zerolog/log"
)

var transitions = map[domain.SessionState][]domain.SessionState{
	domain.StateDisconnected:  {domain.StateInitializing, domain.StateConnecting},
	domain.StateInitializing:  {domain.StateInitialized, domain.StateFailed, domain.StateDisconnecting},
	domain.StateInitialized:   {domain.StateConnecting, domain.StateFailed, domain.StateDisconnecting},
	domain.StateConnecting:    {domain.StateConnected, domain.StateFailed, domain.StateDisconnecting},
	domain.StateConnected:     {domain.StateReady, domain.StateFailed, domain.StateDisconnecting},
	domain.StateReady:         {domain.StateFailed, domain.StateDisconnecting},
	domain.StateDisconnecting: {domain.StateDisconnected},
	domain.StateFailed:        {domain.StateInitializing, domain.StateConnecting, domain.StateDisconnecting, domain.StateDisconnected},
}

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to domain.SessionState) bool {
	return to.In(transitions[from]...)
}

// StateMachine holds the authoritative session state. Every session attempt
// gets a new epoch; completions carrying an older epoch are rejected so a
// late success cannot revive a closed session.
type StateMachine struct {
	mu       sync.Mutex
	state    domain.SessionState
	epoch    uint64
	dispatch *Dispatcher
	onChange func(domain.SessionState)
}

func NewStateMachine(d *Dispatcher, onChange func(domain.SessionState)) *StateMachine {
	if d == nil {
		d = NewDispatcher()
	}
	return &StateMachine{state: domain.StateDisconnected, dispatch: d, onChange: onChange}
}

func (m *StateMachine) State() domain.SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *StateMachine) Epoch() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.epoch
}

// Current reports whether epoch still identifies the active attempt.
func (m *StateMachine) Current(epoch uint64) bool {
	return m.Epoch() == epoch
}

// Begin starts a new attempt from disconnected or error.
func (m *StateMachine) Begin(op string, to domain.SessionState) (uint64, error) {
	m.mu.Lock()
	if !m.state.In(domain.StateDisconnected, domain.StateFailed) || !CanTransition(m.state, to) {
		err := &domain.StateError{Op: op, State: m.state, Allowed: []domain.SessionState{domain.StateDisconnected, domain.StateFailed}}
		m.mu.Unlock()
		return 0, err
	}
	m.epoch++
	epoch := m.epoch
	m.setLocked(to)
	m.mu.Unlock()
	m.dispatch.Flush()
	return epoch, nil
}

// Advance moves from -> to only if epoch is current and the state is still
// from. It returns false for stale or illegal transitions.
func (m *StateMachine) Advance(epoch uint64, from, to domain.SessionState) bool {
	m.mu.Lock()
	if epoch != m.epoch || m.state != from || !CanTransition(from, to) {
		log.Debug().Str("module", "app.state").
			Str("state", m.state.String()).
			Str("from", from.String()).
			Str("to", to.String()).
			Bool("stale", epoch != m.epoch).
			Msg("transition rejected")
		m.mu.Unlock()
		return false
	}
	m.setLocked(to)
	m.mu.Unlock()
	m.dispatch.Flush()
	return true
}

// Fail moves the current attempt to error from any state that allows it.
func (m *StateMachine) Fail(epoch uint64) bool {
	m.mu.Lock()
	if epoch != m.epoch || !CanTransition(m.state, domain.StateFailed) {
		m.mu.Unlock()
		return false
	}
	m.setLocked(domain.StateFailed)
	m.mu.Unlock()
	m.dispatch.Flush()
	return true
}

// BeginDisconnect invalidates the current attempt and enters disconnecting.
// It returns false when the session is already disconnected or on its way.
func (m *StateMachine) BeginDisconnect() (uint64, bool) {
	m.mu.Lock()
	if m.state.In(domain.StateDisconnected, domain.StateDisconnecting) {
		m.mu.Unlock()
		return 0, false
	}
	m.epoch++
	epoch := m.epoch
	m.setLocked(domain.StateDisconnecting)
	m.mu.Unlock()
	m.dispatch.Flush()
	return epoch, true
}

// Finish completes a teardown started by BeginDisconnect.
func (m *StateMachine) Finish(epoch uint64) bool {
	return m.Advance(epoch, domain.StateDisconnecting, domain.StateDisconnected)
}

func (m *StateMachine) setLocked(to domain.SessionState) {
	if m.state == to {
		return
	}
	from := m.state
	m.state = to
	log.Info().Str("module", "app.state").Str("from", from.String()).Str("to", to.String()).Uint64("epoch", m.epoch).Msg("state changed")
	if m.onChange != nil {
		fn := m.onChange
		m.dispatch.Enqueue(func() { fn(to) })
	}
}
