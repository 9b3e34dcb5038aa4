package app

import "github.com/dkeye/VoiceLink/internal/domain"

// Guard rejects operations whose state precondition is unmet. The check
// runs before the wrapped operation has any side effect.
type Guard struct {
	sm *StateMachine
}

func NewGuard(sm *StateMachine) Guard {
	return Guard{sm: sm}
}

// RequireReady fails with a *domain.StateError matching domain.ErrNotReady.
func (g Guard) RequireReady(op string) error {
	return g.RequireState(op, domain.StateReady)
}

func (g Guard) RequireState(op string, allowed ...domain.SessionState) error {
	state := g.sm.State()
	if state.In(allowed...) {
		return nil
	}
	return &domain.StateError{Op: op, State: state, Allowed: allowed}
}

// Ready runs fn only while the session is ready.
func (g Guard) Ready(op string, fn func() error) error {
	if err := g.RequireReady(op); err != nil {
		return err
	}
	return fn()
}
