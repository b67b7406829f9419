package actor

import (
	"errors"
	"fmt"
)

// ErrUnreceivableSignal is the sentinel error returned when a Signal cannot
// legitimately be received in the state offered to it: the proposed
// reception time is not after when the signal was sent, the signal was
// handed to an actor it was never addressed to, or Signal.Receive itself
// rejects the state. Wrap it with fmt.Errorf("actor: ...: %w",
// ErrUnreceivableSignal) for context; compare with errors.Is.
var ErrUnreceivableSignal = errors.New("unreceivable signal")

// invariantViolation panics to signal a debug-only self-check failure: a
// bug in this package, not a fault in caller-supplied Signal or state
// types. Production builds have no recovery path for it; it indicates
// undefined behavior already occurred.
func invariantViolation(format string, args ...any) {
	panic("actor: invariant violation: " + fmt.Sprintf(format, args...))
}

// unreceivablef wraps ErrUnreceivableSignal with a formatted explanation.
func unreceivablef(format string, args ...any) error {
	return fmt.Errorf("actor: %w: "+format, append([]any{ErrUnreceivableSignal}, args...)...)
}
