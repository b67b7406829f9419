package actor

import (
	"reflect"
	"sync"

	"github.com/BenedictAdamson/desim/metrics"
)

// Actor owns a StateHistory, an ordered log of past Events, and a pending
// set of incoming Signals. All mutating operations are linearized by an
// internal lock; operations on distinct actors proceed independently and
// in parallel. See §5 for the full concurrency contract.
type Actor[S any] struct {
	mu      sync.RWMutex
	start   Time
	history *StateHistory[S]
	events  []*Event[S] // kept sorted ascending by the §3 total order
	pending map[Signal[S]]struct{}
	whenNext Time
}

// NewActor constructs an actor that begins existing at start, in state
// initial.
func NewActor[S any](start Time, initial S) *Actor[S] {
	return &Actor[S]{
		start:    start,
		history:  NewStateHistory(start, &initial),
		pending:  map[Signal[S]]struct{}{},
		whenNext: NeverReceived,
	}
}

// Start is the time this actor began existing. It is constant except that
// ClearEventsBefore may advance it.
func (a *Actor[S]) Start() Time {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.start
}

// WhenReceiveNextSignal is the cached earliest reception time across all
// currently pending signals, or NeverReceived if none are pending or every
// pending signal would be received only after this actor is destroyed.
func (a *Actor[S]) WhenReceiveNextSignal() Time {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.whenNext
}

// StateHistory returns a snapshot of the actor's state history. Mutating
// the returned value has no effect on the actor.
func (a *Actor[S]) StateHistory() *StateHistory[S] {
	a.mu.RLock()
	defer a.mu.RUnlock()
	cp := &StateHistory[S]{start: a.history.start, transitions: append([]transition[S](nil), a.history.transitions...)}
	return cp
}

// Events returns a snapshot of the actor's event log, in ascending total
// order.
func (a *Actor[S]) Events() []*Event[S] {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]*Event[S](nil), a.events...)
}

// SignalsToReceive returns a snapshot of the currently pending signals.
func (a *Actor[S]) SignalsToReceive() []Signal[S] {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]Signal[S], 0, len(a.pending))
	for s := range a.pending {
		out = append(out, s)
	}
	return out
}

// LastEvent returns the most recent event (by total order), if any.
func (a *Actor[S]) LastEvent() (*Event[S], bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.lastEventLocked()
}

func (a *Actor[S]) lastEventLocked() (*Event[S], bool) {
	if len(a.events) == 0 {
		return nil, false
	}
	return a.events[len(a.events)-1], true
}

// AddSignalToReceive enqueues sig as pending on this actor. sig.Receiver()
// must be this actor and sig.WhenSent() must not be before this actor's
// Start; otherwise it fails with ErrUnreceivableSignal. Insertion is
// idempotent: adding the same signal twice has the same effect as once.
// This does not execute reception.
func (a *Actor[S]) AddSignalToReceive(sig Signal[S]) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.addSignalToReceiveLocked(sig)
}

func (a *Actor[S]) addSignalToReceiveLocked(sig Signal[S]) error {
	if sig.Receiver() != a {
		metrics.IncUnreceivableSignals(1)
		return unreceivablef("signal addressed to a different actor")
	}
	if sig.WhenSent() < a.start {
		metrics.IncUnreceivableSignals(1)
		return unreceivablef("signal sent at %s before actor start %s", sig.WhenSent(), a.start)
	}
	a.pending[sig] = struct{}{}
	metrics.IncSignalsQueued(1)
	a.recomputeWhenNextLocked()
	return nil
}

// recomputeWhenNextLocked scans every pending signal and caches the
// smallest reception time, or NeverReceived if none are pending, or if
// none can currently be resolved (e.g. a malformed Signal errors out of
// PropagationDelay, which is treated conservatively as "not yet
// receivable").
func (a *Actor[S]) recomputeWhenNextLocked() {
	best := NeverReceived
	for sig := range a.pending {
		t, err := a.whenReceivedLocked(sig)
		if err != nil {
			continue
		}
		if t < best {
			best = t
		}
	}
	a.whenNext = best
}

// whenReceivedLocked finds the smallest t > sig.WhenSent() such that t ==
// sig.WhenSent() + sig.PropagationDelay(history.At(t)), per §3's
// time-varying definition, by walking forward through the history's
// transitions until the delay computed at the probe point is consistent
// with no intervening state change. It returns NeverReceived, nil if the
// state at the would-be reception time is nil (the actor has been
// destroyed by then).
func (a *Actor[S]) whenReceivedLocked(sig Signal[S]) (Time, error) {
	t := sig.WhenSent()
	for {
		state := a.history.At(t)
		if state == nil {
			return NeverReceived, nil
		}
		candidate, err := WhenReceived(sig, state)
		if err != nil {
			return 0, err
		}
		if candidate == NeverReceived {
			return NeverReceived, nil
		}
		nextT, ok := a.history.nextTransitionAfter(t)
		if !ok || nextT > candidate {
			return candidate, nil
		}
		t = nextT
	}
}

// ReceiveSignal selects the single pending signal with the smallest
// reception time under the current state history (ties broken by signal
// construction order), and processes it. If the reception time is not after
// every recorded event, every event from the reception time forward is
// first rolled back and its causing signal returned to the pending set,
// where later calls receive it again. The selected signal is then committed
// as a new event. See §4.3 for the full algorithm.
func (a *Actor[S]) ReceiveSignal() (AffectedActors[S], error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.receiveSignalLocked()
}

func (a *Actor[S]) receiveSignalLocked() (AffectedActors[S], error) {
	if len(a.pending) == 0 {
		return AffectedActors[S]{}, nil
	}

	sig, tRecv, err := a.selectNextSignalLocked()
	if err != nil {
		return AffectedActors[S]{}, err
	}
	if tRecv == NeverReceived {
		// Nothing currently pending can be received; leave everything as is.
		return AffectedActors[S]{}, nil
	}

	result := AffectedActors[S]{}
	if lastEvent, ok := a.lastEventLocked(); ok && tRecv <= lastEvent.When() {
		invalidated, err := a.invalidateFromLocked(tRecv, nil)
		if err != nil {
			return AffectedActors[S]{}, err
		}
		result = result.Plus(invalidated)
	}

	committed, err := a.commitReceptionLocked(sig, tRecv)
	if err != nil {
		return AffectedActors[S]{}, err
	}
	result = result.Plus(committed)

	a.recomputeWhenNextLocked()
	return result, nil
}

// selectNextSignalLocked implements the argmin of §4.3 step 2.
func (a *Actor[S]) selectNextSignalLocked() (Signal[S], Time, error) {
	var (
		best     Signal[S]
		bestWhen = NeverReceived
	)
	for sig := range a.pending {
		t, err := a.whenReceivedLocked(sig)
		if err != nil {
			return nil, 0, err
		}
		if t == NeverReceived {
			continue
		}
		if best == nil || t < bestWhen || (t == bestWhen && sig.signalSeq() < best.signalSeq()) {
			best, bestWhen = sig, t
		}
	}
	if best == nil {
		return nil, NeverReceived, nil
	}
	return best, bestWhen, nil
}

// commitReceptionLocked runs §4.3 step 3: compute and commit the event for
// sig at tRecv, post any emitted signals, and return the actors affected.
func (a *Actor[S]) commitReceptionLocked(sig Signal[S], tRecv Time) (AffectedActors[S], error) {
	prevailing := a.history.At(tRecv)
	event, err := sig.Receive(tRecv, prevailing)
	if err != nil {
		metrics.IncUnreceivableSignals(1)
		return AffectedActors[S]{}, err
	}
	if event.AffectedObject() != a {
		return AffectedActors[S]{}, unreceivablef("Signal.Receive produced an event for the wrong actor")
	}
	if event.When() != tRecv {
		return AffectedActors[S]{}, unreceivablef("Signal.Receive produced an event at the wrong time")
	}

	if !statesEqual(prevailing, event.StateAfter()) {
		if err := a.history.AppendTransition(tRecv, event.StateAfter()); err != nil {
			return AffectedActors[S]{}, err
		}
	}
	a.events = append(a.events, event)
	delete(a.pending, sig)

	result := changedActors(a)
	for _, created := range event.CreatedActors() {
		result = result.Plus(addedActors(created))
	}
	for _, emitted := range event.SignalsEmitted() {
		receiver := emitted.Receiver()
		var postErr error
		if receiver == a {
			postErr = a.addSignalToReceiveLocked(emitted)
		} else {
			postErr = receiver.AddSignalToReceive(emitted)
		}
		if postErr != nil {
			return AffectedActors[S]{}, postErr
		}
		result = result.Plus(changedActors(receiver))
	}
	return result, nil
}

// invalidateFromLocked implements §4.3 step 4 / §4.4's shared rollback:
// discard every event at or after t, in descending order, truncating the
// state history, recursively un-receiving every signal any of those events
// emitted, and re-queueing each rolled-back event's causing signal as
// pending again — it is still in flight as far as its sender is concerned,
// per §9's resolution of the open question on re-queueing during
// invalidation. exclude, if non-nil, names a causing signal to leave out of
// that re-queue (RemoveSignal's target: the caller wants it invalidated,
// not re-received).
func (a *Actor[S]) invalidateFromLocked(t Time, exclude Signal[S]) (AffectedActors[S], error) {
	cut := len(a.events)
	for cut > 0 && a.events[cut-1].When() >= t {
		cut--
	}
	bad := a.events[cut:]
	a.events = a.events[:cut]
	a.history.TruncateFrom(t)
	if len(bad) > 0 {
		metrics.IncInvalidations(len(bad))
	}

	result := AffectedActors[S]{}
	for i := len(bad) - 1; i >= 0; i-- {
		e := bad[i]
		for _, emitted := range e.SignalsEmitted() {
			receiver := emitted.Receiver()
			var removed AffectedActors[S]
			if receiver == a {
				removed = a.removeSignalLocked(emitted)
			} else {
				removed = receiver.RemoveSignal(emitted)
			}
			result = result.Plus(removed)
		}
		for _, created := range e.CreatedActors() {
			result = result.Plus(removedActors(created))
		}
		if cs := e.CausingSignal(); cs != exclude {
			if err := a.addSignalToReceiveLocked(cs); err != nil {
				invariantViolation("re-queueing invalidated causing signal failed: %s", err)
			}
		}
	}
	return result, nil
}

// RemoveSignal removes sig whether it is still pending or has already
// caused one of this actor's events. In the latter case every event at or
// after that event's time is rolled back, and the signals those events
// emitted are removed from their receivers. Removing a signal that is
// neither pending here nor the cause of one of this actor's events is a
// no-op. See §4.4.
func (a *Actor[S]) RemoveSignal(sig Signal[S]) AffectedActors[S] {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.removeSignalLocked(sig)
}

func (a *Actor[S]) removeSignalLocked(sig Signal[S]) AffectedActors[S] {
	if _, ok := a.pending[sig]; ok {
		delete(a.pending, sig)
		a.recomputeWhenNextLocked()
		return changedActors(a)
	}

	for _, e := range a.events {
		if e.CausingSignal() == sig {
			// sig itself means "this signal is no longer valid", not "re-
			// receive it" (§4.4): exclude it from invalidateFromLocked's
			// re-queue. Any strictly-later event rolled back as collateral
			// damage still gets its own causing signal re-queued as
			// pending, per §9's resolution of the open question on
			// re-queueing during invalidation.
			result, err := a.invalidateFromLocked(e.When(), sig)
			if err != nil {
				invariantViolation("invalidation during RemoveSignal failed: %s", err)
			}
			return result.Plus(changedActors(a))
		}
	}

	// Idempotence: unknown signal, no-op.
	return AffectedActors[S]{}
}

// ClearEventsBefore compacts the actor's history: for the largest event
// e with e.When() <= t, advances Start to e.When(), rebases the state
// history to begin there with e.StateAfter(), discards every event with
// When() <= t, and drops any now-unreceivable pending signal sent before
// the new Start. If no such event exists, this is a no-op. See §4.5.
func (a *Actor[S]) ClearEventsBefore(t Time) {
	a.mu.Lock()
	defer a.mu.Unlock()

	cut := -1
	for i, e := range a.events {
		if e.When() <= t {
			cut = i
		} else {
			break
		}
	}
	if cut < 0 {
		return
	}

	newStart := a.events[cut].When()
	newInitial := a.events[cut].StateAfter()
	a.events = a.events[cut+1:]
	a.history.rebase(newStart, newInitial)
	a.start = newStart

	for sig := range a.pending {
		if sig.WhenSent() < newStart {
			delete(a.pending, sig)
		}
	}
	a.recomputeWhenNextLocked()
}

// statesEqual reports whether two nullable states carry the same value,
// using deep equality so arbitrary (possibly non-comparable) state types
// can be used without requiring S: comparable.
func statesEqual[S any](a, b *S) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return reflect.DeepEqual(*a, *b)
}
