package actor

import "testing"

// newDelaySignal builds a bumpSignal whose amount lets tests distinguish
// which signal produced which event.
func newDelaySignal(whenSent Time, sender, receiver *Actor[counterState], medium *Medium, delay Duration, amount int) *bumpSignal {
	return newBumpSignal(whenSent, sender, receiver, medium, delay, amount)
}

func TestScenarioSimpleReception(t *testing.T) {
	medium := NewMedium("M")
	b := NewActor(Time(0), counterState{})
	a := NewActor(Time(0), counterState{value: 0})
	sig := newDelaySignal(Time(1_000_000_000), b, a, medium, Duration(1_000_000_000), 5)
	if err := a.AddSignalToReceive(sig); err != nil {
		t.Fatal(err)
	}

	affected, err := a.ReceiveSignal()
	if err != nil {
		t.Fatal(err)
	}

	events := a.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if got := events[0].When(); got != Time(2_000_000_000) {
		t.Fatalf("expected event at t=2s, got %s", got)
	}
	if got := events[0].StateAfter().value; got != 5 {
		t.Fatalf("expected state value 5, got %d", got)
	}
	if _, ok := affected.Changed[a]; !ok {
		t.Fatalf("expected a in Changed, got %+v", affected)
	}
}

func TestScenarioInvalidationByEarlierSignal(t *testing.T) {
	medium := NewMedium("M")
	a := NewActor(Time(0), counterState{value: 0})

	s1 := newDelaySignal(Time(2_000_000_000), nil, a, medium, Duration(1_000_000_000), 1)
	if err := a.AddSignalToReceive(s1); err != nil {
		t.Fatal(err)
	}
	if _, err := a.ReceiveSignal(); err != nil {
		t.Fatal(err)
	}
	if got := a.Events(); len(got) != 1 || got[0].When() != Time(3_000_000_000) {
		t.Fatalf("expected a single event at t=3s before S2 arrives, got %+v", got)
	}

	s2 := newDelaySignal(Time(1_000_000_000), nil, a, medium, Duration(1_000_000_000), 10)
	if err := a.AddSignalToReceive(s2); err != nil {
		t.Fatal(err)
	}

	if _, err := a.ReceiveSignal(); err != nil {
		t.Fatal(err)
	}

	events := a.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event after S2's reception (S1 re-queued, not yet re-received), got %d", len(events))
	}
	if got := events[0].When(); got != Time(2_000_000_000) {
		t.Fatalf("expected S2's event at t=2s, got %s", got)
	}

	if _, err := a.ReceiveSignal(); err != nil {
		t.Fatal(err)
	}
	events = a.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 events in time order after S1 is re-received, got %d", len(events))
	}
	if events[0].When() >= events[1].When() {
		t.Fatalf("expected events strictly ordered by time, got %s then %s", events[0].When(), events[1].When())
	}
	if got := events[1].When(); got != Time(3_000_000_000) {
		t.Fatalf("expected S1's re-received event still at t=3s, got %s", got)
	}
}

// strobeSignal emits a successor signal to itself at the same reception
// time, for scenario 3 (self-strobing).
type strobeSignal struct {
	SignalHeader[counterState]
	delay Duration
}

func (s *strobeSignal) PropagationDelay(state *counterState) (Duration, error) {
	return s.delay, nil
}

func (s *strobeSignal) Receive(when Time, state *counterState) (*Event[counterState], error) {
	next := counterState{value: state.value + 1}
	successor := &strobeSignal{
		SignalHeader: NewSignalHeader(when, s.Receiver(), s.Receiver(), s.Medium()),
		delay:        s.delay,
	}
	return NewEvent[counterState](s, when, &next, []Signal[counterState]{successor}, nil)
}

func TestScenarioSelfStrobing(t *testing.T) {
	medium := NewMedium("M")
	a := NewActor(Time(0), counterState{})
	sig := &strobeSignal{SignalHeader: NewSignalHeader(Time(0), nil, a, medium), delay: Duration(1_000_000_000)}
	if err := a.AddSignalToReceive(sig); err != nil {
		t.Fatal(err)
	}

	prevWhenNext := a.WhenReceiveNextSignal()
	if _, err := a.ReceiveSignal(); err != nil {
		t.Fatal(err)
	}

	if got := len(a.SignalsToReceive()); got != 1 {
		t.Fatalf("expected exactly one pending successor, got %d", got)
	}
	if got := a.StateHistory().LastTransitionTime(); got != prevWhenNext {
		t.Fatalf("expected last_transition_time (%s) to equal the previous when_receive_next_signal", got)
	}
}

// echoSignal emits a signal back to the sender upon reception, for
// scenario 4 (echoing pair).
type echoSignal struct {
	SignalHeader[counterState]
	delay Duration
}

func (s *echoSignal) PropagationDelay(state *counterState) (Duration, error) {
	return s.delay, nil
}

func (s *echoSignal) Receive(when Time, state *counterState) (*Event[counterState], error) {
	next := counterState{value: state.value + 1}
	var emitted []Signal[counterState]
	if s.Sender() != nil {
		reply := &echoSignal{
			SignalHeader: NewSignalHeader(when, s.Receiver(), s.Sender(), s.Medium()),
			delay:        s.delay,
		}
		emitted = []Signal[counterState]{reply}
	}
	return NewEvent[counterState](s, when, &next, emitted, nil)
}

func TestScenarioEchoingPair(t *testing.T) {
	medium := NewMedium("M")
	a := NewActor(Time(0), counterState{})
	b := NewActor(Time(0), counterState{})

	sigToB := &echoSignal{SignalHeader: NewSignalHeader(Time(0), a, b, medium), delay: Duration(1_000_000_000)}
	if err := b.AddSignalToReceive(sigToB); err != nil {
		t.Fatal(err)
	}

	affected, err := b.ReceiveSignal()
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := affected.Changed[a]; !ok {
		t.Fatalf("expected a in Changed (it received the echoed reply), got %+v", affected)
	}
	if _, ok := affected.Changed[b]; !ok {
		t.Fatalf("expected b in Changed, got %+v", affected)
	}
	if got := len(a.SignalsToReceive()); got != 1 {
		t.Fatalf("expected a to have the echoed reply pending, got %d", got)
	}
}

// spawnSignal creates a child actor upon reception, for scenario 5 (actor
// creation and orphaning).
type spawnSignal struct {
	SignalHeader[counterState]
	delay Duration
}

func (s *spawnSignal) PropagationDelay(state *counterState) (Duration, error) {
	return s.delay, nil
}

func (s *spawnSignal) Receive(when Time, state *counterState) (*Event[counterState], error) {
	next := counterState{value: state.value + 1}
	child := NewActor(when, counterState{})
	return NewEvent[counterState](s, when, &next, nil, []*Actor[counterState]{child})
}

func TestScenarioActorCreationAndOrphaning(t *testing.T) {
	medium := NewMedium("M")
	a := NewActor(Time(0), counterState{})

	s1 := &spawnSignal{SignalHeader: NewSignalHeader(Time(2_000_000_000), nil, a, medium), delay: Duration(1_000_000_000)}
	if err := a.AddSignalToReceive(s1); err != nil {
		t.Fatal(err)
	}
	affected, err := a.ReceiveSignal()
	if err != nil {
		t.Fatal(err)
	}
	var child *Actor[counterState]
	for c := range affected.Added {
		child = c
	}
	if child == nil {
		t.Fatal("expected a created child actor in Added")
	}

	s2 := newDelaySignal(Time(1_000_000_000), nil, a, medium, Duration(1_000_000_000), 99)
	if err := a.AddSignalToReceive(s2); err != nil {
		t.Fatal(err)
	}

	rollback, err := a.ReceiveSignal()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := rollback.Removed[child]; !ok {
		t.Fatalf("expected the orphaned child in Removed, got %+v", rollback)
	}
}
