package actor

// AffectedActors is a value triple of actor sets describing the effect of
// an operation: actors brought into existence, actors whose observable
// state changed, and actors removed from further consideration. Plus
// combines two of them; Universe.AdvanceTo uses it to fold the effects of
// many concurrently-processed actors into one summary.
type AffectedActors[S any] struct {
	Added   map[*Actor[S]]struct{}
	Changed map[*Actor[S]]struct{}
	Removed map[*Actor[S]]struct{}
}

type affectedStatus int

const (
	statusNone affectedStatus = iota
	statusAdded
	statusChanged
	statusRemoved
)

func (a AffectedActors[S]) statusOf(act *Actor[S]) affectedStatus {
	if _, ok := a.Added[act]; ok {
		return statusAdded
	}
	if _, ok := a.Changed[act]; ok {
		return statusChanged
	}
	if _, ok := a.Removed[act]; ok {
		return statusRemoved
	}
	return statusNone
}

// combine implements the §3 combination rules for a single actor's status from
// two sides: added+changed -> added; added+removed -> cancel (none);
// changed+removed -> removed; equal statuses are idempotent; one side
// absent takes the other side's status.
func combine(x, y affectedStatus) affectedStatus {
	if x == statusNone {
		return y
	}
	if y == statusNone {
		return x
	}
	if x == y {
		return x
	}
	switch {
	case x == statusAdded && y == statusChanged, x == statusChanged && y == statusAdded:
		return statusAdded
	case x == statusAdded && y == statusRemoved, x == statusRemoved && y == statusAdded:
		return statusNone
	case x == statusChanged && y == statusRemoved, x == statusRemoved && y == statusChanged:
		return statusRemoved
	}
	return statusNone
}

// Plus combines a with b actor by actor, using combine. It is symmetric,
// with the empty AffectedActors as identity. It is not associative when one
// actor is added in one operand, removed in another and changed in a third:
// added+removed cancels to absent, so the grouping decides whether the
// result is changed or absent.
func (a AffectedActors[S]) Plus(b AffectedActors[S]) AffectedActors[S] {
	seen := map[*Actor[S]]struct{}{}
	for act := range a.Added {
		seen[act] = struct{}{}
	}
	for act := range a.Changed {
		seen[act] = struct{}{}
	}
	for act := range a.Removed {
		seen[act] = struct{}{}
	}
	for act := range b.Added {
		seen[act] = struct{}{}
	}
	for act := range b.Changed {
		seen[act] = struct{}{}
	}
	for act := range b.Removed {
		seen[act] = struct{}{}
	}

	result := AffectedActors[S]{
		Added:   map[*Actor[S]]struct{}{},
		Changed: map[*Actor[S]]struct{}{},
		Removed: map[*Actor[S]]struct{}{},
	}
	for act := range seen {
		switch combine(a.statusOf(act), b.statusOf(act)) {
		case statusAdded:
			result.Added[act] = struct{}{}
		case statusChanged:
			result.Changed[act] = struct{}{}
		case statusRemoved:
			result.Removed[act] = struct{}{}
		}
	}
	return result
}

// IsEmpty reports whether all three sets are empty.
func (a AffectedActors[S]) IsEmpty() bool {
	return len(a.Added) == 0 && len(a.Changed) == 0 && len(a.Removed) == 0
}

func addedActors[S any](actors ...*Actor[S]) AffectedActors[S] {
	return AffectedActors[S]{Added: actorSet(actors...)}
}

func changedActors[S any](actors ...*Actor[S]) AffectedActors[S] {
	return AffectedActors[S]{Changed: actorSet(actors...)}
}

func removedActors[S any](actors ...*Actor[S]) AffectedActors[S] {
	return AffectedActors[S]{Removed: actorSet(actors...)}
}

func actorSet[S any](actors ...*Actor[S]) map[*Actor[S]]struct{} {
	if len(actors) == 0 {
		return nil
	}
	m := make(map[*Actor[S]]struct{}, len(actors))
	for _, a := range actors {
		if a != nil {
			m[a] = struct{}{}
		}
	}
	return m
}
