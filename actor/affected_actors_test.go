package actor

import "testing"

func TestAffectedActorsPlusAddedThenChangedStaysAdded(t *testing.T) {
	a := &Actor[int]{}
	x := addedActors(a)
	y := changedActors(a)

	result := x.Plus(y)
	if _, ok := result.Added[a]; !ok {
		t.Fatalf("expected added+changed to stay added, got %+v", result)
	}
	if len(result.Changed) != 0 || len(result.Removed) != 0 {
		t.Fatalf("expected no other sets populated, got %+v", result)
	}
}

func TestAffectedActorsPlusAddedThenRemovedCancels(t *testing.T) {
	a := &Actor[int]{}
	x := addedActors(a)
	y := removedActors(a)

	result := x.Plus(y)
	if !result.IsEmpty() {
		t.Fatalf("expected added+removed to cancel to empty, got %+v", result)
	}
}

func TestAffectedActorsPlusChangedThenRemovedStaysRemoved(t *testing.T) {
	a := &Actor[int]{}
	x := changedActors(a)
	y := removedActors(a)

	result := x.Plus(y)
	if _, ok := result.Removed[a]; !ok {
		t.Fatalf("expected changed+removed to stay removed, got %+v", result)
	}
}

func TestAffectedActorsPlusIsCommutative(t *testing.T) {
	a, b := &Actor[int]{}, &Actor[int]{}
	x := AffectedActors[int]{Added: actorSet(a), Changed: actorSet(b)}
	y := AffectedActors[int]{Changed: actorSet(a), Removed: actorSet(b)}

	xy := x.Plus(y)
	yx := y.Plus(x)

	if xy.statusOf(a) != yx.statusOf(a) || xy.statusOf(b) != yx.statusOf(b) {
		t.Fatalf("Plus is not commutative: %+v vs %+v", xy, yx)
	}
}

func TestAffectedActorsIsEmpty(t *testing.T) {
	var empty AffectedActors[int]
	if !empty.IsEmpty() {
		t.Fatal("zero-value AffectedActors should be empty")
	}
	a := &Actor[int]{}
	if addedActors(a).IsEmpty() {
		t.Fatal("non-empty Added should not report IsEmpty")
	}
}
