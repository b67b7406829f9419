// Package universe owns the live set of actors and drives their parallel
// progression through time. It is the orchestration layer described in
// spec §4.6: the set itself is implemented as a private goroutine serving
// requests over channels, in the teacher's channel-actor idiom (see
// harpoon-scheduler's stateMachine/registry loop()), since the set has no
// synchronous-return-value requirement under cross-component calls the way
// actor.Actor's own operations do.
package universe

import (
	"github.com/BenedictAdamson/desim/actor"
)

type addRequest[S any] struct {
	actor *actor.Actor[S]
	resp  chan bool
}

type removeRequest[S any] struct {
	actor *actor.Actor[S]
	resp  chan bool
}

type containsRequest[S any] struct {
	actor *actor.Actor[S]
	resp  chan bool
}

type snapshotRequest[S any] struct {
	resp chan []*actor.Actor[S]
}

// Universe is the set of live actors. It is safe for concurrent use.
type Universe[S any] struct {
	add      chan addRequest[S]
	remove   chan removeRequest[S]
	contains chan containsRequest[S]
	snapshot chan snapshotRequest[S]
	quit     chan chan struct{}
}

// New creates an empty Universe and starts its private goroutine.
func New[S any]() *Universe[S] {
	u := &Universe[S]{
		add:      make(chan addRequest[S]),
		remove:   make(chan removeRequest[S]),
		contains: make(chan containsRequest[S]),
		snapshot: make(chan snapshotRequest[S]),
		quit:     make(chan chan struct{}),
	}
	go u.loop()
	return u
}

func (u *Universe[S]) loop() {
	set := map[*actor.Actor[S]]struct{}{}
	for {
		select {
		case req := <-u.add:
			_, existed := set[req.actor]
			set[req.actor] = struct{}{}
			req.resp <- !existed

		case req := <-u.remove:
			_, existed := set[req.actor]
			delete(set, req.actor)
			req.resp <- existed

		case req := <-u.contains:
			_, ok := set[req.actor]
			req.resp <- ok

		case req := <-u.snapshot:
			out := make([]*actor.Actor[S], 0, len(set))
			for a := range set {
				out = append(out, a)
			}
			req.resp <- out

		case q := <-u.quit:
			close(q)
			return
		}
	}
}

// Stop terminates the universe's internal goroutine. A stopped Universe
// must not be used again.
func (u *Universe[S]) Stop() {
	q := make(chan struct{})
	u.quit <- q
	<-q
}

// Add puts actor into the universe. It reports whether the set changed
// (the actor was not already present), matching the contract of a
// standard mutable set.
func (u *Universe[S]) Add(a *actor.Actor[S]) bool {
	req := addRequest[S]{actor: a, resp: make(chan bool)}
	u.add <- req
	return <-req.resp
}

// Remove takes actor out of the universe. It reports whether the set
// changed (the actor was present).
func (u *Universe[S]) Remove(a *actor.Actor[S]) bool {
	req := removeRequest[S]{actor: a, resp: make(chan bool)}
	u.remove <- req
	return <-req.resp
}

// Contains reports whether actor is currently in the universe.
func (u *Universe[S]) Contains(a *actor.Actor[S]) bool {
	req := containsRequest[S]{actor: a, resp: make(chan bool)}
	u.contains <- req
	return <-req.resp
}

// Len reports the number of actors currently in the universe.
func (u *Universe[S]) Len() int {
	return len(u.actors())
}

// actors returns a point-in-time snapshot of the universe's actor set.
func (u *Universe[S]) actors() []*actor.Actor[S] {
	req := snapshotRequest[S]{resp: make(chan []*actor.Actor[S])}
	u.snapshot <- req
	return <-req.resp
}
