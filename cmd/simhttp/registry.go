package main

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/BenedictAdamson/desim/actor"
	"github.com/BenedictAdamson/desim/cmd/simhttp/demo"
)

// idRegistry maps the string ids this HTTP front end hands out to callers
// onto the actor references that are the engine's actual identity. The
// engine itself never sees or compares these ids; they exist only because
// an HTTP path segment cannot carry a Go pointer.
type idRegistry struct {
	mu      sync.RWMutex
	byID    map[string]*actor.Actor[demo.State]
	nextSeq atomic.Uint64
}

func newIDRegistry() *idRegistry {
	return &idRegistry{byID: map[string]*actor.Actor[demo.State]{}}
}

func (r *idRegistry) add(a *actor.Actor[demo.State]) string {
	id := fmt.Sprintf("actor-%d", r.nextSeq.Add(1))
	r.mu.Lock()
	r.byID[id] = a
	r.mu.Unlock()
	return id
}

func (r *idRegistry) lookup(id string) (*actor.Actor[demo.State], bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byID[id]
	return a, ok
}
