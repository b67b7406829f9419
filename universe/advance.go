package universe

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/BenedictAdamson/desim/actor"
	"github.com/BenedictAdamson/desim/metrics"
)

// SignalException wraps any error a Signal implementation raised while
// being received (including ErrUnreceivableSignal) as it surfaces through
// AdvanceTo. See spec §7.
type SignalException[S any] struct {
	Actor *actor.Actor[S]
	Err   error
}

func (e *SignalException[S]) Error() string {
	return fmt.Sprintf("universe: signal exception: %s", e.Err)
}

func (e *SignalException[S]) Unwrap() error { return e.Err }

// worklist is the shared, dynamically-growing queue that backs AdvanceTo's
// work-stealing executor: any idle worker pulls the next ready actor off
// the same channel, so work submitted mid-run (an actor that just became
// eligible again) is picked up by whichever worker goes idle first, rather
// than being pinned to the worker that produced it.
type worklist[S any] struct {
	enqueue   chan *actor.Actor[S]
	items     chan *actor.Actor[S]
	pending   atomic.Int64
	closeOnce sync.Once
}

func newWorklist[S any]() *worklist[S] {
	w := &worklist[S]{
		enqueue: make(chan *actor.Actor[S]),
		items:   make(chan *actor.Actor[S]),
	}
	go w.dispatch()
	return w
}

// dispatch buffers an unbounded number of pending actors in memory,
// decoupling producers (workers posting follow-up work) from consumers
// (idle workers), without requiring a fixed-capacity channel.
func (w *worklist[S]) dispatch() {
	var buf []*actor.Actor[S]
	for {
		if len(buf) == 0 {
			a, ok := <-w.enqueue
			if !ok {
				close(w.items)
				return
			}
			buf = append(buf, a)
			continue
		}
		select {
		case a, ok := <-w.enqueue:
			if !ok {
				for _, item := range buf {
					w.items <- item
				}
				close(w.items)
				return
			}
			buf = append(buf, a)
		case w.items <- buf[0]:
			buf = buf[1:]
		}
	}
}

// push submits a unit of work. Every push must eventually be matched by
// exactly one taskDone call once that unit (and anything it transitively
// pushed) has been fully processed.
func (w *worklist[S]) push(a *actor.Actor[S]) {
	w.pending.Add(1)
	w.enqueue <- a
}

// taskDone reports that one previously pushed unit of work has finished.
// Once every pushed unit has reported done, the worklist closes itself.
func (w *worklist[S]) taskDone() {
	if w.pending.Add(-1) == 0 {
		w.closeOnce.Do(func() { close(w.enqueue) })
	}
}

// AdvanceTo repeatedly selects actors whose WhenReceiveNextSignal is at or
// before when and runs their ReceiveSignal, across a pool of workers
// workers (GOMAXPROCS if workers <= 0), folding the resulting
// AffectedActors until every actor in the universe has either advanced
// past when or has nothing left to receive before it. Newly created
// actors are added to the universe; removed actors are dropped from it.
// See spec §4.6.
func (u *Universe[S]) AdvanceTo(ctx context.Context, when actor.Time, workers int) (actor.AffectedActors[S], error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	wl := newWorklist[S]()
	var (
		mu    sync.Mutex
		total actor.AffectedActors[S]
	)

	seed := 0
	for _, a := range u.actors() {
		if a.WhenReceiveNextSignal() <= when {
			seed++
		}
	}
	if seed == 0 {
		return actor.AffectedActors[S]{}, nil
	}

	group, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		group.Go(func() error {
			return u.advanceWorker(gctx, wl, when, &mu, &total)
		})
	}

	// Hold one extra unit of work while seeding, so that a worker finishing
	// an early seed cannot close the worklist before the rest are pushed.
	wl.pending.Add(1)
	for _, a := range u.actors() {
		if a.WhenReceiveNextSignal() <= when {
			wl.push(a)
		}
	}
	wl.taskDone()

	if err := group.Wait(); err != nil {
		return actor.AffectedActors[S]{}, err
	}

	mu.Lock()
	defer mu.Unlock()
	return total, nil
}

func (u *Universe[S]) advanceWorker(ctx context.Context, wl *worklist[S], when actor.Time, mu *sync.Mutex, total *actor.AffectedActors[S]) error {
	for {
		select {
		case a, ok := <-wl.items:
			if !ok {
				return nil
			}
			if err := u.processOne(ctx, wl, when, a, mu, total); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (u *Universe[S]) processOne(ctx context.Context, wl *worklist[S], when actor.Time, a *actor.Actor[S], mu *sync.Mutex, total *actor.AffectedActors[S]) error {
	defer wl.taskDone()

	if ctx.Err() != nil {
		return nil
	}
	if !u.Contains(a) {
		// Dropped from the universe (e.g. an orphaned created actor whose
		// creating event was rolled back) since it was queued; skip.
		return nil
	}
	if a.WhenReceiveNextSignal() > when {
		// A duplicate queue entry for an actor that has already received
		// everything due by when; receiving again would go past when.
		return nil
	}

	affected, err := a.ReceiveSignal()
	if err != nil {
		return &SignalException[S]{Actor: a, Err: err}
	}

	mu.Lock()
	*total = total.Plus(affected)
	mu.Unlock()

	metrics.IncSignalsReceived(1)

	for created := range affected.Added {
		u.Add(created)
		metrics.IncActorsCreated(1)
		if created.WhenReceiveNextSignal() <= when {
			wl.push(created)
		}
	}
	for removed := range affected.Removed {
		u.Remove(removed)
		metrics.IncActorsDestroyed(1)
	}
	for changed := range affected.Changed {
		if changed == a {
			continue
		}
		if !u.Contains(changed) {
			continue
		}
		if changed.WhenReceiveNextSignal() <= when {
			wl.push(changed)
		}
	}
	if a.WhenReceiveNextSignal() <= when && u.Contains(a) {
		wl.push(a)
	}
	return nil
}
