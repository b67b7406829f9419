// Package metrics instruments the simulation engine (packages actor and
// universe), mirroring the teacher's paired expvar/Prometheus counters
// one increment function per event kind.
package metrics

import (
	"expvar"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	eSignalsQueued       = expvar.NewInt("signals_queued")
	eSignalsReceived     = expvar.NewInt("signals_received")
	eInvalidations       = expvar.NewInt("invalidations")
	eActorsCreated       = expvar.NewInt("actors_created")
	eActorsDestroyed     = expvar.NewInt("actors_destroyed")
	eUnreceivableSignals = expvar.NewInt("unreceivable_signals")
)

var (
	pSignalsQueued = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "desim",
		Subsystem: "actor",
		Name:      "signals_queued_total",
		Help:      "Number of signals added to an actor's pending set.",
	})
	pSignalsReceived = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "desim",
		Subsystem: "actor",
		Name:      "signals_received_total",
		Help:      "Number of signals that were actually received and committed as events.",
	})
	pInvalidations = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "desim",
		Subsystem: "actor",
		Name:      "invalidations_total",
		Help:      "Number of events rolled back because a later-admitted signal preceded them.",
	})
	pActorsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "desim",
		Subsystem: "universe",
		Name:      "actors_created_total",
		Help:      "Number of actors brought into existence by an event.",
	})
	pActorsDestroyed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "desim",
		Subsystem: "universe",
		Name:      "actors_destroyed_total",
		Help:      "Number of actors removed from the universe because the event that created them was rolled back.",
	})
	pUnreceivableSignals = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "desim",
		Subsystem: "actor",
		Name:      "unreceivable_signals_total",
		Help:      "Number of signals rejected as unreceivable in the state offered to them.",
	})
)

func init() {
	prometheus.MustRegister(
		pSignalsQueued,
		pSignalsReceived,
		pInvalidations,
		pActorsCreated,
		pActorsDestroyed,
		pUnreceivableSignals,
	)
}

// IncSignalsQueued records n signals added to some actor's pending set.
func IncSignalsQueued(n int) { eSignalsQueued.Add(int64(n)); pSignalsQueued.Add(float64(n)) }

// IncSignalsReceived records n signals committed as events.
func IncSignalsReceived(n int) { eSignalsReceived.Add(int64(n)); pSignalsReceived.Add(float64(n)) }

// IncInvalidations records n events rolled back by a late-arriving signal.
func IncInvalidations(n int) { eInvalidations.Add(int64(n)); pInvalidations.Add(float64(n)) }

// IncActorsCreated records n actors brought into existence.
func IncActorsCreated(n int) { eActorsCreated.Add(int64(n)); pActorsCreated.Add(float64(n)) }

// IncActorsDestroyed records n actors destroyed.
func IncActorsDestroyed(n int) { eActorsDestroyed.Add(int64(n)); pActorsDestroyed.Add(float64(n)) }

// IncUnreceivableSignals records n signals rejected as unreceivable.
func IncUnreceivableSignals(n int) {
	eUnreceivableSignals.Add(int64(n))
	pUnreceivableSignals.Add(float64(n))
}
