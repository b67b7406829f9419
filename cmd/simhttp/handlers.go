package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/BenedictAdamson/desim/actor"
	"github.com/BenedictAdamson/desim/cmd/simhttp/demo"
	"github.com/BenedictAdamson/desim/universe"
)

// server holds the single running Universe this process drives, plus the
// id bookkeeping and simulated clock the HTTP routes need on top of it.
type server struct {
	universe *universe.Universe[demo.State]
	registry *idRegistry
	medium   *actor.Medium
	clock    atomic.Int64 // actor.Time, as nanoseconds
}

func newServer() *server {
	s := &server{
		universe: universe.New[demo.State](),
		registry: newIDRegistry(),
		medium:   actor.NewMedium("http"),
	}
	return s
}

func (s *server) now() actor.Time { return actor.Time(s.clock.Load()) }

type createActorRequest struct {
	State demo.State `json:"state"`
}

type createActorResponse struct {
	ID string `json:"id"`
}

func (s *server) handleCreateActor() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		var req createActorRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		defer r.Body.Close()

		if req.State == nil {
			req.State = demo.State{}
		}
		a := actor.NewActor(s.now(), req.State)
		s.universe.Add(a)
		id := s.registry.add(a)

		writeJSON(w, http.StatusCreated, createActorResponse{ID: id})
	}
}

type injectSignalRequest struct {
	DelayMillis int64          `json:"delay_ms"`
	Fields      map[string]any `json:"fields"`
}

func (s *server) handleInjectSignal() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		a, ok := s.registry.lookup(ps.ByName("id"))
		if !ok {
			writeError(w, http.StatusNotFound, fmt.Errorf("no such actor"))
			return
		}

		var req injectSignalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		defer r.Body.Close()
		if req.DelayMillis <= 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("delay_ms must be positive"))
			return
		}

		sig := demo.NewMessage(s.now(), a, s.medium, time.Duration(req.DelayMillis)*time.Millisecond, req.Fields)
		if err := a.AddSignalToReceive(sig); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		writeJSON(w, http.StatusOK, successResponse{Message: "signal queued"})
	}
}

type affectedActorsResponse struct {
	AddedCount   int `json:"added"`
	ChangedCount int `json:"changed"`
	RemovedCount int `json:"removed"`
}

func (s *server) handleAdvance() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		raw := r.URL.Query().Get("when")
		d, err := time.ParseDuration(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid when: %s", err))
			return
		}
		when := actor.Time(d)

		affected, err := s.universe.AdvanceTo(r.Context(), when, 0)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		s.clock.Store(int64(when))

		writeJSON(w, http.StatusOK, affectedActorsResponse{
			AddedCount:   len(affected.Added),
			ChangedCount: len(affected.Changed),
			RemovedCount: len(affected.Removed),
		})
	}
}

type actorSnapshotResponse struct {
	Start                 string `json:"start"`
	WhenReceiveNextSignal string `json:"when_receive_next_signal"`
	EventCount            int    `json:"event_count"`
}

func (s *server) handleGetActor() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		a, ok := s.registry.lookup(ps.ByName("id"))
		if !ok {
			writeError(w, http.StatusNotFound, fmt.Errorf("no such actor"))
			return
		}

		writeJSON(w, http.StatusOK, actorSnapshotResponse{
			Start:                 a.Start().String(),
			WhenReceiveNextSignal: a.WhenReceiveNextSignal().String(),
			EventCount:            len(a.Events()),
		})
	}
}

func writeError(w http.ResponseWriter, code int, err error) {
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(errorResponse{
		StatusCode: code,
		StatusText: http.StatusText(code),
		Error:      err.Error(),
	})
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

type errorResponse struct {
	StatusCode int    `json:"status_code"`
	StatusText string `json:"status_text"`
	Error      string `json:"error"`
}

type successResponse struct {
	Message string `json:"message"`
}
