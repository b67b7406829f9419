package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"

	"github.com/julienschmidt/httprouter"
	"github.com/streadway/handy/report"
)

func main() {
	listen := flag.String("listen", ":8080", "HTTP listen address")
	flag.Parse()

	log.SetOutput(os.Stdout)
	log.SetFlags(log.Lmicroseconds)

	var (
		s      = newServer()
		router = httprouter.New()
	)
	defer s.universe.Stop()

	router.POST("/actors", logged(s.handleCreateActor()))
	router.POST("/actors/:id/signals", logged(s.handleInjectSignal()))
	router.POST("/advance", logged(s.handleAdvance()))
	router.GET("/actors/:id", logged(s.handleGetActor()))

	log.Printf("listening on %s", *listen)
	go func() { log.Print(http.ListenAndServe(*listen, router)) }()

	<-interrupt()
}

// logged wraps an httprouter.Handle with the teacher's report.JSON access
// logging, re-threading httprouter.Params through the inner http.Handler
// report.JSON expects.
func logged(h httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		report.JSON(logWriter{}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h(w, r, ps)
		})).ServeHTTP(w, r)
	}
}

func interrupt() chan os.Signal {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, os.Kill)
	return c
}

type logWriter struct{}

func (logWriter) Write(p []byte) (int, error) {
	log.Printf(string(p))
	return len(p), nil
}
