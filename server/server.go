package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"go-keytrack/events"
)

// Resetter clears tracking state; implemented by engine.Engine
type Resetter interface {
	Reset()
}

// Server exposes the latest tracking state over HTTP. It is the single
// consumer of the event queues.
type Server struct {
	channels *events.Channels
	engine   Resetter
	poll     time.Duration
	log      *log.Logger

	mu   sync.RWMutex
	snap events.Snapshot

	handler http.Handler
}

// New creates a server; call Poll to start draining the queues
func New(ch *events.Channels, eng Resetter, poll time.Duration, logger *log.Logger) *Server {
	if poll <= 0 {
		poll = 10 * time.Millisecond
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Server{
		channels: ch,
		engine:   eng,
		poll:     poll,
		log:      logger,
		snap:     events.EmptySnapshot(),
	}

	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/state", s.handleState).Methods(http.MethodGet)
	router.HandleFunc("/reset", s.handleReset).Methods(http.MethodPost)

	s.handler = cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	}).Handler(router)
	return s
}

// Handler returns the CORS-wrapped router
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Snapshot returns the current state
func (s *Server) Snapshot() events.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Poll drains the queues every poll interval until ctx is done
func (s *Server) Poll(ctx context.Context) {
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.drain()
		}
	}
}

func (s *Server) drain() {
	s.mu.Lock()
	defer s.mu.Unlock()
	gen := s.snap.Generation
	s.channels.Drain(&s.snap)
	if s.snap.Generation != gen {
		s.log.Debug("state cleared", "generation", s.snap.Generation)
	}
}

// ListenAndServe serves on addr until ctx is done
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go s.Poll(ctx)

	errc := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.Snapshot()); err != nil {
		s.log.Error("encode state", "err", err)
	}
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	// state clears once the engine's reset marker is drained
	s.engine.Reset()
	s.log.Info("reset requested", "remote", r.RemoteAddr)
	w.WriteHeader(http.StatusAccepted)
}
