package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ondraz/printlink/internal/filejob"
	"github.com/ondraz/printlink/internal/history"
	"github.com/ondraz/printlink/internal/infrastructure/config"
	"github.com/ondraz/printlink/internal/infrastructure/logging"
	"github.com/ondraz/printlink/internal/state"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight
// requests to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// transitionChanSize bounds the WebSocket broadcast backlog.
const transitionChanSize = 256

// JobEventSink receives job lifecycle events for external publication.
// Satisfied by report.Reporter; kept as an interface so the API server
// does not depend on the MQTT reporter being configured.
type JobEventSink interface {
	JobEvent(action, fileName string, progress int)
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config     config.APIConfig
	Logger     *logging.Logger
	Manager    *state.Manager
	History    history.Repository
	Jobs       *filejob.Driver
	JobHistory *filejob.SQLiteRepository
	Reporter   JobEventSink // optional
	Version    string
}

// Server is the HTTP API server for the printer link daemon.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg        config.APIConfig
	logger     *logging.Logger
	manager    *state.Manager
	historian  history.Repository
	jobs       *filejob.Driver
	jobHistory *filejob.SQLiteRepository
	reporter   JobEventSink
	version    string

	server      *http.Server
	hub         *Hub
	transitions chan state.Transition
	tickets     *ticketStore
	cancel      context.CancelFunc
}

// New creates a new API server with the given dependencies.
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Manager == nil {
		return nil, fmt.Errorf("state manager is required")
	}
	if deps.Jobs == nil {
		return nil, fmt.Errorf("file job driver is required")
	}

	return &Server{
		cfg:         deps.Config,
		logger:      deps.Logger,
		manager:     deps.Manager,
		historian:   deps.History,
		jobs:        deps.Jobs,
		jobHistory:  deps.JobHistory,
		reporter:    deps.Reporter,
		version:     deps.Version,
		transitions: make(chan state.Transition, transitionChanSize),
		tickets:     newTicketStore(),
	}, nil
}

// HandleTransition enqueues a state transition for WebSocket broadcast.
// Safe to register on the state manager's changed signal: it never
// blocks and touches nothing that needs the manager's lock.
func (s *Server) HandleTransition(tr state.Transition) {
	select {
	case s.transitions <- tr:
	default:
		// Slow consumers see the next transition instead.
	}
}

// Start begins listening for HTTP connections.
//
// It builds the router, starts the WebSocket hub and the transition
// pump, and launches the HTTP listener in a background goroutine. The
// server is stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	s.hub = NewHub(s.cfg.WebSocket, s.logger)
	go s.hub.Run(srvCtx)
	go s.pumpTransitions(srvCtx)
	go s.cleanTicketsLoop(srvCtx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// pumpTransitions forwards queued state transitions to WebSocket
// subscribers of the printer.state_changed channel.
func (s *Server) pumpTransitions(ctx context.Context) {
	for {
		select {
		case tr := <-s.transitions:
			s.hub.Broadcast(channelStateChanged, transitionEvent{
				From:      tr.From,
				To:        tr.To,
				Source:    tr.Source,
				CommandID: tr.CommandID,
				At:        time.Now().UTC(),
			})
		case <-ctx.Done():
			return
		}
	}
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete, then
// forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
