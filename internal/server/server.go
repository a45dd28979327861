package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zeusync/listsync/internal/config"
	"github.com/zeusync/listsync/internal/core/events/bus"
	"github.com/zeusync/listsync/internal/core/observability/log"
)

const shutdownTimeout = 5 * time.Second

// Server serves the configured collections over HTTP and websockets.
type Server struct {
	config *config.Config
	logger log.Log

	bus  bus.EventBus
	hub  *Hub
	feed *Feed

	httpServer *http.Server
	listener   net.Listener
	cancel     context.CancelFunc
	group      *errgroup.Group

	running atomic.Bool
}

func New(cfg *config.Config, logger log.Log) *Server {
	if logger == nil {
		logger = log.Nop()
	}
	b := bus.New()
	b.AddObserver(&deliveryLog{logger: logger})

	hub := NewHub(cfg.Collections, b, logger)
	feed := NewFeed(hub, cfg.Server.SendBuffer, logger)

	return &Server{
		config: cfg,
		logger: logger,
		bus:    b,
		hub:    hub,
		feed:   feed,
	}
}

func (s *Server) Hub() *Hub { return s.hub }

func (s *Server) Handler() http.Handler {
	return NewHandler(s.hub, s.feed, s.logger)
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Start binds the listen address and serves in the background. A Server can
// be started once.
func (s *Server) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrServerAlreadyRunning
	}

	ln, err := net.Listen("tcp", s.config.Server.ListenAddr)
	if err != nil {
		s.running.Store(false)
		return fmt.Errorf("%w: %w", ErrListenerFailed, err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	hubCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.group = &errgroup.Group{}
	s.group.Go(func() error { return s.hub.Run(hubCtx) })
	s.group.Go(func() error {
		if err := s.httpServer.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	s.logger.Info("Server started",
		log.String("addr", ln.Addr().String()),
		log.Strings("collections", s.hub.Names()))
	return nil
}

// Stop shuts the HTTP server down, disconnects feed clients and stops the hub.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return ErrServerNotRunning
	}

	s.logger.Info("Stopping server")

	err := s.httpServer.Shutdown(ctx)
	s.feed.Close()
	s.cancel()
	err = errors.Join(err, s.group.Wait())

	s.logger.Info("Server stopped")
	return err
}

// Run starts the server and stops it once ctx is done.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	return s.Stop(stopCtx)
}

// deliveryLog reports failed bus deliveries, mostly slow feed clients.
type deliveryLog struct {
	logger log.Log
}

func (d *deliveryLog) OnDelivered(topic string, event bus.Event, handlers int, err error) {
	if err == nil {
		return
	}
	d.logger.Warn("Event delivery failed",
		log.String("topic", topic),
		log.String("kind", event.Kind),
		log.Int("handlers", handlers),
		log.Error(err))
}
