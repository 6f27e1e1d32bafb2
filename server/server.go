// Package server exposes the notification bus over a local websocket so any
// presentation layer can render download progress without holding a
// reference to the capability objects.
package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/brieflex/brieflex/errors"
	"github.com/brieflex/brieflex/notify"
	"github.com/brieflex/brieflex/version"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The server binds to localhost; browser clients connect from file:// or
	// local dev origins.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server relays bus events to websocket subscribers.
type Server struct {
	addr string
	bus  *notify.Bus
	hub  *Hub
	log  *zap.SugaredLogger

	httpServer *http.Server
	busCh      chan notify.Event
	done       chan struct{}
}

// New creates a server relaying events from bus on addr.
func New(addr string, bus *notify.Bus, log *zap.SugaredLogger) *Server {
	return &Server{
		addr: addr,
		bus:  bus,
		hub:  NewHub(log),
		log:  log,
		done: make(chan struct{}),
	}
}

// Hub exposes the client hub, mainly for tests.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start subscribes to the bus and serves until Shutdown. Blocks.
func (s *Server) Start() error {
	s.busCh = s.bus.Subscribe()
	go s.relayLoop()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", s.handleHealth)

	s.httpServer = &http.Server{Addr: s.addr, Handler: mux}
	if s.log != nil {
		s.log.Infow("Notification server listening", "addr", s.addr)
	}
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "notification server")
	}
	return nil
}

// Shutdown stops serving, disconnects clients, and detaches from the bus.
func (s *Server) Shutdown(ctx context.Context) error {
	close(s.done)
	s.bus.Unsubscribe(s.busCh)
	s.hub.closeAll()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) relayLoop() {
	for {
		select {
		case ev := <-s.busCh:
			s.hub.Broadcast(ev)
		case <-s.done:
			return
		}
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		if s.log != nil {
			s.log.Warnw("Websocket upgrade failed", "error", err)
		}
		return
	}

	c := &client{conn: conn, send: make(chan notify.Event, clientBuffer)}
	s.hub.register(c)
	go c.writePump()
	go c.readPump(s.hub)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"version": version.Get(),
		"clients": s.hub.ClientCount(),
	})
}
