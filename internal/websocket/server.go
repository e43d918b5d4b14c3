// Package websocket fans out bus events to connected dashboard clients.
package websocket

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/weststar/helimx/internal/events"
	"github.com/weststar/helimx/pkg/logger"
)

const writeTimeout = 10 * time.Second

// Message is the frame sent to clients
type Message struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data,omitempty"`
}

// Server manages websocket clients and forwards bus events to them
type Server struct {
	upgrader websocket.Upgrader
	bus      *events.Bus
	logger   *logger.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	cancel  func()
	wg      sync.WaitGroup
}

// NewServer creates a websocket server over the given bus
func NewServer(bus *events.Bus, log *logger.Logger) *Server {
	return &Server{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Origin enforcement is handled by the CORS middleware
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		bus:     bus,
		logger:  log.Named("websocket"),
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// Start subscribes to the bus and begins forwarding events
func (s *Server) Start(ctx context.Context) {
	ch, cancel := s.bus.Subscribe()
	s.cancel = cancel

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-ch:
				if !ok {
					return
				}
				s.Broadcast(&Message{Type: event.Type, Data: event.Data})
			}
		}
	}()
}

// Stop unsubscribes from the bus and closes all client connections
func (s *Server) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()

	s.mu.Lock()
	for conn := range s.clients {
		conn.Close()
	}
	s.clients = make(map[*websocket.Conn]struct{})
	s.mu.Unlock()
}

// HandleConnection upgrades the request and registers the client
func (s *Server) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Websocket upgrade failed", logger.Error(err))
		return
	}

	s.mu.Lock()
	s.clients[conn] = struct{}{}
	count := len(s.clients)
	s.mu.Unlock()

	s.logger.Debug("Websocket client connected",
		logger.String("remote_addr", r.RemoteAddr),
		logger.Int("client_count", count))

	// Drain reads so pings and close frames are processed; drop the client
	// when the connection dies
	go func() {
		defer s.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Broadcast sends the message to every connected client. Clients that fail
// the write are dropped.
func (s *Server) Broadcast(msg *Message) {
	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for conn := range s.clients {
		conns = append(conns, conn)
	}
	s.mu.Unlock()

	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(msg); err != nil {
			s.logger.Debug("Dropping websocket client", logger.Error(err))
			s.drop(conn)
		}
	}
}

// ClientCount returns the number of connected clients
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) drop(conn *websocket.Conn) {
	s.mu.Lock()
	if _, ok := s.clients[conn]; ok {
		delete(s.clients, conn)
		conn.Close()
	}
	s.mu.Unlock()
}
