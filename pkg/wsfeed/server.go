// Package wsfeed broadcasts trade and order-status events over WebSocket
// to every connected client, adapted from the teacher's pkg/websocket hub
// (register/unregister/broadcast channels, one writePump per client).
// Unlike the teacher's version this feed has no per-channel subscription
// filtering: every connected client receives every event, which is
// sufficient for a feed whose only sources are trade_executed and
// order_status_changed.
package wsfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	luxlog "github.com/luxfi/log"

	"github.com/shahsb/In-Memory-Trading-System/pkg/lx"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Message is the envelope written to every client.
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"`
}

// Server is an lx.Observer that fans trade and order-status events out to
// WebSocket clients on /feed.
type Server struct {
	logger luxlog.Logger

	clients    map[*client]bool
	clientsMu  sync.RWMutex
	register   chan *client
	unregister chan *client
	broadcast  chan Message

	messagesOut uint64
	clientCount int32

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewServer returns a feed server that has not yet started accepting
// connections; call Start to bind an HTTP listener.
func NewServer() *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		logger:     luxlog.Root().New("module", "wsfeed"),
		clients:    make(map[*client]bool),
		register:   make(chan *client, 100),
		unregister: make(chan *client, 100),
		broadcast:  make(chan Message, 1000),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start runs the hub goroutine and serves /feed and /healthz on port.
func (s *Server) Start(port int) error {
	s.wg.Add(1)
	go s.runHub()

	mux := http.NewServeMux()
	mux.HandleFunc("/feed", s.handleWebSocket)
	mux.HandleFunc("/healthz", s.handleHealth)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-s.ctx.Done()
		srv.Shutdown(context.Background())
	}()

	s.logger.Info("wsfeed server starting", "port", port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("wsfeed server error: %w", err)
	}
	return nil
}

// Stop shuts the hub and all client connections down.
func (s *Server) Stop() {
	s.cancel()
	s.wg.Wait()
}

// OnTradeExecuted implements lx.Observer.
func (s *Server) OnTradeExecuted(t lx.Trade) {
	s.broadcast <- Message{Type: "trade", Data: t, Timestamp: t.Timestamp.Unix()}
}

// OnOrderStatusChanged implements lx.Observer.
func (s *Server) OnOrderStatusChanged(o lx.Order) {
	s.broadcast <- Message{Type: "order_status", Data: o, Timestamp: time.Now().Unix()}
}

func (s *Server) runHub() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			s.clientsMu.Lock()
			for c := range s.clients {
				close(c.send)
			}
			s.clientsMu.Unlock()
			return

		case c := <-s.register:
			s.clientsMu.Lock()
			s.clients[c] = true
			s.clientsMu.Unlock()
			atomic.AddInt32(&s.clientCount, 1)

		case c := <-s.unregister:
			s.clientsMu.Lock()
			if _, ok := s.clients[c]; ok {
				delete(s.clients, c)
				close(c.send)
				atomic.AddInt32(&s.clientCount, -1)
			}
			s.clientsMu.Unlock()

		case msg := <-s.broadcast:
			data, err := json.Marshal(msg)
			if err != nil {
				s.logger.Error("failed to marshal feed message", "error", err)
				continue
			}
			s.clientsMu.RLock()
			for c := range s.clients {
				select {
				case c.send <- data:
					atomic.AddUint64(&s.messagesOut, 1)
				default:
					s.logger.Debug("dropping message for slow client")
				}
			}
			s.clientsMu.RUnlock()
		}
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, 256)}
	s.register <- c
	go s.writePump(c)
	go s.readPump(c)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "healthy",
		"clients": atomic.LoadInt32(&s.clientCount),
	})
}

func (s *Server) readPump(c *client) {
	defer func() {
		s.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512 * 1024)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writePump(c *client) {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
