// Package stream broadcasts rendered scene frames to WebSocket clients.
//
// The scene stays on the goroutine that calls [Run]. Each tick it is stepped,
// drawn into a [draw.Recorder], and the resulting immutable [draw.Frame] is
// handed to the [Server], which fans it out to every connected client.
package stream

import (
	"context"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/san-kum/rigidsim/internal/draw"
	"github.com/san-kum/rigidsim/internal/scene"
)

const (
	DefaultFrameInterval = 50 * time.Millisecond
	DefaultPingInterval  = 2 * time.Second

	writeWait  = time.Second
	sendBuffer = 8
)

const (
	MessageTypeInfo  = "info"
	MessageTypeFrame = "frame"
)

type Message struct {
	Type  string      `json:"type"`
	Info  string      `json:"info,omitempty"`
	Frame *draw.Frame `json:"frame,omitempty"`
}

type client struct {
	conn *websocket.Conn
	send chan Message
	ping time.Duration
}

// Server upgrades HTTP requests to WebSocket connections and pushes frames
// to them. Clients only listen; anything they send is discarded.
type Server struct {
	upgrader websocket.Upgrader
	log      *log.Logger

	mu           sync.RWMutex
	pingInterval time.Duration
	clients      map[*client]struct{}
	latest       *draw.Frame
	dropped      int
}

// NewServer returns a server logging to logger, or nowhere if it is nil.
func NewServer(logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Server{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log:          logger,
		pingInterval: DefaultPingInterval,
		clients:      make(map[*client]struct{}),
	}
}

// SetPingInterval changes the keepalive period. Connected clients keep the
// interval they joined with.
func (s *Server) SetPingInterval(d time.Duration) {
	s.mu.Lock()
	s.pingInterval = d
	s.mu.Unlock()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.HandleWS(w, r)
}

// HandleWS serves one client until its connection fails or closes.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Printf("[Stream] upgrade error: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan Message, sendBuffer)}
	c.send <- Message{Type: MessageTypeInfo, Info: "connected to rigidsim"}

	s.mu.Lock()
	c.ping = s.pingInterval
	if s.latest != nil {
		c.send <- Message{Type: MessageTypeFrame, Frame: s.latest}
	}
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	s.log.Printf("[Stream] client %s connected", conn.RemoteAddr())

	go s.writeLoop(c)
	s.readLoop(c)

	s.unregister(c)
	s.log.Printf("[Stream] client %s disconnected", conn.RemoteAddr())
}

func (s *Server) readLoop(c *client) {
	pongWait := 2 * c.ping
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Printf("[Stream] read error: %v", err)
			}
			return
		}
	}
}

// writeLoop is the only writer on the connection. It ends when the send
// channel is closed or a write fails.
func (s *Server) writeLoop(c *client) {
	ticker := time.NewTicker(c.ping)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				s.log.Printf("[Stream] write error: %v", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) unregister(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.send)
	}
}

// Broadcast queues f for every client. A client whose queue is full misses
// the frame rather than stalling the simulation.
func (s *Server) Broadcast(f draw.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = &f
	for c := range s.clients {
		select {
		case c.send <- Message{Type: MessageTypeFrame, Frame: &f}:
		default:
			s.dropped++
		}
	}
}

func (s *Server) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Dropped counts frames skipped because a client fell behind.
func (s *Server) Dropped() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dropped
}

// Close disconnects every client.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		delete(s.clients, c)
		close(c.send)
	}
}

// Run steps sc once per interval and broadcasts a frame after every tick
// until ctx is done. It must be the only goroutine touching sc.
func Run(ctx context.Context, sc *scene.Scene, srv *Server, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	rec := draw.NewRecorder()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			sc.ApplyGlobalForce()
			sc.FixedUpdate(interval.Seconds())
			rec.Reset()
			sc.Draw(rec)
			srv.Broadcast(rec.Frame(sc.Steps(), sc.Time()))
		}
	}
}
