// Package report serves the coordinator's once-per-second statistics
// snapshot over HTTP and WebSocket, the non-interactive half of the
// teacher's dashboard server repurposed for fuzzing stats instead of HTTP
// scan findings.
package report

import (
	"encoding/json"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/cairofuzz/cairofuzz/internal/session"
	"github.com/cairofuzz/cairofuzz/internal/trace"
	"github.com/cairofuzz/cairofuzz/pkg/slotval"
)

// CrashEvent is one first-seen crash, broadcast alongside the stats
// snapshot so a connected dashboard can show the triggering input.
type CrashEvent struct {
	WorkerID int    `json:"workerId"`
	Kind     string `json:"kind"`
	Message  string `json:"message"`
	Input    string `json:"input"`
}

// Server hosts the /api/stats endpoint and the /ws broadcast feed.
type Server struct {
	app *fiber.App

	mu        sync.RWMutex
	latest    session.StatsSnapshot
	crashLog  []CrashEvent
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	broadcast chan []byte
}

// New builds a status server. Call Listen to start serving.
func New() *Server {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})

	s := &Server{
		app:       app,
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan []byte, 64),
	}
	s.setupRoutes()
	go s.pump()
	return s
}

func (s *Server) setupRoutes() {
	s.app.Use(cors.New())

	api := s.app.Group("/api")
	api.Get("/stats", s.handleStats)
	api.Get("/crashes", s.handleCrashes)

	s.app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	s.app.Get("/ws", websocket.New(s.handleWebSocket))
}

// Listen starts the HTTP server on addr; it blocks until the server stops.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// Report implements worker.Notifier/coordinator.StatusReporter's statistics
// half: it records the latest snapshot and broadcasts it to WebSocket
// clients.
func (s *Server) Report(snap session.StatsSnapshot) {
	s.mu.Lock()
	s.latest = snap
	s.mu.Unlock()

	data, err := json.Marshal(snap)
	if err != nil {
		return
	}
	select {
	case s.broadcast <- data:
	default:
	}
}

// CrashFirstSeen implements worker.Notifier's crash half: it records the
// event and broadcasts it.
func (s *Server) CrashFirstSeen(workerID int, kind trace.ErrorKind, msg string, input slotval.Vector) {
	ev := CrashEvent{WorkerID: workerID, Kind: kind.String(), Message: msg, Input: vectorString(input)}
	s.mu.Lock()
	s.crashLog = append(s.crashLog, ev)
	s.mu.Unlock()

	data, err := json.Marshal(struct {
		Type  string     `json:"type"`
		Event CrashEvent `json:"event"`
	}{Type: "crash", Event: ev})
	if err != nil {
		return
	}
	select {
	case s.broadcast <- data:
	default:
	}
}

// Fatal implements worker.Notifier; fatal conditions are logged by
// cmd/cairofuzz, not this server, so this is a no-op here.
func (s *Server) Fatal(workerID int, err error) {}

// CoveragePromoted implements worker.Notifier; the server publishes no
// per-promotion event, so this is a no-op here.
func (s *Server) CoveragePromoted(workerID int, input slotval.Vector) {}

func vectorString(v slotval.Vector) string {
	out := ""
	for i, slot := range v {
		if i > 0 {
			out += ","
		}
		out += slot.String()
	}
	return out
}

func (s *Server) handleStats(c *fiber.Ctx) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return c.JSON(s.latest)
}

func (s *Server) handleCrashes(c *fiber.Ctx) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return c.JSON(s.crashLog)
}

func (s *Server) handleWebSocket(c *websocket.Conn) {
	s.clientsMu.Lock()
	s.clients[c] = true
	s.clientsMu.Unlock()

	defer func() {
		s.clientsMu.Lock()
		delete(s.clients, c)
		s.clientsMu.Unlock()
		c.Close()
	}()

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			break
		}
	}
}

func (s *Server) pump() {
	for msg := range s.broadcast {
		s.clientsMu.Lock()
		for c := range s.clients {
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.Close()
				delete(s.clients, c)
			}
		}
		s.clientsMu.Unlock()
	}
}
