package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

// Hub fans lifecycle events out to every connected monitor.
type Hub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]bool
	log   *logger.ZapLogger
}

func NewHub(log *logger.ZapLogger) *Hub {
	log.Log(logger.LogEntry{Level: "info", Message: "[hub] init"})
	return &Hub{
		conns: make(map[*websocket.Conn]bool),
		log:   log,
	}
}

func (h *Hub) Register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.conns[conn] = true
	h.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "[hub] register",
		Fields:  map[string]any{"conns": len(h.conns)},
	})
}

func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[conn]; !ok {
		return
	}
	delete(h.conns, conn)
	conn.Close()
	h.log.Log(logger.LogEntry{
		Level:   "info",
		Message: "[hub] unregister",
		Fields:  map[string]any{"conns": len(h.conns)},
	})
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Broadcast writes msg to all monitors and drops the ones that fail.
func (h *Hub) Broadcast(msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.conns) == 0 {
		return
	}

	for conn := range h.conns {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.log.Log(logger.LogEntry{
				Level:   "warn",
				Message: "[hub][SEND-ERR]",
				Error:   err,
			})
			delete(h.conns, conn)
			conn.Close()
		}
	}
}

var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}
