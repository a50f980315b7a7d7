package ws

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/transcriber/internal/ports"
)

// WSHandler upgrades the connection and keeps it registered until the
// client goes away. Monitors only receive; incoming frames are discarded.
func WSHandler(hub *Hub, log *logger.ZapLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Log(logger.LogEntry{
				Level:   "warn",
				Message: "[WS] upgrade failed",
				Error:   err,
			})
			return
		}

		hub.Register(conn)
		defer hub.Unregister(conn)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}

// Pump forwards service events to the hub until ctx is done or events closes.
func Pump(ctx context.Context, hub *Hub, events <-chan ports.StageEvent, log *logger.ZapLogger) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}

			payload, err := json.Marshal(ev)
			if err != nil {
				log.Log(logger.LogEntry{
					Level:   "error",
					Message: "[SEND][ERR] json marshal failed",
					Error:   err,
				})
				continue
			}
			hub.Broadcast(payload)
		}
	}
}
