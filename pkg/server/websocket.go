package server

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/foodifind/foodifind/pkg/agent"
	"github.com/foodifind/foodifind/pkg/utils/logging"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Demo service, any origin may connect
		return true
	},
}

// logStreamHandler upgrades the connection and streams agent log entries
// appended after the connection was established
func logStreamHandler(log *agent.Log) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logging.From(r.Context()).Warn("websocket upgrade failed", "error", err)
			return
		}
		defer conn.Close()

		entries, cancel := log.Subscribe()
		defer cancel()

		// Reader goroutine: discard client messages, detect close
		done := make(chan struct{})
		go func() {
			defer close(done)
			conn.SetReadDeadline(time.Now().Add(pongWait))
			conn.SetPongHandler(func(string) error {
				conn.SetReadDeadline(time.Now().Add(pongWait))
				return nil
			})
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()

		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(entry); err != nil {
					return
				}
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}
}
