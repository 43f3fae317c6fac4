package http

import (
	"encoding/json"
	"net/http"
	"time"
)

// Stats exposes counters for the status endpoint.
type Stats interface {
	ActiveRooms() int
}

type statusResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	ActiveRooms int       `json:"activeRooms"`
	Connections int       `json:"connections"`
}

// NewRouter wires the websocket endpoint and the health/status probes.
func NewRouter(ws *WSHandler, stats Stats) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", ws.ServeWS)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(statusResponse{
			Status:      "quiz room service running",
			Timestamp:   time.Now().UTC(),
			ActiveRooms: stats.ActiveRooms(),
			Connections: ws.hub.Connections(),
		})
	})
	return mux
}
