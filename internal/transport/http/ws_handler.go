package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"quizroom-service/internal/app"
	"quizroom-service/internal/domain"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	maxMessage = 8 << 10
)

// Dispatcher applies inbound player actions.
type Dispatcher interface {
	Dispatch(ctx context.Context, playerID string, req app.Request) error
}

type WSHandler struct {
	service  Dispatcher
	hub      *Hub
	log      *slog.Logger
	upgrader websocket.Upgrader

	// pongWait bounds how long a silent peer stays connected; pings go out at 9/10 of it.
	pongWait time.Duration
}

func NewWSHandler(service Dispatcher, hub *Hub, log *slog.Logger) *WSHandler {
	return &WSHandler{
		service:  service,
		hub:      hub,
		log:      log,
		pongWait: pongWait,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type createPayload struct {
	Player domain.PlayerProfile `json:"player"`
}

type joinPayload struct {
	RoomCode string               `json:"roomCode"`
	Player   domain.PlayerProfile `json:"player"`
}

type startPayload struct {
	RoomCode   string `json:"roomCode"`
	Topic      string `json:"topic"`
	Difficulty string `json:"difficulty"`
}

type answerPayload struct {
	RoomCode      string `json:"roomCode"`
	QuestionIndex *int   `json:"questionIndex"`
	Answer        string `json:"answer"`
}

type endPayload struct {
	RoomCode string `json:"roomCode"`
}

// ServeWS upgrades HTTP requests to websockets and feeds player actions to the game service.
// Every connection gets a fresh opaque id; closing the socket is a disconnect.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	connID := uuid.NewString()
	events, unregister := h.hub.Register(connID)
	ctx := r.Context()
	log := h.log.With("conn", connID)
	log.Debug("connection opened")

	writerDone := make(chan struct{})
	go h.writeLoop(conn, events, writerDone)

	h.hub.Send([]string{connID}, domain.Event{Type: domain.EventConnected, Payload: domain.ConnectedPayload{PlayerID: connID}})

	conn.SetReadLimit(maxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(h.pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.pongWait))
	})

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("ws read error", "error", err)
			}
			break
		}
		req, err := decodeRequest(inbound)
		if err != nil {
			h.hub.Send([]string{connID}, domain.ErrorEvent(domain.ErrInvalidRequest))
			continue
		}
		// Starting a round waits on the question source; the read loop must keep
		// answering pings meanwhile. The room lock orders it against everything else.
		if _, ok := req.(app.StartGame); ok {
			go func() { _ = h.service.Dispatch(context.WithoutCancel(ctx), connID, req) }()
			continue
		}
		_ = h.service.Dispatch(ctx, connID, req)
	}

	_ = h.service.Dispatch(context.WithoutCancel(ctx), connID, app.Disconnect{})
	unregister()
	<-writerDone
	log.Debug("connection closed")
}

// writeLoop is the only writer on conn. It exits when the hub closes the queue.
func (h *WSHandler) writeLoop(conn *websocket.Conn, events <-chan domain.Event, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(h.pongWait * 9 / 10)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-events:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				h.log.Debug("ws write error", "error", err)
				// keep draining so the hub never blocks on this client
				for range events {
				}
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				for range events {
				}
				return
			}
		}
	}
}

func decodeRequest(in inboundMessage) (app.Request, error) {
	switch in.Type {
	case "createRoom":
		var p createPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return nil, err
		}
		return app.CreateRoom{Player: p.Player}, nil
	case "joinRoom":
		var p joinPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return nil, err
		}
		return app.JoinRoom{Code: p.RoomCode, Player: p.Player}, nil
	case "startGame":
		var p startPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return nil, err
		}
		return app.StartGame{Code: p.RoomCode, Topic: p.Topic, Difficulty: p.Difficulty}, nil
	case "submitAnswer":
		var p answerPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return nil, err
		}
		if p.QuestionIndex == nil {
			return nil, domain.ErrInvalidRequest
		}
		return app.SubmitAnswer{Code: p.RoomCode, QuestionIndex: *p.QuestionIndex, Answer: p.Answer}, nil
	case "endGame":
		var p endPayload
		if err := json.Unmarshal(in.Payload, &p); err != nil {
			return nil, err
		}
		return app.EndGame{Code: p.RoomCode}, nil
	default:
		return nil, domain.ErrInvalidRequest
	}
}
