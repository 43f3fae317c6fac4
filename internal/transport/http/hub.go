package http

import (
	"log/slog"
	"sync"

	"quizroom-service/internal/domain"
)

const clientBuffer = 32

// Hub maps connection ids to their outbound queues. It is the broadcast gateway the
// game service writes to.
type Hub struct {
	log *slog.Logger

	mu      sync.RWMutex
	clients map[string]*client
}

// client is one connection's queue. mu serializes senders with each other and with
// close; the write loop receives without it.
type client struct {
	mu     sync.Mutex
	ch     chan domain.Event
	closed bool
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{log: log, clients: make(map[string]*client)}
}

// Register opens a queue for a connection. The cancel function closes it.
func (h *Hub) Register(connID string) (<-chan domain.Event, func()) {
	c := &client{ch: make(chan domain.Event, clientBuffer)}

	h.mu.Lock()
	h.clients[connID] = c
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if cur, ok := h.clients[connID]; ok && cur == c {
			delete(h.clients, connID)
		}
		h.mu.Unlock()

		c.mu.Lock()
		if !c.closed {
			c.closed = true
			close(c.ch)
		}
		c.mu.Unlock()
	}
	return c.ch, cancel
}

// Send enqueues event for every recipient without blocking. A full queue sheds a
// stale event so one slow client cannot stall a room; round boundaries are kept.
func (h *Hub) Send(recipients []string, event domain.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, id := range recipients {
		c, ok := h.clients[id]
		if !ok {
			continue
		}
		if dropped, ok := c.enqueue(event); !ok {
			h.log.Warn("client queue full, dropped event", "conn", id, "event", dropped)
		}
	}
}

// enqueue reports the type of the event it had to drop, if any.
func (c *client) enqueue(event domain.Event) (domain.EventType, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return "", true
	}
	select {
	case c.ch <- event:
		return "", true
	default:
	}

	// the write loop may still be receiving while the queue is drained
	queued := make([]domain.Event, 0, clientBuffer+1)
drain:
	for {
		select {
		case ev := <-c.ch:
			queued = append(queued, ev)
		default:
			break drain
		}
	}
	queued = append(queued, event)

	var dropped domain.EventType
	if len(queued) > clientBuffer {
		victim := evictionIndex(queued)
		dropped = queued[victim].Type
		queued = append(queued[:victim], queued[victim+1:]...)
	}
	for _, ev := range queued {
		c.ch <- ev
	}
	return dropped, dropped == ""
}

// evictionIndex picks what a full queue gives up: the oldest score update, else the
// oldest event that does not mark a room or round boundary, else the oldest event.
func evictionIndex(queued []domain.Event) int {
	fallback := -1
	for i, ev := range queued {
		if ev.Type == domain.EventScoreUpdate {
			return i
		}
		if fallback < 0 && !boundary(ev.Type) {
			fallback = i
		}
	}
	if fallback >= 0 {
		return fallback
	}
	return 0
}

func boundary(t domain.EventType) bool {
	switch t {
	case domain.EventConnected, domain.EventRoomCreated, domain.EventGameStarted, domain.EventGameEnded:
		return true
	}
	return false
}

// Connections reports the number of registered connections.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
