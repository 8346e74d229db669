package devserver

import (
	"log"
	"sync"

	"github.com/hookview/dashboard/internal/models"
	"github.com/hookview/dashboard/internal/stream"
)

const roomBuffer = 256

// Hub fans validation updates out to the websocket subscribers of each
// app-scoped room. Slow subscribers drop frames rather than block ingest.
type Hub struct {
	mu    sync.RWMutex
	rooms map[int]map[chan stream.Envelope]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[int]map[chan stream.Envelope]struct{})}
}

// Subscribe joins an app's room. The returned cancel func leaves the room
// and closes the channel.
func (h *Hub) Subscribe(appID int) (<-chan stream.Envelope, func()) {
	ch := make(chan stream.Envelope, roomBuffer)

	h.mu.Lock()
	room, ok := h.rooms[appID]
	if !ok {
		room = make(map[chan stream.Envelope]struct{})
		h.rooms[appID] = room
	}
	room[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if room, ok := h.rooms[appID]; ok {
			if _, member := room[ch]; member {
				delete(room, ch)
				close(ch)
			}
			if len(room) == 0 {
				delete(h.rooms, appID)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Broadcast delivers one validation update to every subscriber of the app's
// room.
func (h *Hub) Broadcast(appID int, e models.LogEvent) {
	env := stream.Envelope{
		Type:  stream.MsgTypeValidationUpdate,
		AppID: appID,
		Log:   &e,
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.rooms[appID] {
		select {
		case ch <- env:
		default:
			log.Printf("[devserver] dropped update for slow subscriber (app %d)", appID)
		}
	}
}

// SubscriberCount returns how many connections are in an app's room.
func (h *Hub) SubscriberCount(appID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[appID])
}
