package broadcast

import (
	"log"
	"sync"
	"time"
)

// Event is the payload delivered over the real-time channel. Data always
// carries a timestamp so clients can order events they receive.
type Event struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}

// NewEvent builds an Event and stamps the payload with the current time.
func NewEvent(eventType string, data map[string]interface{}) Event {
	if data == nil {
		data = make(map[string]interface{})
	}
	data["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	return Event{Type: eventType, Data: data}
}

// Broadcaster is the capability the order service uses to push events to
// open sessions. Delivery is fire-and-forget and at-most-once: with no
// subscribed session the event is dropped. The notification store is the
// durable record; this channel only beats the poll.
type Broadcaster interface {
	NotifyUser(userID string, event Event)
	NotifyAdmins(event Event)
}

// Session is a single connected client. The websocket handler adapts the
// underlying connection to this interface; tests use in-memory fakes.
type Session interface {
	WriteJSON(v interface{}) error
}

// AdminRoom is the shared room every admin session joins.
const AdminRoom = "admins"

// UserRoom names the per-user room deterministically from the user id.
func UserRoom(userID string) string {
	return "user:" + userID
}

// Hub is a room-based fan-out of events to connected sessions.
type Hub struct {
	rooms map[string]map[Session]bool
	mu    sync.RWMutex
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		rooms: make(map[string]map[Session]bool),
	}
}

// Join subscribes a session to a room.
func (h *Hub) Join(room string, s Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[room] == nil {
		h.rooms[room] = make(map[Session]bool)
	}
	h.rooms[room][s] = true
}

// Leave removes a session from every room it joined.
func (h *Hub) Leave(s Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for room, sessions := range h.rooms {
		delete(sessions, s)
		if len(sessions) == 0 {
			delete(h.rooms, room)
		}
	}
}

// NotifyUser delivers an event to the user's room.
func (h *Hub) NotifyUser(userID string, event Event) {
	h.publish(UserRoom(userID), event)
}

// NotifyAdmins delivers an event to the shared admin room.
func (h *Hub) NotifyAdmins(event Event) {
	h.publish(AdminRoom, event)
}

// publish writes the event to every session in the room. Write failures only
// log; a dead session is cleaned up by its read loop calling Leave.
func (h *Hub) publish(room string, event Event) {
	h.mu.RLock()
	sessions := make([]Session, 0, len(h.rooms[room]))
	for s := range h.rooms[room] {
		sessions = append(sessions, s)
	}
	h.mu.RUnlock()

	for _, s := range sessions {
		if err := s.WriteJSON(event); err != nil {
			log.Printf("broadcast: dropping event %s for room %s: %v", event.Type, room, err)
		}
	}
}
