package realtime

import (
	"sync"

	"github.com/feedcircle/feedcircle/utils"
)

// Hub is the single in-process room registry and event bus. Rooms are
// keyed by group join code and exist only while at least one client is
// joined; nothing about them is persisted. All membership mutation goes
// through Join/Leave/Disconnect and is guarded by one RWMutex, which also
// guards every client's room set.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*Client]struct{})}
}

// Join adds the client to a room. Joining a room the client is already in
// is a no-op. Room keys are opaque; group existence is checked upstream.
func (h *Hub) Join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
}

// Leave removes the client from a room. Leaving a room the client never
// joined is a no-op. Empty rooms are dropped from the registry.
func (h *Hub) Leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, room)
}

func (h *Hub) leaveLocked(c *Client, room string) {
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(c.rooms, room)
}

// Disconnect removes the client from every room it belongs to. Called when
// the transport closes, whatever the reason, so membership cannot leak.
func (h *Hub) Disconnect(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for room := range c.rooms {
		h.leaveLocked(c, room)
	}
}

// Members returns a snapshot of the clients currently in the room.
func (h *Hub) Members(room string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	members, ok := h.rooms[room]
	if !ok {
		return nil
	}
	out := make([]*Client, 0, len(members))
	for c := range members {
		out = append(out, c)
	}
	return out
}

// InRoom reports whether the client currently belongs to the room.
func (h *Hub) InRoom(c *Client, room string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := c.rooms[room]
	return ok
}

// Publish fans an event out to every client in the room at call time.
// Delivery is at-most-once and best-effort: the frame is dropped for any
// client whose outbound queue is full, and clients joining after the call
// see nothing. Failures never propagate to the caller.
func (h *Hub) Publish(room, event string, data interface{}) {
	frame, err := encodeFrame(event, data)
	if err != nil {
		if utils.Sugar != nil {
			utils.Sugar.Errorf("realtime: encode %s event failed: %v", event, err)
		}
		return
	}

	for _, c := range h.Members(room) {
		if !c.enqueue(frame) && utils.Sugar != nil {
			utils.Sugar.Warnf("realtime: dropping %s event for slow client %s in room %s", event, c.ID, room)
		}
	}
}
