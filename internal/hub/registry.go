package hub

import (
	"log"
	"sync"
)

// Registry maps chat rooms to their subscribed connections.
// A room is present only while it has at least one subscriber.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]map[Conn]struct{}
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]map[Conn]struct{}),
	}
}

// Subscribe adds conn to roomID. Subscribing twice has no further effect.
func (r *Registry) Subscribe(roomID string, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	subscribers, ok := r.rooms[roomID]
	if !ok {
		subscribers = make(map[Conn]struct{})
		r.rooms[roomID] = subscribers
	}
	subscribers[conn] = struct{}{}
	log.Printf("Connection %s subscribed to room %s. Subscribers: %d", conn.ID(), roomID, len(subscribers))
}

// Unsubscribe removes conn from roomID and drops the room once it is empty.
// It reports whether conn was subscribed.
func (r *Registry) Unsubscribe(roomID string, conn Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.removeLocked(roomID, conn)
}

// RemoveFromAllRooms removes conn from every room it belongs to and returns
// the rooms it left.
func (r *Registry) RemoveFromAllRooms(conn Conn) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var left []string
	for roomID := range r.rooms {
		if r.removeLocked(roomID, conn) {
			left = append(left, roomID)
		}
	}
	return left
}

func (r *Registry) removeLocked(roomID string, conn Conn) bool {
	subscribers, ok := r.rooms[roomID]
	if !ok {
		return false
	}
	if _, ok := subscribers[conn]; !ok {
		return false
	}

	delete(subscribers, conn)
	if len(subscribers) == 0 {
		delete(r.rooms, roomID)
	}
	log.Printf("Connection %s unsubscribed from room %s. Remaining subscribers: %d", conn.ID(), roomID, len(subscribers))
	return true
}

// SubscriberCount returns the number of subscribers of roomID; 0 for
// unknown rooms.
func (r *Registry) SubscriberCount(roomID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms[roomID])
}

// IsSubscribed reports whether conn is subscribed to roomID.
func (r *Registry) IsSubscribed(roomID string, conn Conn) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.rooms[roomID][conn]
	return ok
}

// Subscribers returns a snapshot of roomID's subscribers in no particular order.
func (r *Registry) Subscribers(roomID string) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subscribers := r.rooms[roomID]
	conns := make([]Conn, 0, len(subscribers))
	for conn := range subscribers {
		conns = append(conns, conn)
	}
	return conns
}

// RoomCount returns the number of rooms with at least one subscriber.
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms)
}
