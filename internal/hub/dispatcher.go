package hub

import (
	"log"

	"github.com/Tyrowin/roomchat/internal/protocol"
)

// Dispatcher delivers messages to the subscribers of a room.
type Dispatcher struct {
	registry *Registry
}

// NewDispatcher creates a Dispatcher that resolves rooms through registry.
func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// BroadcastToRoom sends msg to every subscriber of roomID except exclude,
// which may be nil. Subscribers whose send fails are removed from the room
// and the broadcast continues with the rest. It returns the number of
// subscribers the message was handed to.
func (d *Dispatcher) BroadcastToRoom(roomID string, msg protocol.Message, exclude Conn) int {
	subscribers := d.registry.Subscribers(roomID)
	if len(subscribers) == 0 {
		return 0
	}

	payload, err := protocol.Encode(msg)
	if err != nil {
		log.Printf("Failed to encode %s for room %s: %v", msg.Type(), roomID, err)
		return 0
	}

	sent := 0
	var failed []Conn
	for _, conn := range subscribers {
		if exclude != nil && conn == exclude {
			continue
		}
		if err := conn.Send(payload); err != nil {
			log.Printf("Dropping connection %s from room %s: %v", conn.ID(), roomID, err)
			failed = append(failed, conn)
			continue
		}
		sent++
	}

	for _, conn := range failed {
		d.registry.Unsubscribe(roomID, conn)
	}

	log.Printf("Broadcast %s to room %s: %d sent, %d dropped", msg.Type(), roomID, sent, len(failed))
	return sent
}

// SendTo encodes msg and sends it to a single connection.
func SendTo(conn Conn, msg protocol.Message) error {
	payload, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	return conn.Send(payload)
}
