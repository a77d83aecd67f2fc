// Package hub tracks which connections are subscribed to which chat rooms
// and fans messages out to a room's subscribers.
package hub

import "errors"

var (
	// ErrConnClosed is returned by Send once a connection has been closed.
	ErrConnClosed = errors.New("connection closed")
	// ErrSendBufferFull is returned by Send when the outbound queue is full.
	ErrSendBufferFull = errors.New("send buffer full")
)

// Conn is a live connection that can receive encoded frames.
//
// Send must not block on the network and must be safe for concurrent use;
// frames sent to one Conn are delivered in the order Send was called.
type Conn interface {
	ID() string
	Send(frame []byte) error
}
