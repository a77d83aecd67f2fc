// Package protocol defines the JSON frames exchanged over a chat connection
// and the codec that maps them to a closed set of typed messages.
package protocol

import "time"

// Type is the value of a frame's "type" discriminator.
type Type string

// Recognized frame types.
const (
	TypeSubscribe     Type = "subscribe"
	TypeUnsubscribe   Type = "unsubscribe"
	TypeChatMessage   Type = "chat_message"
	TypeSystemMessage Type = "system_message"
)

// SystemUserName is the display name used on server-originated notices.
const SystemUserName = "System"

// Message is implemented by every frame variant. The set is closed: only
// types in this package satisfy it.
type Message interface {
	Type() Type
	// RoomID returns the chat the message is addressed to, or "" when the
	// message is not room scoped.
	RoomID() string
	isMessage()
}

// Subscribe asks the server to add the connection to a room.
type Subscribe struct {
	ChatID string
}

// Unsubscribe asks the server to remove the connection from a room.
type Unsubscribe struct {
	ChatID string
}

// ChatMessage is a user post. Inbound frames leave CreatedAt zero; the
// server stamps it on the echo and the fan-out copy.
type ChatMessage struct {
	ChatID    string
	UserID    string
	UserName  string
	Content   string
	CreatedAt time.Time
}

// SystemMessage is a server notice: join/leave announcements, occupancy
// reports and error descriptions.
type SystemMessage struct {
	ChatID    string
	UserName  string
	Content   string
	CreatedAt time.Time
}

func (Subscribe) Type() Type     { return TypeSubscribe }
func (Unsubscribe) Type() Type   { return TypeUnsubscribe }
func (ChatMessage) Type() Type   { return TypeChatMessage }
func (SystemMessage) Type() Type { return TypeSystemMessage }

func (m Subscribe) RoomID() string     { return m.ChatID }
func (m Unsubscribe) RoomID() string   { return m.ChatID }
func (m ChatMessage) RoomID() string   { return m.ChatID }
func (m SystemMessage) RoomID() string { return m.ChatID }

func (Subscribe) isMessage()     {}
func (Unsubscribe) isMessage()   {}
func (ChatMessage) isMessage()   {}
func (SystemMessage) isMessage() {}

// Notice builds a SystemMessage from the server.
func Notice(chatID, content string, at time.Time) SystemMessage {
	return SystemMessage{
		ChatID:    chatID,
		UserName:  SystemUserName,
		Content:   content,
		CreatedAt: at,
	}
}
