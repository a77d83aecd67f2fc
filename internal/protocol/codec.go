package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrMalformedFrame is returned when a frame is not a well-formed JSON object.
	ErrMalformedFrame = errors.New("malformed frame")
	// ErrUnknownMessageType is returned when the type discriminator is not recognized.
	ErrUnknownMessageType = errors.New("unknown message type")
	// ErrMissingField is returned when a recognized frame lacks a required field.
	ErrMissingField = errors.New("missing required field")
)

// frame is the wire shape shared by every message type.
type frame struct {
	Type      Type   `json:"type"`
	ChatID    string `json:"chatId,omitempty"`
	UserID    string `json:"userId,omitempty"`
	UserName  string `json:"userName,omitempty"`
	Content   string `json:"content,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// FormatTime renders t in UTC as RFC 3339 with full sub-second precision,
// the form used in the createdAt field. The zero time renders as "".
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseTime parses a createdAt value. An empty string yields the zero time.
func ParseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// Decode parses a single frame.
func Decode(data []byte) (Message, error) {
	var f frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if f.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformedFrame)
	}

	createdAt, err := ParseTime(f.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid createdAt: %v", ErrMalformedFrame, err)
	}

	switch f.Type {
	case TypeSubscribe:
		if f.ChatID == "" {
			return nil, missing(f.Type, "chatId")
		}
		return Subscribe{ChatID: f.ChatID}, nil
	case TypeUnsubscribe:
		if f.ChatID == "" {
			return nil, missing(f.Type, "chatId")
		}
		return Unsubscribe{ChatID: f.ChatID}, nil
	case TypeChatMessage:
		if f.ChatID == "" {
			return nil, missing(f.Type, "chatId")
		}
		if f.Content == "" {
			return nil, missing(f.Type, "content")
		}
		return ChatMessage{
			ChatID:    f.ChatID,
			UserID:    f.UserID,
			UserName:  f.UserName,
			Content:   f.Content,
			CreatedAt: createdAt,
		}, nil
	case TypeSystemMessage:
		return SystemMessage{
			ChatID:    f.ChatID,
			UserName:  f.UserName,
			Content:   f.Content,
			CreatedAt: createdAt,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessageType, f.Type)
	}
}

func missing(t Type, field string) error {
	return fmt.Errorf("%w: %s requires %s", ErrMissingField, t, field)
}

// Encode serializes m. Output is deterministic for a given value.
func Encode(m Message) ([]byte, error) {
	var f frame
	switch msg := m.(type) {
	case Subscribe:
		f = frame{Type: TypeSubscribe, ChatID: msg.ChatID}
	case Unsubscribe:
		f = frame{Type: TypeUnsubscribe, ChatID: msg.ChatID}
	case ChatMessage:
		f = frame{
			Type:      TypeChatMessage,
			ChatID:    msg.ChatID,
			UserID:    msg.UserID,
			UserName:  msg.UserName,
			Content:   msg.Content,
			CreatedAt: FormatTime(msg.CreatedAt),
		}
	case SystemMessage:
		f = frame{
			Type:      TypeSystemMessage,
			ChatID:    msg.ChatID,
			UserName:  msg.UserName,
			Content:   msg.Content,
			CreatedAt: FormatTime(msg.CreatedAt),
		}
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownMessageType, m)
	}
	return json.Marshal(f)
}
