// Package store persists chats, users and chat messages with GORM.
package store

import "time"

// Chat is a conversation that connections subscribe to.
type Chat struct {
	ID        string    `gorm:"primarykey;size:36" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Title     string    `gorm:"size:200;not null" json:"title"`
}

// TableName returns the table name for Chat model.
func (Chat) TableName() string {
	return "chats"
}

// User is an author of chat messages.
type User struct {
	ID        string    `gorm:"primarykey;size:36" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Name      string    `gorm:"size:100" json:"name"`
	Email     string    `gorm:"size:255;uniqueIndex" json:"email"`
}

// TableName returns the table name for User model.
func (User) TableName() string {
	return "users"
}

// ChatMessage is a persisted post. UserID is nil for anonymous authors.
// Messages are never updated once written.
type ChatMessage struct {
	ID        string    `gorm:"primarykey;size:36" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	ChatID    string    `gorm:"size:36;not null;index" json:"chatId"`
	Chat      *Chat     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	UserID    *string   `gorm:"size:36;index" json:"userId,omitempty"`
	User      *User     `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	Content   string    `gorm:"type:text;not null" json:"content"`
}

// TableName returns the table name for ChatMessage model.
func (ChatMessage) TableName() string {
	return "chat_messages"
}

// AuthorName returns the author's display name, or fallback when the
// message is anonymous or the author was not loaded.
func (m *ChatMessage) AuthorName(fallback string) string {
	if m.User != nil && m.User.Name != "" {
		return m.User.Name
	}
	return fallback
}
