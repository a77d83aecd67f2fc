package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	// ErrNotFound is returned when a chat, user or message does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidInput is returned when a required field is empty.
	ErrInvalidInput = errors.New("invalid input")
)

// Open connects to the SQLite database at dsn and migrates the schema.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every connection to :memory: is a separate database.
	if strings.Contains(dsn, ":memory:") {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to access database handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the tables for all entities.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&Chat{}, &User{}, &ChatMessage{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Repository provides access to chat storage.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateChat saves a new chat with the given title.
func (r *Repository) CreateChat(ctx context.Context, title string) (*Chat, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}

	chat := &Chat{ID: uuid.New().String(), Title: title}
	if err := r.db.WithContext(ctx).Create(chat).Error; err != nil {
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}
	return chat, nil
}

// SaveChat inserts chat as given, keeping its ID.
func (r *Repository) SaveChat(ctx context.Context, chat *Chat) error {
	if chat.ID == "" {
		chat.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(chat).Error; err != nil {
		return fmt.Errorf("failed to save chat: %w", err)
	}
	return nil
}

// FindChatByID retrieves a chat by its ID.
func (r *Repository) FindChatByID(ctx context.Context, id string) (*Chat, error) {
	var chat Chat
	if err := r.db.WithContext(ctx).First(&chat, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find chat: %w", err)
	}
	return &chat, nil
}

// ListChats returns all chats, newest first.
func (r *Repository) ListChats(ctx context.Context) ([]*Chat, error) {
	var chats []*Chat
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&chats).Error; err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	return chats, nil
}

// DeleteChat removes a chat and its messages.
func (r *Repository) DeleteChat(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("chat_id = ?", id).Delete(&ChatMessage{}).Error; err != nil {
			return fmt.Errorf("failed to delete chat messages: %w", err)
		}
		result := tx.Delete(&Chat{}, "id = ?", id)
		if err := result.Error; err != nil {
			return fmt.Errorf("failed to delete chat: %w", err)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// CreateUser saves a new user.
func (r *Repository) CreateUser(ctx context.Context, user *User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindUserByID retrieves a user by its ID.
func (r *Repository) FindUserByID(ctx context.Context, id string) (*User, error) {
	var user User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

// CreateMessage persists a post to chatID. userID is nil for anonymous
// authors. It returns ErrNotFound when the chat does not exist.
func (r *Repository) CreateMessage(ctx context.Context, chatID string, userID *string, content string) (*ChatMessage, error) {
	if chatID == "" || content == "" {
		return nil, fmt.Errorf("%w: chat and content are required", ErrInvalidInput)
	}

	msg := &ChatMessage{
		ID:      uuid.New().String(),
		ChatID:  chatID,
		UserID:  userID,
		Content: content,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var chats int64
		if err := tx.Model(&Chat{}).Where("id = ?", chatID).Count(&chats).Error; err != nil {
			return fmt.Errorf("failed to look up chat: %w", err)
		}
		if chats == 0 {
			return fmt.Errorf("chat %s: %w", chatID, ErrNotFound)
		}
		if err := tx.Create(msg).Error; err != nil {
			return fmt.Errorf("failed to create message: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// RecentMessages returns the latest limit messages of chatID in
// chronological order, with authors loaded.
func (r *Repository) RecentMessages(ctx context.Context, chatID string, limit int) ([]*ChatMessage, error) {
	var msgs []*ChatMessage
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("chat_id = ?", chatID).
		Order("created_at DESC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}

	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// CountMessages returns the number of messages in chatID.
func (r *Repository) CountMessages(ctx context.Context, chatID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&ChatMessage{}).Where("chat_id = ?", chatID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}
