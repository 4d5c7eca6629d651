package chat

import (
	"context"
	"time"

	"estate_marketplace_backend/internal/gateway"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Repository interface {
	CreateChat(ctx context.Context, c *Chat) error
	FindChatByID(ctx context.Context, id uuid.UUID) (*Chat, error)
	FindChatBetween(ctx context.Context, a, b uuid.UUID) (*Chat, error)
	ListChatsForUser(ctx context.Context, userID uuid.UUID) ([]Chat, error)
	ListChatsIdleSince(ctx context.Context, cutoff time.Time, limit, offset int) ([]Chat, error)
	UpdateChat(ctx context.Context, id uuid.UUID, changes map[string]interface{}) (*Chat, error)
	DeleteChat(ctx context.Context, id uuid.UUID) error

	CreateMessage(ctx context.Context, m *Message) error
	FindMessageByID(ctx context.Context, id uuid.UUID) (*Message, error)
	ListMessages(ctx context.Context, chatID uuid.UUID) ([]Message, error)
	CountMessages(ctx context.Context, chatID uuid.UUID) (int64, error)
	DeleteMessage(ctx context.Context, id uuid.UUID) error
	DeleteMessagesByChat(ctx context.Context, chatID uuid.UUID) (int64, error)
	SubscribeMessages(handler gateway.Handler) gateway.Subscription
}

type gormRepository struct {
	chats    *gateway.Collection[Chat, *Chat]
	messages *gateway.Collection[Message, *Message]
}

func NewGORMRepository(db *gorm.DB, broker gateway.Broker, logger *zap.Logger) Repository {
	return &gormRepository{
		chats: gateway.NewCollection[Chat](db, broker, logger, ChatCollection,
			"user1", "user2", "last_message", "last_updated"),
		messages: gateway.NewCollection[Message](db, broker, logger, MessageCollection,
			"chat_id", "sender_id", "receiver_id", "content", "timestamp"),
	}
}

func (r *gormRepository) CreateChat(ctx context.Context, c *Chat) error {
	return r.chats.Create(ctx, c)
}

func (r *gormRepository) FindChatByID(ctx context.Context, id uuid.UUID) (*Chat, error) {
	return r.chats.Get(ctx, id)
}

// FindChatBetween matches the pair in either order. Duplicates resolve to the oldest.
func (r *gormRepository) FindChatBetween(ctx context.Context, a, b uuid.UUID) (*Chat, error) {
	return r.chats.First(ctx,
		gateway.Or(
			gateway.And(gateway.Equal("user1", a), gateway.Equal("user2", b)),
			gateway.And(gateway.Equal("user1", b), gateway.Equal("user2", a)),
		),
		gateway.OrderAsc("created_at"),
	)
}

func (r *gormRepository) ListChatsForUser(ctx context.Context, userID uuid.UUID) ([]Chat, error) {
	return r.chats.List(ctx,
		gateway.Or(gateway.Equal("user1", userID), gateway.Equal("user2", userID)),
		gateway.OrderDesc("last_updated"),
	)
}

func (r *gormRepository) ListChatsIdleSince(ctx context.Context, cutoff time.Time, limit, offset int) ([]Chat, error) {
	return r.chats.List(ctx,
		gateway.LessThanEqual("last_updated", cutoff),
		gateway.OrderAsc("last_updated"),
		gateway.Limit(limit),
		gateway.Offset(offset),
	)
}

func (r *gormRepository) UpdateChat(ctx context.Context, id uuid.UUID, changes map[string]interface{}) (*Chat, error) {
	return r.chats.Update(ctx, id, changes)
}

func (r *gormRepository) DeleteChat(ctx context.Context, id uuid.UUID) error {
	return r.chats.Delete(ctx, id)
}

func (r *gormRepository) CreateMessage(ctx context.Context, m *Message) error {
	return r.messages.Create(ctx, m)
}

func (r *gormRepository) FindMessageByID(ctx context.Context, id uuid.UUID) (*Message, error) {
	return r.messages.Get(ctx, id)
}

func (r *gormRepository) ListMessages(ctx context.Context, chatID uuid.UUID) ([]Message, error) {
	return r.messages.List(ctx, gateway.Equal("chat_id", chatID), gateway.OrderAsc("timestamp"))
}

func (r *gormRepository) CountMessages(ctx context.Context, chatID uuid.UUID) (int64, error) {
	return r.messages.Count(ctx, gateway.Equal("chat_id", chatID))
}

func (r *gormRepository) DeleteMessage(ctx context.Context, id uuid.UUID) error {
	return r.messages.Delete(ctx, id)
}

func (r *gormRepository) DeleteMessagesByChat(ctx context.Context, chatID uuid.UUID) (int64, error) {
	return r.messages.DeleteWhere(ctx, gateway.Equal("chat_id", chatID))
}

func (r *gormRepository) SubscribeMessages(handler gateway.Handler) gateway.Subscription {
	return r.messages.Subscribe(handler)
}
