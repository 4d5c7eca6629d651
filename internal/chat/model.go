package chat

import (
	"time"

	"estate_marketplace_backend/internal/common"
	"estate_marketplace_backend/internal/profile"

	"github.com/google/uuid"
)

const (
	ChatCollection    = "chats"
	MessageCollection = "messages"
)

// Chat is a conversation between two accounts. User1 and User2 form an
// unordered pair.
type Chat struct {
	common.BaseModel
	User1       uuid.UUID `gorm:"type:uuid;not null;index" json:"user1"`
	User2       uuid.UUID `gorm:"type:uuid;not null;index" json:"user2"`
	LastMessage string    `gorm:"type:text" json:"last_message"`
	LastUpdated time.Time `gorm:"not null;index" json:"last_updated"`
}

func (Chat) TableName() string { return "chats" }

// Has reports whether userID takes part in the chat.
func (c *Chat) Has(userID uuid.UUID) bool {
	return c.User1 == userID || c.User2 == userID
}

// Partner returns the other participant as seen by userID.
func (c *Chat) Partner(userID uuid.UUID) uuid.UUID {
	if c.User1 == userID {
		return c.User2
	}
	return c.User1
}

type Message struct {
	common.BaseModel
	ChatID     uuid.UUID `gorm:"type:uuid;not null;index" json:"chat_id"`
	SenderID   uuid.UUID `gorm:"type:uuid;not null" json:"sender_id"`
	ReceiverID uuid.UUID `gorm:"type:uuid;not null" json:"receiver_id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	Timestamp  time.Time `gorm:"not null;index" json:"timestamp"`
}

func (Message) TableName() string { return "messages" }

// Summary is a chat listed for one participant with the other's profile.
type Summary struct {
	Chat
	Partner *profile.ProfileResponse `json:"partner"`
}

type StartChatRequest struct {
	PartnerID uuid.UUID `json:"partner_id" binding:"required"`
}

type SendMessageRequest struct {
	Content string `json:"content" binding:"required,max=4000"`
}

type DeleteMessagesRequest struct {
	IDs []uuid.UUID `json:"ids" binding:"required,min=1,dive,required"`
}
