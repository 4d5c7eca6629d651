package chat

import (
	"context"
	"errors"
	"time"

	"estate_marketplace_backend/internal/common"
	"estate_marketplace_backend/internal/gateway"
	"estate_marketplace_backend/internal/profile"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ProfileLookup resolves chat partners by account id.
type ProfileLookup interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*profile.UserProfile, error)
}

// Service defines chat operations. userID arguments are account ids.
type Service interface {
	GetOrCreate(ctx context.Context, a, b uuid.UUID) (*Chat, error)
	Get(ctx context.Context, chatID, userID uuid.UUID) (*Chat, error)
	ListForUser(ctx context.Context, userID uuid.UUID) []Summary
	Messages(ctx context.Context, chatID uuid.UUID) []Message
	Send(ctx context.Context, chatID, senderID uuid.UUID, content string) (*Message, error)
	Subscribe(chatID uuid.UUID, handler gateway.Handler) gateway.Subscription
	DeleteMessages(ctx context.Context, chatID, userID uuid.UUID, ids []uuid.UUID) (bool, error)
	DeleteChatIfEmpty(ctx context.Context, chatID uuid.UUID) (bool, error)
	DeleteChatAndMessages(ctx context.Context, chatID, userID uuid.UUID) error
	SweepEmptyChats(ctx context.Context, idleFor time.Duration) (int, error)
}

const sweepBatchSize = 500

type service struct {
	repo     Repository
	profiles ProfileLookup
	partners *cache.Cache
	logger   *zap.Logger
	now      func() time.Time
}

// NewService builds the chat service. Partner profiles are memoized for
// partnerTTL; a non-positive TTL disables the cache.
func NewService(repo Repository, profiles ProfileLookup, partnerTTL time.Duration, logger *zap.Logger) Service {
	s := &service{
		repo:     repo,
		profiles: profiles,
		logger:   logger.Named("ChatService"),
		now:      time.Now,
	}
	if partnerTTL > 0 {
		s.partners = cache.New(partnerTTL, 2*partnerTTL)
	}
	return s
}

// GetOrCreate returns the chat between a and b in either order, creating it
// when none exists.
func (s *service) GetOrCreate(ctx context.Context, a, b uuid.UUID) (*Chat, error) {
	if a == b {
		return nil, common.ErrBadRequest.WithDetails("You cannot start a chat with yourself.")
	}
	existing, err := s.repo.FindChatBetween(ctx, a, b)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		s.logger.Error("Failed to look up chat", zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not open chat.")
	}

	c := &Chat{User1: a, User2: b, LastMessage: "", LastUpdated: s.now().UTC()}
	if err := s.repo.CreateChat(ctx, c); err != nil {
		s.logger.Error("Failed to create chat", zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not open chat.")
	}
	s.logger.Info("Chat created", zap.String("chatID", c.ID.String()))
	return c, nil
}

// Get loads a chat for one of its participants.
func (s *service) Get(ctx context.Context, chatID, userID uuid.UUID) (*Chat, error) {
	c, err := s.repo.FindChatByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound.WithDetails("Chat not found.")
		}
		s.logger.Error("Failed to load chat", zap.String("chatID", chatID.String()), zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not load chat.")
	}
	if !c.Has(userID) {
		return nil, common.ErrForbidden.WithDetails("You are not part of this chat.")
	}
	return c, nil
}

// ListForUser returns the chats of userID, latest activity first, each with the
// partner's profile. Partners are looked up concurrently; a failed lookup
// leaves the partner empty. A failed listing yields an empty list.
func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) []Summary {
	chats, err := s.repo.ListChatsForUser(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to list chats", zap.String("userID", userID.String()), zap.Error(err))
		return []Summary{}
	}

	out := make([]Summary, len(chats))
	var g errgroup.Group
	for i := range chats {
		i := i
		out[i].Chat = chats[i]
		g.Go(func() error {
			if p := s.partner(ctx, chats[i].Partner(userID)); p != nil {
				out[i].Partner = profile.ToProfileResponse(p)
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (s *service) partner(ctx context.Context, userID uuid.UUID) *profile.UserProfile {
	key := userID.String()
	if s.partners != nil {
		if v, ok := s.partners.Get(key); ok {
			return v.(*profile.UserProfile)
		}
	}
	p, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil || p == nil {
		return nil
	}
	if s.partners != nil {
		s.partners.SetDefault(key, p)
	}
	return p
}

// Messages returns the history of chatID in ascending timestamp order. A
// failed fetch yields an empty history.
func (s *service) Messages(ctx context.Context, chatID uuid.UUID) []Message {
	msgs, err := s.repo.ListMessages(ctx, chatID)
	if err != nil {
		s.logger.Error("Failed to load messages", zap.String("chatID", chatID.String()), zap.Error(err))
		return []Message{}
	}
	return msgs
}

// Send stores a message from senderID to the other participant and moves the
// chat's last activity.
func (s *service) Send(ctx context.Context, chatID, senderID uuid.UUID, content string) (*Message, error) {
	c, err := s.Get(ctx, chatID, senderID)
	if err != nil {
		return nil, err
	}
	if content == "" {
		return nil, common.ErrBadRequest.WithDetails("Message content must not be empty.")
	}
	now := s.now().UTC()
	m := &Message{
		ChatID:     chatID,
		SenderID:   senderID,
		ReceiverID: c.Partner(senderID),
		Content:    content,
		Timestamp:  now,
	}
	if err := s.repo.CreateMessage(ctx, m); err != nil {
		s.logger.Error("Failed to send message", zap.String("chatID", chatID.String()), zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not send message.")
	}
	if _, err := s.repo.UpdateChat(ctx, chatID, map[string]interface{}{
		"last_message": content,
		"last_updated": now,
	}); err != nil {
		s.logger.Error("Failed to update chat after send", zap.String("chatID", chatID.String()), zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not update chat.")
	}
	return m, nil
}

// Subscribe delivers message events of chatID only.
func (s *service) Subscribe(chatID uuid.UUID, handler gateway.Handler) gateway.Subscription {
	return s.repo.SubscribeMessages(func(ev gateway.Event) {
		var m Message
		if err := ev.Decode(&m); err != nil {
			s.logger.Warn("Dropping undecodable message event", zap.String("eventID", ev.ID.String()), zap.Error(err))
			return
		}
		if m.ChatID == chatID {
			handler(ev)
		}
	})
}

// DeleteMessages removes each message of chatID in ids, then removes the chat
// if it has no messages left. It reports whether the chat was removed.
func (s *service) DeleteMessages(ctx context.Context, chatID, userID uuid.UUID, ids []uuid.UUID) (bool, error) {
	if _, err := s.Get(ctx, chatID, userID); err != nil {
		return false, err
	}
	for _, id := range ids {
		m, err := s.repo.FindMessageByID(ctx, id)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				continue
			}
			return false, s.storageError("delete message", chatID, err)
		}
		if m.ChatID != chatID {
			return false, common.ErrBadRequest.WithDetails("Message does not belong to this chat.")
		}
		if err := s.repo.DeleteMessage(ctx, id); err != nil && !errors.Is(err, common.ErrNotFound) {
			return false, s.storageError("delete message", chatID, err)
		}
	}
	return s.DeleteChatIfEmpty(ctx, chatID)
}

// DeleteChatIfEmpty removes chatID when it has no messages.
func (s *service) DeleteChatIfEmpty(ctx context.Context, chatID uuid.UUID) (bool, error) {
	n, err := s.repo.CountMessages(ctx, chatID)
	if err != nil {
		return false, s.storageError("count messages of", chatID, err)
	}
	if n > 0 {
		return false, nil
	}
	if err := s.repo.DeleteChat(ctx, chatID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return false, nil
		}
		return false, s.storageError("delete", chatID, err)
	}
	s.logger.Info("Empty chat deleted", zap.String("chatID", chatID.String()))
	return true, nil
}

func (s *service) DeleteChatAndMessages(ctx context.Context, chatID, userID uuid.UUID) error {
	if _, err := s.Get(ctx, chatID, userID); err != nil {
		return err
	}
	n, err := s.repo.DeleteMessagesByChat(ctx, chatID)
	if err != nil {
		return s.storageError("delete messages of", chatID, err)
	}
	if err := s.repo.DeleteChat(ctx, chatID); err != nil && !errors.Is(err, common.ErrNotFound) {
		return s.storageError("delete", chatID, err)
	}
	s.logger.Info("Chat deleted", zap.String("chatID", chatID.String()), zap.Int64("messages", n))
	return nil
}

// SweepEmptyChats removes chats without messages whose last activity is older
// than idleFor, and returns how many were removed.
func (s *service) SweepEmptyChats(ctx context.Context, idleFor time.Duration) (int, error) {
	cutoff := s.now().UTC().Add(-idleFor)
	removed, offset := 0, 0
	for {
		chats, err := s.repo.ListChatsIdleSince(ctx, cutoff, sweepBatchSize, offset)
		if err != nil {
			s.logger.Error("Failed to list idle chats", zap.Error(err))
			return removed, common.ErrInternalServer.WithDetails("Could not list idle chats.")
		}
		kept := 0
		for _, c := range chats {
			if err := ctx.Err(); err != nil {
				return removed, err
			}
			deleted, err := s.DeleteChatIfEmpty(ctx, c.ID)
			if err != nil {
				return removed, err
			}
			if deleted {
				removed++
			} else {
				kept++
			}
		}
		if len(chats) < sweepBatchSize {
			return removed, nil
		}
		offset += kept
	}
}

func (s *service) storageError(action string, chatID uuid.UUID, err error) error {
	s.logger.Error("Chat write failed", zap.String("action", action), zap.String("chatID", chatID.String()), zap.Error(err))
	return common.ErrInternalServer.WithDetails("Could not " + action + " chat.")
}
