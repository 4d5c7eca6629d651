package notification

import (
	"context"

	"estate_marketplace_backend/internal/booking"
	"estate_marketplace_backend/internal/property"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PropertyLoader resolves the properties named in notifications.
type PropertyLoader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]property.Property, error)
}

// Service defines the notification feed of a profile.
type Service interface {
	List(ctx context.Context, profileID uuid.UUID) ([]Notification, error)
	MarkAsRead(ctx context.Context, id, profileID uuid.UUID) error
	MarkAllAsRead(ctx context.Context, profileID uuid.UUID) (int, error)
	UnreadCount(ctx context.Context, profileID uuid.UUID) (int64, error)
	WatchUnread(ctx context.Context, profileID uuid.UUID, onChange func(int64)) (*booking.UnreadWatcher, error)
}

type service struct {
	bookings   booking.Service
	properties PropertyLoader
	logger     *zap.Logger
}

func NewService(bookings booking.Service, properties PropertyLoader, logger *zap.Logger) Service {
	return &service{bookings: bookings, properties: properties, logger: logger.Named("NotificationService")}
}

// List renders the booking feed of profileID, newest first.
func (s *service) List(ctx context.Context, profileID uuid.UUID) ([]Notification, error) {
	feed, err := s.bookings.Feed(ctx, profileID)
	if err != nil {
		return nil, err
	}
	props := s.lookupProperties(ctx, feed)

	out := make([]Notification, 0, len(feed))
	for i := range feed {
		b := &feed[i]
		name, image := UnknownPropertyName, ""
		if p, ok := props[b.PropertyID]; ok {
			if p.Name != "" {
				name = p.Name
			}
			if len(p.Images) > 0 {
				image = p.Images[0]
			}
		}
		typ, msg := render(b, profileID, name)
		out = append(out, Notification{
			ID:            b.ID,
			Type:          typ,
			Message:       msg,
			Unread:        b.UnreadFor(profileID),
			Status:        b.Status,
			PropertyID:    b.PropertyID,
			PropertyName:  name,
			PropertyImage: image,
			CreatedAt:     b.CreatedAt,
		})
	}
	return out, nil
}

// lookupProperties loads the properties of feed. A failed lookup is logged and
// leaves every name unknown.
func (s *service) lookupProperties(ctx context.Context, feed []booking.BookingRequest) map[uuid.UUID]property.Property {
	out := make(map[uuid.UUID]property.Property)
	if len(feed) == 0 {
		return out
	}
	seen := make(map[uuid.UUID]struct{}, len(feed))
	ids := make([]uuid.UUID, 0, len(feed))
	for _, b := range feed {
		if _, ok := seen[b.PropertyID]; ok {
			continue
		}
		seen[b.PropertyID] = struct{}{}
		ids = append(ids, b.PropertyID)
	}
	props, err := s.properties.FindByIDs(ctx, ids)
	if err != nil {
		s.logger.Warn("Failed to resolve notification properties", zap.Int("count", len(ids)), zap.Error(err))
		return out
	}
	for _, p := range props {
		out[p.ID] = p
	}
	return out
}

func (s *service) MarkAsRead(ctx context.Context, id, profileID uuid.UUID) error {
	_, err := s.bookings.MarkSeen(ctx, id, profileID)
	return err
}

// MarkAllAsRead marks every unread item of the feed seen and returns how many
// were updated.
func (s *service) MarkAllAsRead(ctx context.Context, profileID uuid.UUID) (int, error) {
	feed, err := s.bookings.Feed(ctx, profileID)
	if err != nil {
		return 0, err
	}
	updated := 0
	for i := range feed {
		if !feed[i].UnreadFor(profileID) {
			continue
		}
		if _, err := s.bookings.MarkSeen(ctx, feed[i].ID, profileID); err != nil {
			return updated, err
		}
		updated++
	}
	s.logger.Info("Marked notifications read", zap.String("profileID", profileID.String()), zap.Int("count", updated))
	return updated, nil
}

func (s *service) UnreadCount(ctx context.Context, profileID uuid.UUID) (int64, error) {
	return s.bookings.UnreadCount(ctx, profileID)
}

func (s *service) WatchUnread(ctx context.Context, profileID uuid.UUID, onChange func(int64)) (*booking.UnreadWatcher, error) {
	return s.bookings.WatchUnread(ctx, profileID, onChange)
}
