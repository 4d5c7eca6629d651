package booking

import (
	"context"
	"errors"

	"estate_marketplace_backend/internal/common"
	"estate_marketplace_backend/internal/gateway"
	"estate_marketplace_backend/internal/property"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PropertyLoader resolves the listing a request is sent for.
type PropertyLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*property.Property, error)
}

// Service defines booking request operations.
type Service interface {
	Create(ctx context.Context, propertyID, senderProfileID, receiverProfileID uuid.UUID) (*BookingRequest, error)
	Accept(ctx context.Context, id, actorProfileID uuid.UUID) (*BookingRequest, error)
	Reject(ctx context.Context, id, actorProfileID uuid.UUID) (*BookingRequest, error)
	Respond(ctx context.Context, id, actorProfileID uuid.UUID, status string) (*BookingRequest, error)
	Delete(ctx context.Context, id, actorProfileID uuid.UUID) error
	ListForViewer(ctx context.Context, profileID uuid.UUID, propertyID *uuid.UUID) (*ViewerLists, error)
	Feed(ctx context.Context, profileID uuid.UUID) ([]BookingRequest, error)
	UnreadCount(ctx context.Context, profileID uuid.UUID) (int64, error)
	MarkSeen(ctx context.Context, id, profileID uuid.UUID) (*BookingRequest, error)
	WatchUnread(ctx context.Context, profileID uuid.UUID, onChange func(int64)) (*UnreadWatcher, error)
}

type service struct {
	repo       Repository
	properties PropertyLoader
	logger     *zap.Logger
}

func NewService(repo Repository, properties PropertyLoader, logger *zap.Logger) Service {
	return &service{repo: repo, properties: properties, logger: logger.Named("BookingService")}
}

// Create sends a request to the owner of propertyID. A nil receiverProfileID is
// taken as the owner; any other receiver must match it.

func (s *service) Create(ctx context.Context, propertyID, senderProfileID, receiverProfileID uuid.UUID) (*BookingRequest, error) {
	if senderProfileID == uuid.Nil {
		return nil, common.ErrForbidden.WithDetails("A profile is required to send booking requests.")
	}
	p, err := s.properties.FindByID(ctx, propertyID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound.WithDetails("Property not found.")
		}
		s.logger.Error("Failed to load property for booking", zap.String("propertyID", propertyID.String()), zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not send booking request.")
	}
	if receiverProfileID == uuid.Nil {
		receiverProfileID = p.UserProfileID
	}
	if receiverProfileID != p.UserProfileID {
		return nil, common.ErrBadRequest.WithDetails("The receiver must be the owner of the property.")
	}
	if senderProfileID == receiverProfileID {
		return nil, common.ErrBadRequest.WithDetails("You cannot book your own property.")
	}
	b := &BookingRequest{
		PropertyID:        propertyID,
		SenderProfileID:   senderProfileID,
		ReceiverProfileID: receiverProfileID,
		Status:            StatusPending,
		SeenBySender:      true,
		SeenByReceiver:    false,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		s.logger.Error("Failed to create booking request", zap.String("propertyID", propertyID.String()), zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not send booking request.")
	}
	s.logger.Info("Booking request created",
		zap.String("bookingID", b.ID.String()),
		zap.String("propertyID", propertyID.String()),
	)
	return b, nil
}

func (s *service) Accept(ctx context.Context, id, actorProfileID uuid.UUID) (*BookingRequest, error) {
	return s.transition(ctx, id, actorProfileID, StatusAccepted)
}

func (s *service) Reject(ctx context.Context, id, actorProfileID uuid.UUID) (*BookingRequest, error) {
	return s.transition(ctx, id, actorProfileID, StatusRejected)
}

// Respond applies a response status, accepting the legacy "declined" for rejected.
func (s *service) Respond(ctx context.Context, id, actorProfileID uuid.UUID, status string) (*BookingRequest, error) {
	switch status {
	case string(StatusAccepted):
		return s.Accept(ctx, id, actorProfileID)
	case string(StatusRejected), statusDeclined:
		return s.Reject(ctx, id, actorProfileID)
	}
	return nil, common.ErrBadRequest.WithDetails("Status must be accepted or rejected.")
}

// transition moves a request to a terminal status. Repeating the current
// terminal status overwrites it again; switching between terminal statuses is a
// conflict.
func (s *service) transition(ctx context.Context, id, actorProfileID uuid.UUID, to Status) (*BookingRequest, error) {
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.ReceiverProfileID != actorProfileID {
		return nil, common.ErrForbidden.WithDetails("Only the receiver can respond to this request.")
	}
	if b.Status.Terminal() && b.Status != to {
		return nil, common.ErrConflict.WithDetails("This request was already " + string(b.Status) + ".")
	}

	updated, err := s.repo.Update(ctx, id, map[string]interface{}{
		"status":           to,
		"seen_by_receiver": true,
		"seen_by_sender":   false,
	})
	if err != nil {
		return nil, s.storageError("respond to", id, err)
	}
	s.logger.Info("Booking request answered", zap.String("bookingID", id.String()), zap.String("status", string(to)))
	return updated, nil
}

// Delete removes the request for its sender, whatever its status.
func (s *service) Delete(ctx context.Context, id, actorProfileID uuid.UUID) error {
	b, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if b.SenderProfileID != actorProfileID {
		return common.ErrForbidden.WithDetails("Only the sender can delete this request.")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.storageError("delete", id, err)
	}
	s.logger.Info("Booking request deleted", zap.String("bookingID", id.String()))
	return nil
}

// ListForViewer fetches every request of profileID once and splits it by role.
// Received is limited to propertyID when given.
func (s *service) ListForViewer(ctx context.Context, profileID uuid.UUID, propertyID *uuid.UUID) (*ViewerLists, error) {
	all, err := s.repo.List(ctx,
		gateway.Or(
			gateway.Equal("sender_profile_id", profileID),
			gateway.Equal("receiver_profile_id", profileID),
		),
		gateway.OrderDesc("created_at"),
	)
	if err != nil {
		s.logger.Error("Failed to list booking requests", zap.String("profileID", profileID.String()), zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not load booking requests.")
	}

	lists := &ViewerLists{Sent: []BookingRequest{}, Received: []BookingRequest{}, Granted: []BookingRequest{}}
	for _, b := range all {
		if b.SenderProfileID == profileID {
			lists.Sent = append(lists.Sent, b)
		}
		if b.ReceiverProfileID != profileID {
			continue
		}
		switch b.Status {
		case StatusPending:
			if propertyID == nil || b.PropertyID == *propertyID {
				lists.Received = append(lists.Received, b)
			}
		case StatusAccepted:
			lists.Granted = append(lists.Granted, b)
		}
	}
	return lists, nil
}

// Feed returns the requests that concern profileID as a notification: pending
// requests it received and answered requests it sent, newest first.
func (s *service) Feed(ctx context.Context, profileID uuid.UUID) ([]BookingRequest, error) {
	items, err := s.repo.List(ctx,
		gateway.Or(
			gateway.And(
				gateway.Equal("receiver_profile_id", profileID),
				gateway.Equal("status", StatusPending),
			),
			gateway.And(
				gateway.Equal("sender_profile_id", profileID),
				gateway.In("status", StatusAccepted, StatusRejected),
			),
		),
		gateway.OrderDesc("created_at"),
	)
	if err != nil {
		s.logger.Error("Failed to load booking feed", zap.String("profileID", profileID.String()), zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not load notifications.")
	}
	return items, nil
}

// UnreadCount counts pending requests the receiver has not seen plus answered
// requests the sender has not seen.
func (s *service) UnreadCount(ctx context.Context, profileID uuid.UUID) (int64, error) {
	received, err := s.repo.Count(ctx,
		gateway.Equal("receiver_profile_id", profileID),
		gateway.Equal("status", StatusPending),
		gateway.Equal("seen_by_receiver", false),
	)
	if err != nil {
		s.logger.Error("Failed to count unread received requests", zap.String("profileID", profileID.String()), zap.Error(err))
		return 0, common.ErrInternalServer.WithDetails("Could not count notifications.")
	}
	answered, err := s.repo.Count(ctx,
		gateway.Equal("sender_profile_id", profileID),
		gateway.In("status", StatusAccepted, StatusRejected),
		gateway.Equal("seen_by_sender", false),
	)
	if err != nil {
		s.logger.Error("Failed to count unread answered requests", zap.String("profileID", profileID.String()), zap.Error(err))
		return 0, common.ErrInternalServer.WithDetails("Could not count notifications.")
	}
	return received + answered, nil
}

// MarkSeen sets the seen flag of the viewer's own role on the request.
func (s *service) MarkSeen(ctx context.Context, id, profileID uuid.UUID) (*BookingRequest, error) {
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	var field string
	switch profileID {
	case b.ReceiverProfileID:
		if b.SeenByReceiver {
			return b, nil
		}
		field = "seen_by_receiver"
	case b.SenderProfileID:
		if b.SeenBySender {
			return b, nil
		}
		field = "seen_by_sender"
	default:
		return nil, common.ErrForbidden.WithDetails("This request does not concern you.")
	}

	updated, err := s.repo.Update(ctx, id, map[string]interface{}{field: true})
	if err != nil {
		return nil, s.storageError("mark", id, err)
	}
	return updated, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*BookingRequest, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound.WithDetails("Booking request not found.")
		}
		s.logger.Error("Failed to load booking request", zap.String("bookingID", id.String()), zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not load booking request.")
	}
	return b, nil
}

func (s *service) storageError(action string, id uuid.UUID, err error) error {
	if errors.Is(err, common.ErrNotFound) {
		return common.ErrNotFound.WithDetails("Booking request not found.")
	}
	s.logger.Error("Booking request write failed", zap.String("action", action), zap.String("bookingID", id.String()), zap.Error(err))
	return common.ErrInternalServer.WithDetails("Could not " + action + " booking request.")
}
