package booking

import (
	"time"

	"estate_marketplace_backend/internal/common"

	"github.com/google/uuid"
)

// CollectionName is the change-stream name of booking requests.
const CollectionName = "booking_requests"

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"

	// statusDeclined is the legacy spelling of StatusRejected.
	statusDeclined = "declined"
)

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

// BookingRequest is a request by the sender to book the receiver's property.
// Every state change clears the seen flag of the party that did not act.
type BookingRequest struct {
	common.BaseModel
	PropertyID        uuid.UUID `gorm:"type:uuid;not null;index" json:"property_id"`
	SenderProfileID   uuid.UUID `gorm:"type:uuid;not null;index" json:"sender_profile_id"`
	ReceiverProfileID uuid.UUID `gorm:"type:uuid;not null;index" json:"receiver_profile_id"`
	Status            Status    `gorm:"type:varchar(20);not null;index" json:"status"`
	SeenBySender      bool      `gorm:"not null" json:"seen_by_sender"`
	SeenByReceiver    bool      `gorm:"not null" json:"seen_by_receiver"`
}

func (BookingRequest) TableName() string { return "booking_requests" }

// UnreadFor reports whether the request is unread for profileID.
func (b *BookingRequest) UnreadFor(profileID uuid.UUID) bool {
	switch {
	case b.ReceiverProfileID == profileID && b.Status == StatusPending:
		return !b.SeenByReceiver
	case b.SenderProfileID == profileID && b.Status.Terminal():
		return !b.SeenBySender
	}
	return false
}

type CreateBookingRequest struct {
	PropertyID        uuid.UUID `json:"property_id" binding:"required"`
	ReceiverProfileID uuid.UUID `json:"receiver_profile_id"`
}

type RespondRequest struct {
	Status string `json:"status" binding:"required,oneof=accepted rejected declined"`
}

// ViewerLists are the booking requests of one profile split by role.
type ViewerLists struct {
	Sent     []BookingRequest `json:"sent"`
	Received []BookingRequest `json:"received"`
	Granted  []BookingRequest `json:"granted"`
}

type BookingResponse struct {
	ID                uuid.UUID `json:"id"`
	PropertyID        uuid.UUID `json:"property_id"`
	SenderProfileID   uuid.UUID `json:"sender_profile_id"`
	ReceiverProfileID uuid.UUID `json:"receiver_profile_id"`
	Status            Status    `json:"status"`
	SeenBySender      bool      `json:"seen_by_sender"`
	SeenByReceiver    bool      `json:"seen_by_receiver"`
	CreatedAt         time.Time `json:"created_at"`
}

func ToBookingResponse(b *BookingRequest) *BookingResponse {
	return &BookingResponse{
		ID:                b.ID,
		PropertyID:        b.PropertyID,
		SenderProfileID:   b.SenderProfileID,
		ReceiverProfileID: b.ReceiverProfileID,
		Status:            b.Status,
		SeenBySender:      b.SeenBySender,
		SeenByReceiver:    b.SeenByReceiver,
		CreatedAt:         b.CreatedAt,
	}
}
