package notification

import (
	"time"

	"estate_marketplace_backend/internal/booking"

	"github.com/google/uuid"
)

// Type classifies a notification by the booking event it reports.
type Type string

const (
	TypeBookingRequested Type = "booking_requested"
	TypeBookingAccepted  Type = "booking_accepted"
	TypeBookingRejected  Type = "booking_rejected"
)

// UnknownPropertyName is shown when the booked property no longer resolves.
const UnknownPropertyName = "Unknown Property"

// Notification is a booking request rendered for one viewer. Its ID is the
// booking request id, so marking it read marks the request seen.
type Notification struct {
	ID            uuid.UUID      `json:"id"`
	Type          Type           `json:"type"`
	Message       string         `json:"message"`
	Unread        bool           `json:"unread"`
	Status        booking.Status `json:"status"`
	PropertyID    uuid.UUID      `json:"property_id"`
	PropertyName  string         `json:"property_name"`
	PropertyImage string         `json:"property_image,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// render builds the notification text of b as seen by viewer.
func render(b *booking.BookingRequest, viewer uuid.UUID, propertyName string) (Type, string) {
	if b.ReceiverProfileID == viewer && b.Status == booking.StatusPending {
		return TypeBookingRequested, "New booking request for " + propertyName
	}
	if b.Status == booking.StatusAccepted {
		return TypeBookingAccepted, "Your booking request for " + propertyName + " was accepted"
	}
	return TypeBookingRejected, "Your booking request for " + propertyName + " was rejected"
}
