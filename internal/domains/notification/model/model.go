package model

import (
	"time"

	"resort/internal/domains/booking/model/dto"
)

const (
	EventBookingCreated       = "booking.created"
	EventBookingStatusChanged = "booking.status_changed"
)

// Event is the payload published on the booking events topic and pushed to live dashboards.
type Event struct {
	Type       string    `json:"type"`
	BookingID  string    `json:"booking_id"`
	Reference  string    `json:"reference"`
	RoomID     string    `json:"room_id"`
	GuestName  string    `json:"guest_name"`
	GuestEmail string    `json:"guest_email"`
	GuestPhone string    `json:"guest_phone,omitempty"`
	CheckIn    string    `json:"check_in"`
	CheckOut   string    `json:"check_out"`
	Status     string    `json:"status"`
	Source     string    `json:"source,omitempty"`
	TotalPrice float64   `json:"total_price"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewEvent(eventType string, booking dto.BookingResponse, at time.Time) Event {
	return Event{
		Type:       eventType,
		BookingID:  booking.ID,
		Reference:  booking.Reference,
		RoomID:     booking.RoomID,
		GuestName:  booking.GuestName,
		GuestEmail: booking.GuestEmail,
		GuestPhone: booking.GuestPhone,
		CheckIn:    booking.CheckIn,
		CheckOut:   booking.CheckOut,
		Status:     booking.Status,
		Source:     booking.Source,
		TotalPrice: booking.TotalPrice,
		OccurredAt: at,
	}
}

// Key partitions events of one booking onto the same partition.
func (e Event) Key() string {
	return e.BookingID
}
