package model

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"resort/shared/constant"
	"resort/shared/model"
)

const (
	TableName  = "bookings"
	EntityName = "booking"

	FieldID              = "id"
	FieldRoomID          = "room_id"
	FieldGuestID         = "guest_id"
	FieldGuestName       = "guest_name"
	FieldGuestEmail      = "guest_email"
	FieldGuestPhone      = "guest_phone"
	FieldCheckIn         = "check_in"
	FieldCheckOut        = "check_out"
	FieldGuests          = "guests"
	FieldTotalPrice      = "total_price"
	FieldStatus          = "status"
	FieldSource          = "source"
	FieldReference       = "reference"
	FieldSpecialRequests = "special_requests"
)

const (
	StatusPending    = "pending"
	StatusConfirmed  = "confirmed"
	StatusCancelled  = "cancelled"
	StatusCheckedIn  = "checked_in"
	StatusCheckedOut = "checked_out"
)

const (
	SourceWeb   = "web"
	SourceVoice = "voice"
	SourceAdmin = "admin"
)

const referenceIDLength = 8

var (
	ErrInvalidStatus  = errors.New("invalid status")
	ErrTerminalStatus = errors.New("booking is in a terminal status")
	ErrSameStatus     = errors.New("booking already has this status")
)

var (
	// Statuses lists every status a booking can take.
	Statuses = []string{StatusPending, StatusConfirmed, StatusCancelled, StatusCheckedIn, StatusCheckedOut}

	// OccupyingStatuses hide a room from search results.
	OccupyingStatuses = []string{StatusConfirmed, StatusCheckedIn}

	// HoldingStatuses block a new booking of the same room and dates.
	HoldingStatuses = []string{StatusPending, StatusConfirmed, StatusCheckedIn}
)

type Booking struct {
	ID              string    `db:"id"`
	RoomID          string    `db:"room_id"`
	GuestID         string    `db:"guest_id"`
	GuestName       string    `db:"guest_name"`
	GuestEmail      string    `db:"guest_email"`
	GuestPhone      string    `db:"guest_phone"`
	CheckIn         time.Time `db:"check_in"`
	CheckOut        time.Time `db:"check_out"`
	Guests          int       `db:"guests"`
	TotalPrice      float64   `db:"total_price"`
	Status          string    `db:"status"`
	Source          string    `db:"source"`
	Reference       string    `db:"reference"`
	SpecialRequests *string   `db:"special_requests"`
	model.Metadata
}

// Overlaps reports whether the stays [aIn, aOut) and [bIn, bOut) share a night.
// A check-out on the day of another check-in is not a conflict.
func Overlaps(aIn, aOut, bIn, bOut time.Time) bool {
	return aIn.Before(bOut) && bIn.Before(aOut)
}

// Overlaps reports whether the booking occupies any night of [checkIn, checkOut).
func (b Booking) Overlaps(checkIn, checkOut time.Time) bool {
	return Overlaps(b.CheckIn, b.CheckOut, checkIn, checkOut)
}

// Nights counts whole days between the two calendar dates.
func Nights(checkIn, checkOut time.Time) int {
	return int(checkOut.Sub(checkIn) / (24 * time.Hour))
}

// Reference builds the human readable booking code, e.g. RSV-20250601-3F2A9C1B.
func Reference(prefix string, checkIn time.Time, id string) string {
	short := strings.ToUpper(strings.ReplaceAll(id, "-", ""))
	if len(short) > referenceIDLength {
		short = short[:referenceIDLength]
	}

	return fmt.Sprintf("%s-%s-%s", prefix, checkIn.Format(constant.CompactDate), short)
}

func ValidStatus(status string) bool {
	return slices.Contains(Statuses, status)
}

func IsTerminal(status string) bool {
	return status == StatusCancelled || status == StatusCheckedOut
}

// CanTransition applies the structural rules of the status machine. Time based policies,
// such as the cancellation window, are enforced by the caller.
func CanTransition(from, to string) error {
	if !ValidStatus(to) {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, to)
	}

	if IsTerminal(from) {
		return fmt.Errorf("%w: %s", ErrTerminalStatus, from)
	}

	if from == to {
		return fmt.Errorf("%w: %s", ErrSameStatus, to)
	}

	return nil
}
