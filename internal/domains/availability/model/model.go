package model

import (
	"time"

	"resort/shared/model"
)

const (
	TableName  = "room_availability"
	EntityName = "availability"

	FieldID          = "id"
	FieldRoomID      = "room_id"
	FieldDate        = "date"
	FieldIsAvailable = "is_available"
	FieldPrice       = "price"
	FieldNote        = "note"
)

// Override pins the availability and optionally the nightly price of a room on one calendar date.
type Override struct {
	ID          string    `db:"id"`
	RoomID      string    `db:"room_id"`
	Date        time.Time `db:"date"`
	IsAvailable bool      `db:"is_available"`
	Price       *float64  `db:"price"`
	Note        string    `db:"note"`
	model.Metadata
}

// EffectivePrice picks the nightly price for a stay from the overrides inside its window.
// Overrides must be ordered by date ascending; the earliest one carrying a price wins.
func EffectivePrice(base float64, overrides []Override) float64 {
	for _, override := range overrides {
		if override.Price != nil {
			return *override.Price
		}
	}

	return base
}

// Blocked reports whether any override closes the room.
func Blocked(overrides []Override) bool {
	for _, override := range overrides {
		if !override.IsAvailable {
			return true
		}
	}

	return false
}
