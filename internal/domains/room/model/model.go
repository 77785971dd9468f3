package model

import "resort/shared/model"

const (
	TableName  = "rooms"
	EntityName = "room"

	FieldID          = "id"
	FieldName        = "name"
	FieldDescription = "description"
	FieldPrice       = "price"
	FieldMaxGuests   = "max_guests"
	FieldImage       = "image"
	FieldAvailable   = "available"
)

type Room struct {
	ID          string  `db:"id"`
	Name        string  `db:"name"`
	Description string  `db:"description"`
	Price       float64 `db:"price"`
	MaxGuests   int     `db:"max_guests"`
	Image       string  `db:"image"`
	Available   bool    `db:"available"`
	model.Metadata
}

// Fits reports whether the room is bookable at all and holds the party size.
func (r Room) Fits(guests int) bool {
	return r.Available && r.MaxGuests >= guests
}
