package dto

import (
	"mime/multipart"

	"resort/internal/domains/room/model"
	"resort/shared"
	gDto "resort/shared/dto"
	gModel "resort/shared/model"
	"resort/shared/timezone"

	"github.com/google/uuid"
)

type CreateRoomRequest struct {
	Name        string                `json:"name"        validate:"required,max=100"`
	Description string                `json:"description" validate:"omitempty,max=2000"`
	Price       float64               `json:"price"       validate:"gte=0"`
	MaxGuests   int                   `json:"max_guests"  validate:"required,gte=1,lte=20"`
	Image       *multipart.FileHeader `json:"image"       validate:"omitempty,mimetypes=image/png image/jpg image/jpeg image/webp,maxfilesize=2"`
	ImageFile   multipart.File        `json:"-"`
	Available   *bool                 `json:"available"   validate:"omitempty"`
}

func (c *CreateRoomRequest) ToModel(user string, imageURL string) model.Room {
	available := true
	if c.Available != nil {
		available = *c.Available
	}

	return model.Room{
		ID:          uuid.NewString(),
		Name:        c.Name,
		Description: c.Description,
		Price:       c.Price,
		MaxGuests:   c.MaxGuests,
		Image:       imageURL,
		Available:   available,
		Metadata:    gModel.NewMetadata(user, timezone.Now()),
	}
}

type UpdateRoomRequest struct {
	Name        string                `db:"name"        json:"name"        validate:"omitempty,max=100"`
	Description string                `db:"description" json:"description" validate:"omitempty,max=2000"`
	Price       *float64              `db:"price"       json:"price"       validate:"omitempty,gte=0"`
	MaxGuests   *int                  `db:"max_guests"  json:"max_guests"  validate:"omitempty,gte=1,lte=20"`
	Image       *multipart.FileHeader `json:"image"     validate:"omitempty,mimetypes=image/png image/jpg image/jpeg image/webp,maxfilesize=2"`
	ImageFile   multipart.File        `json:"-"`
	Available   *bool                 `db:"available"   json:"available"   validate:"omitempty"`
}

// IsEmpty reports whether the request carries nothing to change.
func (u *UpdateRoomRequest) IsEmpty() bool {
	return u.Name == "" && u.Description == "" && u.Price == nil && u.MaxGuests == nil && u.Image == nil && u.Available == nil
}

type RoomResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	MaxGuests   int     `json:"max_guests"`
	Image       string  `json:"image"`
	Available   bool    `json:"available"`
	gDto.Metadata
}

func (r *RoomResponse) FromModel(model model.Room) {
	r.ID = model.ID
	r.Name = model.Name
	r.Description = model.Description
	r.Price = model.Price
	r.MaxGuests = model.MaxGuests
	r.Image = model.Image
	r.Available = model.Available
	r.Metadata.FromModel(model.Metadata)
}

type GetRoomsResponse struct {
	Rooms     []RoomResponse `json:"rooms"`
	TotalPage int            `json:"total_page"`
	TotalData int            `json:"total_data"`
}

func (r *GetRoomsResponse) FromModels(models []model.Room, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.TotalPages(totalData, limit)

	r.Rooms = make([]RoomResponse, len(models))
	for i, mod := range models {
		r.Rooms[i].FromModel(mod)
	}
}
