package dto

import (
	"time"

	"resort/internal/domains/availability/model"
	"resort/shared/constant"
	gDto "resort/shared/dto"
	gModel "resort/shared/model"
	"resort/shared/timezone"

	"github.com/google/uuid"
)

type UpsertOverrideRequest struct {
	Date        string   `json:"date"         validate:"required,dateonly"`
	IsAvailable *bool    `json:"is_available" validate:"required"`
	Price       *float64 `json:"price"        validate:"omitempty,gte=0"`
	Note        string   `json:"note"         validate:"omitempty,max=500"`
}

func (u *UpsertOverrideRequest) ToModel(roomID string, date time.Time, user string) model.Override {
	return model.Override{
		ID:          uuid.NewString(),
		RoomID:      roomID,
		Date:        date,
		IsAvailable: *u.IsAvailable,
		Price:       u.Price,
		Note:        u.Note,
		Metadata:    gModel.NewMetadata(user, timezone.Now()),
	}
}

type ListOverridesRequest struct {
	From string `json:"from" validate:"omitempty,dateonly"`
	To   string `json:"to"   validate:"omitempty,dateonly"`
}

type OverrideResponse struct {
	ID          string   `json:"id"`
	RoomID      string   `json:"room_id"`
	Date        string   `json:"date"`
	IsAvailable bool     `json:"is_available"`
	Price       *float64 `json:"price"`
	Note        string   `json:"note"`
	gDto.Metadata
}

func (o *OverrideResponse) FromModel(model model.Override) {
	o.ID = model.ID
	o.RoomID = model.RoomID
	o.Date = model.Date.Format(constant.DateOnlyFormat)
	o.IsAvailable = model.IsAvailable
	o.Price = model.Price
	o.Note = model.Note
	o.Metadata.FromModel(model.Metadata)
}

func FromModels(models []model.Override) []OverrideResponse {
	res := make([]OverrideResponse, len(models))
	for i, mod := range models {
		res[i].FromModel(mod)
	}

	return res
}
