package dto

import (
	"time"

	"resort/internal/domains/booking/model"
	roomModel "resort/internal/domains/room/model"
	roomDto "resort/internal/domains/room/model/dto"
	"resort/shared"
	"resort/shared/constant"
	gDto "resort/shared/dto"
	gModel "resort/shared/model"
	"resort/shared/timezone"
)

type SearchRequest struct {
	CheckIn  string `json:"check_in"  validate:"omitempty,dateonly"`
	CheckOut string `json:"check_out" validate:"omitempty,dateonly"`
	Guests   int    `json:"guests"    validate:"omitempty,gte=1,lte=50"`
}

// AvailableRoom is a search hit. Price is the effective nightly price for the requested stay.
type AvailableRoom struct {
	roomDto.RoomResponse
	BasePrice  float64 `json:"base_price"`
	Nights     int     `json:"nights,omitempty"`
	TotalPrice float64 `json:"total_price,omitempty"`
}

func (a *AvailableRoom) FromModel(room roomModel.Room, price float64, nights int) {
	a.RoomResponse.FromModel(room)
	a.BasePrice = room.Price
	a.Price = price
	a.Nights = nights

	if nights > 0 {
		a.TotalPrice = shared.RoundMoney(price * float64(nights))
	}
}

type SearchResponse struct {
	Rooms []AvailableRoom `json:"rooms"`
}

type CreateBookingRequest struct {
	RoomID          string `json:"room_id"          validate:"required"`
	CheckIn         string `json:"check_in"         validate:"required,dateonly"`
	CheckOut        string `json:"check_out"        validate:"required,dateonly"`
	GuestName       string `json:"guest_name"       validate:"required,max=100"`
	GuestEmail      string `json:"guest_email"      validate:"required,email,max=255"`
	GuestPhone      string `json:"guest_phone"      validate:"omitempty,max=30"`
	Guests          int    `json:"guests"           validate:"omitempty,gte=1,lte=50"`
	SpecialRequests string `json:"special_requests" validate:"omitempty,max=2000"`
	// Source is honoured for staff and internal callers only.
	Source          string `json:"source"           validate:"omitempty,oneof=web voice admin"`
}

// Stay is a validated check-in/check-out pair.
type Stay struct {
	CheckIn  time.Time
	CheckOut time.Time
	Nights   int
}

func (c *CreateBookingRequest) ToModel(id, guestID, user string, stay Stay, totalPrice float64) model.Booking {
	var specialRequests *string
	if c.SpecialRequests != constant.Empty {
		specialRequests = &c.SpecialRequests
	}

	return model.Booking{
		ID:              id,
		RoomID:          c.RoomID,
		GuestID:         guestID,
		GuestName:       c.GuestName,
		GuestEmail:      c.GuestEmail,
		GuestPhone:      c.GuestPhone,
		CheckIn:         stay.CheckIn,
		CheckOut:        stay.CheckOut,
		Guests:          c.Guests,
		TotalPrice:      totalPrice,
		Status:          model.StatusPending,
		Source:          c.Source,
		SpecialRequests: specialRequests,
		Metadata:        gModel.NewMetadata(user, timezone.Now()),
	}
}

type TransitionRequest struct {
	Status string `json:"status" validate:"required"`
}

type BookingResponse struct {
	ID              string  `json:"id"`
	Reference       string  `json:"reference"`
	RoomID          string  `json:"room_id"`
	GuestID         string  `json:"guest_id"`
	GuestName       string  `json:"guest_name"`
	GuestEmail      string  `json:"guest_email"`
	GuestPhone      string  `json:"guest_phone"`
	CheckIn         string  `json:"check_in"`
	CheckOut        string  `json:"check_out"`
	Guests          int     `json:"guests"`
	TotalPrice      float64 `json:"total_price"`
	Status          string  `json:"status"`
	Source          string  `json:"source"`
	SpecialRequests *string `json:"special_requests"`
	gDto.Metadata
}

func (b *BookingResponse) FromModel(model model.Booking) {
	b.ID = model.ID
	b.Reference = model.Reference
	b.RoomID = model.RoomID
	b.GuestID = model.GuestID
	b.GuestName = model.GuestName
	b.GuestEmail = model.GuestEmail
	b.GuestPhone = model.GuestPhone
	b.CheckIn = model.CheckIn.Format(constant.DateOnlyFormat)
	b.CheckOut = model.CheckOut.Format(constant.DateOnlyFormat)
	b.Guests = model.Guests
	b.TotalPrice = model.TotalPrice
	b.Status = model.Status
	b.Source = model.Source
	b.SpecialRequests = model.SpecialRequests
	b.Metadata.FromModel(model.Metadata)
}

type CreateBookingResponse struct {
	Booking    BookingResponse      `json:"booking"`
	Reference  string               `json:"reference"`
	Room       roomDto.RoomResponse `json:"room"`
	TotalPrice float64              `json:"total_price"`
	Nights     int                  `json:"nights"`
}

type GetBookingsResponse struct {
	Bookings  []BookingResponse `json:"bookings"`
	TotalPage int               `json:"total_page"`
	TotalData int               `json:"total_data"`
}

func (r *GetBookingsResponse) FromModels(models []model.Booking, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.TotalPages(totalData, limit)

	r.Bookings = make([]BookingResponse, len(models))
	for i, mod := range models {
		r.Bookings[i].FromModel(mod)
	}
}
