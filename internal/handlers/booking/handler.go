package booking

import (
	"context"
	"net/http"

	"resort/infras/otel"
	"resort/internal/domains/booking/model"
	"resort/internal/domains/booking/model/dto"
	"resort/internal/domains/booking/service"
	notificationService "resort/internal/domains/notification/service"
	"resort/shared"
	"resort/shared/constant"
	gDto "resort/shared/dto"
	"resort/shared/failure"
	"resort/shared/validator"
	"resort/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

var sortableFields = []string{
	constant.FieldCreatedAt,
	model.FieldCheckIn,
	model.FieldCheckOut,
	model.FieldTotalPrice,
	model.FieldStatus,
}

type Handler struct {
	service  service.Booking
	notifier notificationService.Notifier
	otel     otel.Otel
}

func New(service service.Booking, notifier notificationService.Notifier, otel otel.Otel) Handler {
	return Handler{
		service:  service,
		notifier: notifier,
		otel:     otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Get("/rooms/available", handler.SearchRooms)
	router.Post("/bookings", handler.CreateBooking)
	router.Get("/bookings", handler.GetBookings)
	router.Get("/bookings/{id}", handler.GetBookingByID)
	router.Patch("/bookings/{id}/status", handler.TransitionStatus)
}

// SearchRooms lists rooms that can be booked.
// @Summary Search available rooms
// @Description Rooms that fit the party; with both dates, only rooms free for the whole stay, priced with any overrides.
// @Tags Booking
// @Produce json
// @Param check_in query string false "Check-in date (YYYY-MM-DD)"
// @Param check_out query string false "Check-out date (YYYY-MM-DD)"
// @Param guests query integer false "Party size"
// @Success 200 {object} response.Data[dto.SearchResponse] "Available rooms"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/rooms/available [get]
func (handler *Handler) SearchRooms(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".SearchRooms")
	defer scope.End()

	query := r.URL.Query()

	req := dto.SearchRequest{
		CheckIn:  query.Get(model.FieldCheckIn),
		CheckOut: query.Get(model.FieldCheckOut),
	}

	if raw := query.Get(model.FieldGuests); raw != constant.Empty {
		guests, err := shared.ConvertStringToInt(raw)
		if err != nil {
			err = failure.BadRequestFromString("guests must be an integer")
			response.WithTracedError(w, scope, err)

			return
		}

		req.Guests = guests
	}

	rooms, err := handler.service.Search(ctx, req)
	if err != nil {
		response.WithTracedError(w, scope, err)

		return
	}

	scope.AddEvent("Rooms searched successfully")

	response.WithJSON(w, http.StatusOK, rooms)
}

// CreateBooking books a room for a guest.
// @Summary Create a new booking
// @Description Book a room for the given stay. The booking starts as pending.
// @Tags Booking
// @Accept json
// @Produce json
// @Param request body dto.CreateBookingRequest true "Create Booking Request"
// @Success 201 {object} response.Data[dto.CreateBookingResponse] "Created booking"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings [post]
func (handler *Handler) CreateBooking(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateBooking")
	defer scope.End()

	req := dto.CreateBookingRequest{}

	if err := validator.Validate(request.Body, &req); err != nil {
		response.WithTracedError(writer, scope, err)

		return
	}

	booking, err := handler.service.Create(ctx, req)
	if err != nil {
		response.WithTracedError(writer, scope, err)

		return
	}

	handler.notify(ctx, booking.Booking, handler.notifier.BookingCreated)

	scope.AddEvent("Booking created successfully with reference " + booking.Reference)

	response.WithJSON(writer, http.StatusCreated, booking)
}

// GetBookings retrieves all bookings based on query parameters.
// @Summary Get all bookings
// @Description Retrieve all bookings with optional filtering and pagination.
// @Tags Booking
// @Accept json
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param room_id query string false "Filter by room ID"
// @Param status query string false "Filter by status"
// @Param guest_email query string false "Filter by guest email"
// @Success 200 {object} response.Data[dto.GetBookingsResponse] "List of bookings"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings [get]
// @Security BearerAuth
func (handler *Handler) GetBookings(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetBookings")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	if err := queryParams.RestrictSort(sortableFields...); err != nil {
		response.WithTracedError(w, scope, err)

		return
	}

	filterGroup := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters:  []any{},
	}

	for _, field := range []string{model.FieldRoomID, model.FieldStatus, model.FieldGuestEmail} {
		value := r.URL.Query().Get(field)
		if value == constant.Empty {
			continue
		}

		filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
			Field:    field,
			Operator: gDto.FilterOperatorEq,
			Value:    value,
			Table:    model.TableName,
		})
	}

	bookings, err := handler.service.GetAll(ctx, queryParams, filterGroup)
	if err != nil {
		response.WithTracedError(w, scope, err)

		return
	}

	scope.AddEvent("Bookings retrieved successfully")

	response.WithJSON(w, http.StatusOK, bookings)
}

// GetBookingByID retrieves a booking by its ID.
// @Summary Get a booking by ID
// @Tags Booking
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Data[dto.BookingResponse] "Booking details"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id} [get]
// @Security BearerAuth
func (handler *Handler) GetBookingByID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetBookingByID")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	booking, err := handler.service.Get(ctx, id)
	if err != nil {
		response.WithTracedError(w, scope, err)

		return
	}

	scope.AddEvent("Booking retrieved successfully")

	response.WithJSON(w, http.StatusOK, booking)
}

// TransitionStatus moves a booking to a new status.
// @Summary Change booking status
// @Description Confirm, cancel, check in or check out a booking.
// @Tags Booking
// @Accept json
// @Produce json
// @Param id path string true "Booking ID"
// @Param request body dto.TransitionRequest true "Target status"
// @Success 200 {object} response.Data[dto.BookingResponse] "Updated booking"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/bookings/{id}/status [patch]
// @Security BearerAuth
func (handler *Handler) TransitionStatus(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".TransitionStatus")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)
	req := dto.TransitionRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		response.WithTracedError(w, scope, err)

		return
	}

	booking, err := handler.service.TransitionStatus(ctx, id, req)
	if err != nil {
		response.WithTracedError(w, scope, err)

		return
	}

	handler.notify(ctx, booking, handler.notifier.BookingStatusChanged)

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Booking moved to " + booking.Status + " by user " + user)

	response.WithJSON(w, http.StatusOK, booking)
}

// notify runs send detached from the request. Failures are logged by the notifier.
func (handler *Handler) notify(ctx context.Context, booking dto.BookingResponse, send func(context.Context, dto.BookingResponse) error) {
	go func() {
		if err := send(context.WithoutCancel(ctx), booking); err != nil {
			log.Warn().Err(err).Str("booking_id", booking.ID).Msg("booking notification not delivered")
		}
	}()
}
