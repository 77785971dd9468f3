package room

import (
	"mime/multipart"
	"net/http"
	"net/url"

	"resort/infras/otel"
	"resort/internal/domains/room/model"
	"resort/internal/domains/room/model/dto"
	"resort/internal/domains/room/service"
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
	model.FieldName,
	model.FieldPrice,
	model.FieldMaxGuests,
}

type Handler struct {
	service service.Room
	otel    otel.Otel
}

func New(service service.Room, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

// Router registers flat paths so other handlers can hang routes under /rooms as well.
func (handler *Handler) Router(router chi.Router) {
	router.Post("/rooms", handler.CreateRoom)
	router.Get("/rooms", handler.GetRooms)
	router.Get("/rooms/{id}", handler.GetRoomByID)
	router.Patch("/rooms/{id}", handler.UpdateRoom)
	router.Delete("/rooms/{id}", handler.DeleteRoom)
}

// CreateRoom handles the creation of a new room.
// @Summary Create a new room
// @Description Create a new room with the provided details.
// @Tags Room
// @Accept multipart/form-data
// @Produce json
// @Param name formData string true "Room name"
// @Param description formData string false "Room description"
// @Param price formData number true "Nightly base price"
// @Param max_guests formData integer true "Maximum occupancy"
// @Param available formData boolean false "Whether the room can be booked"
// @Param image formData file false "Room image"
// @Success 201 {object} response.Data[dto.RoomResponse] "Created room"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/rooms [post]
// @Security BearerAuth
func (handler *Handler) CreateRoom(writer http.ResponseWriter, request *http.Request) {
	ctx, scope := handler.otel.NewScope(request.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CreateRoom")
	defer scope.End()

	form, err := readForm(request)
	if err != nil {
		response.WithTracedError(writer, scope, err)

		return
	}
	defer form.close()

	req := dto.CreateRoomRequest{
		Name:        form.name,
		Description: form.description,
		Available:   form.available,
		Image:       form.image,
		ImageFile:   form.file,
	}

	if form.price != nil {
		req.Price = *form.price
	}

	if form.maxGuests != nil {
		req.MaxGuests = *form.maxGuests
	}

	if err = validator.ValidateStruct(&req); err != nil {
		response.WithTracedError(writer, scope, err)

		return
	}

	room, err := handler.service.Create(ctx, req)
	if err != nil {
		response.WithTracedError(writer, scope, err)

		return
	}

	scope.SetAttribute("room.id", room.ID)
	response.WithJSON(writer, http.StatusCreated, room)
}

// GetRooms retrieves all room items based on query parameters.
// @Summary Get all rooms
// @Description Retrieve all rooms with optional filtering and pagination.
// @Tags Room
// @Accept json
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param name query string false "Filter by name"
// @Param available query boolean false "Filter by availability flag"
// @Success 200 {object} response.Data[dto.GetRoomsResponse] "List of rooms"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/rooms [get]
func (handler *Handler) GetRooms(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetRooms")
	defer scope.End()

	params := gDto.QueryParams{}
	params.FromRequest(r, true)

	if err := params.RestrictSort(sortableFields...); err != nil {
		response.WithTracedError(w, scope, err)

		return
	}

	rooms, err := handler.service.GetAll(ctx, params, listFilter(r.URL.Query()))
	if err != nil {
		response.WithTracedError(w, scope, err)

		return
	}

	response.WithJSON(w, http.StatusOK, rooms)
}

// GetRoomByID retrieves a room by its ID.
// @Summary Get a room by ID
// @Description Retrieve a room by its unique identifier.
// @Tags Room
// @Accept json
// @Produce json
// @Param id path string true "Room ID"
// @Success 200 {object} response.Data[dto.RoomResponse] "Room details"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/rooms/{id} [get]
func (handler *Handler) GetRoomByID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetRoomByID")
	defer scope.End()

	room, err := handler.service.Get(ctx, chi.URLParam(r, constant.RequestParamID))
	if err != nil {
		response.WithTracedError(w, scope, err)

		return
	}

	response.WithJSON(w, http.StatusOK, room)
}

// UpdateRoom updates an existing room by its ID.
// @Summary Update a room by ID
// @Description Update the details of an existing room.
// @Tags Room
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Room ID"
// @Param name formData string false "Room name"
// @Param description formData string false "Room description"
// @Param price formData number false "Nightly base price"
// @Param max_guests formData integer false "Maximum occupancy"
// @Param available formData boolean false "Whether the room can be booked"
// @Param image formData file false "Room image"
// @Success 200 {object} response.Message "Room updated successfully"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/rooms/{id} [patch]
// @Security BearerAuth
func (handler *Handler) UpdateRoom(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpdateRoom")
	defer scope.End()

	form, err := readForm(r)
	if err != nil {
		response.WithTracedError(w, scope, err)

		return
	}
	defer form.close()

	req := dto.UpdateRoomRequest{
		Name:        form.name,
		Description: form.description,
		Price:       form.price,
		MaxGuests:   form.maxGuests,
		Available:   form.available,
		Image:       form.image,
		ImageFile:   form.file,
	}

	if err = validator.ValidateStruct(&req); err != nil {
		response.WithTracedError(w, scope, err)

		return
	}

	if err = handler.service.Update(ctx, req, chi.URLParam(r, constant.RequestParamID)); err != nil {
		response.WithTracedError(w, scope, err)

		return
	}

	response.WithMessage(w, http.StatusOK, "Room updated successfully")
}

// DeleteRoom deletes a room by its ID.
// @Summary Delete a room by ID
// @Description Delete a room using its unique identifier.
// @Tags Room
// @Accept json
// @Produce json
// @Param id path string true "Room ID"
// @Success 200 {object} response.Message "Room deleted successfully"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/rooms/{id} [delete]
// @Security BearerAuth
func (handler *Handler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DeleteRoom")
	defer scope.End()

	if err := handler.service.Delete(ctx, chi.URLParam(r, constant.RequestParamID)); err != nil {
		response.WithTracedError(w, scope, err)

		return
	}

	response.WithMessage(w, http.StatusOK, "Room deleted successfully")
}


// roomForm is the multipart payload shared by create and update. Numeric fields stay nil
// when absent so updates can tell "unset" from zero.
type roomForm struct {
	name        string
	description string
	price       *float64
	maxGuests   *int
	available   *bool
	image       *multipart.FileHeader
	file        multipart.File
}

func readForm(r *http.Request) (form roomForm, err error) {
	if err = r.ParseMultipartForm(constant.RequestMaxMemory); err != nil {
		log.Debug().Err(err).Msg("failed to parse multipart form")

		return form, failure.BadRequestFromString("request must be multipart/form-data") // nolint:wrapcheck
	}

	form.name = r.FormValue(model.FieldName)
	form.description = r.FormValue(model.FieldDescription)
	form.available = shared.ParseOptionalBool(r.FormValue(model.FieldAvailable))

	if raw := r.FormValue(model.FieldPrice); raw != constant.Empty {
		price, err := shared.ConvertStringToFloat(raw)
		if err != nil {
			return form, failure.BadRequestFromString("price must be a number") // nolint:wrapcheck
		}

		form.price = &price
	}

	if raw := r.FormValue(model.FieldMaxGuests); raw != constant.Empty {
		guests, err := shared.ConvertStringToInt(raw)
		if err != nil {
			return form, failure.BadRequestFromString("max_guests must be an integer") // nolint:wrapcheck
		}

		form.maxGuests = &guests
	}

	if file, header, err := r.FormFile(model.FieldImage); err == nil {
		form.file = file
		form.image = header
	}

	return form, nil
}

func (f roomForm) close() {
	if f.file != nil {
		_ = f.file.Close()
	}
}

// listFilter narrows the listing by a name fragment and the availability flag.
func listFilter(query url.Values) gDto.FilterGroup {
	filter := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{Table: model.TableName, Field: model.FieldName, Operator: gDto.FilterOperatorLike, Value: query.Get(model.FieldName)},
		},
	}

	if available := shared.ParseOptionalBool(query.Get(model.FieldAvailable)); available != nil {
		filter.Filters = append(filter.Filters, gDto.Filter{
			Table:    model.TableName,
			Field:    model.FieldAvailable,
			Operator: gDto.FilterOperatorEq,
			Value:    *available,
		})
	}

	return filter
}
