package availability

import (
	"net/http"

	"resort/infras/otel"
	"resort/internal/domains/availability/model/dto"
	"resort/internal/domains/availability/service"
	"resort/shared/constant"
	"resort/shared/validator"
	"resort/transport/http/response"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	service service.Availability
	otel    otel.Otel
}

func New(service service.Availability, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Put("/rooms/{id}/overrides", handler.UpsertOverride)
	router.Get("/rooms/{id}/overrides", handler.GetOverrides)
	router.Delete("/rooms/{id}/overrides/{date}", handler.DeleteOverride)
}

// UpsertOverride sets the availability or price of a room for one date.
// @Summary Set a date override
// @Description Close a room or change its nightly price for a single date. Replaces any override on that date.
// @Tags Availability
// @Accept json
// @Produce json
// @Param id path string true "Room ID"
// @Param request body dto.UpsertOverrideRequest true "Override"
// @Success 200 {object} response.Data[dto.OverrideResponse] "Stored override"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/rooms/{id}/overrides [put]
// @Security BearerAuth
func (handler *Handler) UpsertOverride(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".UpsertOverride")
	defer scope.End()

	roomID := chi.URLParam(r, constant.RequestParamID)
	req := dto.UpsertOverrideRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		response.WithTracedError(w, scope, err)

		return
	}

	override, err := handler.service.Upsert(ctx, roomID, req)
	if err != nil {
		response.WithTracedError(w, scope, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Override stored by user " + user)

	response.WithJSON(w, http.StatusOK, override)
}

// GetOverrides lists the overrides of a room.
// @Summary List date overrides
// @Tags Availability
// @Produce json
// @Param id path string true "Room ID"
// @Param from query string false "First date (YYYY-MM-DD)"
// @Param to query string false "Last date (YYYY-MM-DD)"
// @Success 200 {object} response.Data[[]dto.OverrideResponse] "Overrides"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/rooms/{id}/overrides [get]
// @Security BearerAuth
func (handler *Handler) GetOverrides(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetOverrides")
	defer scope.End()

	roomID := chi.URLParam(r, constant.RequestParamID)
	req := dto.ListOverridesRequest{
		From: r.URL.Query().Get("from"),
		To:   r.URL.Query().Get("to"),
	}

	overrides, err := handler.service.List(ctx, roomID, req)
	if err != nil {
		response.WithTracedError(w, scope, err)

		return
	}

	response.WithJSON(w, http.StatusOK, overrides)
}

// DeleteOverride removes the override of a room for one date.
// @Summary Delete a date override
// @Tags Availability
// @Produce json
// @Param id path string true "Room ID"
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Message "Override deleted successfully"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/rooms/{id}/overrides/{date} [delete]
// @Security BearerAuth
func (handler *Handler) DeleteOverride(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".DeleteOverride")
	defer scope.End()

	roomID := chi.URLParam(r, constant.RequestParamID)
	date := chi.URLParam(r, constant.RequestParamDate)

	if err := handler.service.Delete(ctx, roomID, date); err != nil {
		response.WithTracedError(w, scope, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Override deleted by user " + user)

	response.WithMessage(w, http.StatusOK, "Override deleted successfully")
}
