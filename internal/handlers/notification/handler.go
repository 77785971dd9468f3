package notification

import (
	"net/http"

	"resort/config"
	"resort/infras/otel"
	"resort/shared/constant"
	"resort/shared/failure"
	"resort/transport/http/response"

	"github.com/go-chi/chi/v5"
)

// Handler exposes the live booking feed for the admin portal.
type Handler struct {
	feed http.Handler
	cfg  *config.Config
	otel otel.Otel
}

func New(feed http.Handler, cfg *config.Config, otel otel.Otel) Handler {
	return Handler{
		feed: feed,
		cfg:  cfg,
		otel: otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Get("/ws/bookings", handler.BookingFeed)
}

// BookingFeed upgrades to a websocket that streams booking events.
// @Summary Live booking feed
// @Description Websocket stream of booking.created and booking.status_changed events. Pass the access token as the access_token query parameter when headers cannot be set.
// @Tags Notifications
// @Param access_token query string false "Access token"
// @Success 101 {string} string "Switching Protocols"
// @Failure 401 {object} response.Error
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Router /v1/ws/bookings [get]
// @Security BearerAuth
func (handler *Handler) BookingFeed(w http.ResponseWriter, r *http.Request) {
	_, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".BookingFeed")

	if !handler.cfg.Websocket.Enable {
		err := failure.NotFound("live booking feed is disabled")
		scope.TraceError(err)
		scope.End()

		response.WithError(w, err)

		return
	}

	scope.End()

	handler.feed.ServeHTTP(w, r)
}
