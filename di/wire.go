//go:build wireinject
// +build wireinject

package di

import (
	netHTTP "net/http"

	"resort/config"
	"resort/infras/jwt"
	"resort/infras/kafka"
	"resort/infras/otel"
	"resort/infras/postgres"
	"resort/infras/redis"
	"resort/infras/s3"
	"resort/permissions"
	"resort/shared/cache"
	"resort/shared/lock"
	"resort/shared/timezone"
	"resort/transport/http"
	"resort/transport/http/middleware"
	"resort/transport/http/router"
	"resort/transport/ws"

	"github.com/google/wire"

	authService "resort/internal/domains/auth/service"
	availabilityRepository "resort/internal/domains/availability/repository"
	availabilityService "resort/internal/domains/availability/service"
	bookingRepository "resort/internal/domains/booking/repository"
	bookingService "resort/internal/domains/booking/service"
	guestRepository "resort/internal/domains/guest/repository"
	guestService "resort/internal/domains/guest/service"
	notificationService "resort/internal/domains/notification/service"
	roomRepository "resort/internal/domains/room/repository"
	roomService "resort/internal/domains/room/service"
	userRepository "resort/internal/domains/user/repository"
	authHandler "resort/internal/handlers/auth"
	availabilityHandler "resort/internal/handlers/availability"
	bookingHandler "resort/internal/handlers/booking"
	notificationHandler "resort/internal/handlers/notification"
	roomHandler "resort/internal/handlers/room"
)

var configurations = wire.NewSet(
	config.Get,
	permissions.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	otel.New,
	redis.New,
	jwt.New,
	s3.New,
	kafka.New,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
	middleware.NewAuthRoleMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
	lock.New,
	timezone.NewClock,
)

var liveFeed = wire.NewSet(
	ws.New,
	wire.Bind(new(notificationService.Broadcaster), new(*ws.Hub)),
	wire.Bind(new(netHTTP.Handler), new(*ws.Hub)),
)

var roomDomain = wire.NewSet(
	roomRepository.New,
	roomService.New,
)

var availabilityDomain = wire.NewSet(
	availabilityRepository.New,
	availabilityService.New,
)

var guestDomain = wire.NewSet(
	guestRepository.New,
	guestService.New,
)

var bookingDomain = wire.NewSet(
	bookingRepository.New,
	bookingService.New,
)

var notificationDomain = wire.NewSet(
	notificationService.New,
)

var authDomain = wire.NewSet(
	userRepository.New,
	authService.New,
)

var domains = wire.NewSet(
	roomDomain,
	availabilityDomain,
	guestDomain,
	bookingDomain,
	notificationDomain,
	authDomain,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	authHandler.New,
	roomHandler.New,
	availabilityHandler.New,
	bookingHandler.New,
	notificationHandler.New,
	router.New,
)

func InitializeService() *http.HTTP {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		liveFeed,
		domains,
		routing,
		http.New,
	)

	return &http.HTTP{}
}

func InitializeConsumer() *notificationService.Consumer {
	wire.Build(
		config.Get,
		otel.New,
		kafka.New,
		notificationService.NewLogDispatcher,
		notificationService.NewConsumer,
	)

	return &notificationService.Consumer{}
}
