package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"

	"resort/config"
	"resort/infras/kafka"
	"resort/infras/otel"
	"resort/internal/domains/booking/model/dto"
	"resort/internal/domains/notification/model"
	"resort/shared/constant"
	"resort/shared/timezone"

	"github.com/rs/zerolog/log"
)

// Notifier tells the outside world about booking changes. Delivery is best effort.
type Notifier interface {
	BookingCreated(ctx context.Context, booking dto.BookingResponse) error
	BookingStatusChanged(ctx context.Context, booking dto.BookingResponse) error
}

// Broadcaster pushes an event to connected live clients.
type Broadcaster interface {
	Broadcast(event model.Event)
}

type notifierImpl struct {
	kafka       kafka.Client
	broadcaster Broadcaster
	clock       timezone.Clock
	cfg         *config.Config
	otel        otel.Otel
}

// New builds a Notifier. kafkaClient and broadcaster may be nil when their transport is disabled.
func New(kafkaClient kafka.Client, broadcaster Broadcaster, clock timezone.Clock, cfg *config.Config, otel otel.Otel) Notifier {
	return &notifierImpl{
		kafka:       kafkaClient,
		broadcaster: broadcaster,
		clock:       clock,
		cfg:         cfg,
		otel:        otel,
	}
}

func (n *notifierImpl) BookingCreated(ctx context.Context, booking dto.BookingResponse) error {
	return n.publish(ctx, model.NewEvent(model.EventBookingCreated, booking, n.clock.Now()))
}

func (n *notifierImpl) BookingStatusChanged(ctx context.Context, booking dto.BookingResponse) error {
	return n.publish(ctx, model.NewEvent(model.EventBookingStatusChanged, booking, n.clock.Now()))
}

func (n *notifierImpl) publish(ctx context.Context, event model.Event) (err error) {
	ctx, scope := n.otel.NewScope(ctx, constant.OtelEventScopeName, constant.OtelEventScopeName+".notification.publish")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	scope.SetAttributes(map[string]any{
		"event.type":       event.Type,
		"event.booking_id": event.BookingID,
	})

	if n.broadcaster != nil {
		n.broadcaster.Broadcast(event)
	}

	if n.kafka == nil || !n.cfg.Kafka.Enable {
		return nil
	}

	err = n.kafka.Publish(ctx, n.cfg.Kafka.Topics.BookingEvents, kafka.Message{Key: event.Key(), Value: event})
	if err != nil {
		log.Error().Err(err).Str("type", event.Type).Str("booking_id", event.BookingID).Msg("failed to publish booking event")

		return fmt.Errorf("failed to publish booking event: %w", err)
	}

	log.Info().Str("type", event.Type).Str("booking_id", event.BookingID).Msg("booking event published")

	return nil
}

// Dispatcher delivers a consumed event to guests or staff.
type Dispatcher interface {
	Dispatch(ctx context.Context, event model.Event) error
}

var ErrUnknownEvent = errors.New("unknown event type")

type logDispatcher struct{}

// NewLogDispatcher returns a Dispatcher that records each delivery in the log. Email, SMS and
// WhatsApp gateways plug in behind the same interface.
func NewLogDispatcher() Dispatcher {
	return logDispatcher{}
}

func (logDispatcher) Dispatch(_ context.Context, event model.Event) error {
	var msg string

	switch event.Type {
	case model.EventBookingCreated:
		msg = "booking confirmation queued for guest"
	case model.EventBookingStatusChanged:
		msg = "booking status update queued for guest"
	default:
		return fmt.Errorf("%w: %s", ErrUnknownEvent, event.Type)
	}

	log.Info().
		Str("type", event.Type).
		Str("reference", event.Reference).
		Str("guest_email", event.GuestEmail).
		Str("status", event.Status).
		Str("check_in", event.CheckIn).
		Str("check_out", event.CheckOut).
		Msg(msg)

	return nil
}
