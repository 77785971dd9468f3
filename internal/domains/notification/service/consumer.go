package service

import (
	"context"
	"fmt"

	"resort/config"
	"resort/infras/kafka"
	"resort/infras/otel"
	"resort/internal/domains/notification/model"
	"resort/shared/constant"

	"github.com/rs/zerolog/log"
	kafkaGo "github.com/segmentio/kafka-go"
)

// Consumer reads booking events and hands each one to a Dispatcher.
type Consumer struct {
	kafka      kafka.Client
	dispatcher Dispatcher
	cfg        *config.Config
	otel       otel.Otel
}

func NewConsumer(kafkaClient kafka.Client, dispatcher Dispatcher, cfg *config.Config, otel otel.Otel) *Consumer {
	return &Consumer{
		kafka:      kafkaClient,
		dispatcher: dispatcher,
		cfg:        cfg,
		otel:       otel,
	}
}

// Run blocks until ctx is done.
func (c *Consumer) Run(ctx context.Context) error {
	topic := c.cfg.Kafka.Topics.BookingEvents
	log.Info().Str("topic", topic).Msg("booking event consumer started")

	if err := c.kafka.Consume(ctx, c.cfg.Kafka.ConsumerGroup, topic, c.Handle); err != nil {
		return fmt.Errorf("booking event consumer: %w", err)
	}

	return nil
}

// Close releases the broker connection.
func (c *Consumer) Close() error {
	return c.kafka.Close() //nolint:wrapcheck
}

// Handle decodes one message and dispatches it. Undecodable payloads are dropped; a failed
// dispatch is returned so the client logs it against the offset.
func (c *Consumer) Handle(ctx context.Context, message kafkaGo.Message) (err error) {
	ctx, scope := c.otel.NewScope(ctx, constant.OtelEventScopeName, constant.OtelEventScopeName+".notification.Handle")
	defer scope.End()

	key, event, err := kafka.Decode[model.Event](message)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("key", key).Msg("dropping undecodable booking event")

		return nil
	}

	if err = c.dispatcher.Dispatch(ctx, event); err != nil {
		scope.TraceError(err)

		return fmt.Errorf("failed to dispatch %s for %s: %w", event.Type, key, err)
	}

	return nil
}
