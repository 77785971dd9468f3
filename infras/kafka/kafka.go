package kafka

//go:generate go run go.uber.org/mock/mockgen -source=./kafka.go -destination=./mocks/kafka_mock.go -package=mocks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"resort/config"
	"resort/infras/otel"
	"resort/shared/constant"

	"github.com/rs/zerolog/log"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"
)

const (
	writeTimeout      = 10 * time.Second
	headerContentType = "content-type"
	contentTypeJSON   = "application/json"
)

var ErrNoTopic = errors.New("kafka topic is required")

// Message is an outgoing record. Value is encoded as JSON.
type Message struct {
	Key   string
	Value any
}

// Encode renders m as a record for topic.
func (m Message) Encode(topic string) (kafkaGo.Message, error) {
	value, err := json.Marshal(m.Value)
	if err != nil {
		return kafkaGo.Message{}, fmt.Errorf("failed to encode message %q: %w", m.Key, err)
	}

	return kafkaGo.Message{
		Topic:   topic,
		Key:     []byte(m.Key),
		Value:   value,
		Headers: []kafkaGo.Header{{Key: headerContentType, Value: []byte(contentTypeJSON)}},
	}, nil
}

// Decode unmarshals the JSON payload of msg into T.
func Decode[T any](msg kafkaGo.Message) (key string, value T, err error) {
	key = string(msg.Key)

	if err = json.Unmarshal(msg.Value, &value); err != nil {
		return key, value, fmt.Errorf("failed to decode message %q: %w", key, err)
	}

	return key, value, nil
}

// Handler processes one record. A returned error is logged and the offset is still
// committed, so a poison record never stalls the partition.
type Handler func(ctx context.Context, msg kafkaGo.Message) error

type Client interface {
	Publish(ctx context.Context, topic string, messages ...Message) error
	// Consume blocks until ctx is done, committing each record after handler returns.
	Consume(ctx context.Context, group, topic string, handler Handler) error
	Close() error
}

type kafkaClientImpl struct {
	config *config.Config
	otel   otel.Otel
	dialer *kafkaGo.Dialer
	writer *kafkaGo.Writer
}

func New(cfg *config.Config, otl otel.Otel) Client {
	dialer := &kafkaGo.Dialer{DualStack: true, Timeout: writeTimeout}
	transport := &kafkaGo.Transport{}

	if sasl := cfg.Kafka.SASL; sasl.Username != constant.Empty {
		mechanism := plain.Mechanism{Username: sasl.Username, Password: sasl.Password}
		dialer.SASLMechanism = mechanism
		transport.SASL = mechanism
	}

	log.Info().Strs("brokers", cfg.Kafka.Brokers).Msg("kafka client initialized")

	return &kafkaClientImpl{
		config: cfg,
		otel:   otl,
		dialer: dialer,
		writer: &kafkaGo.Writer{
			Addr:                   kafkaGo.TCP(cfg.Kafka.Brokers...),
			Transport:              transport,
			Balancer:               &kafkaGo.Hash{},
			RequiredAcks:           kafkaGo.RequireAll,
			AllowAutoTopicCreation: true,
			WriteTimeout:           writeTimeout,
		},
	}
}

// Publish writes messages to topic. Records with the same key land on the same partition.
func (k *kafkaClientImpl) Publish(ctx context.Context, topic string, messages ...Message) (err error) {
	ctx, scope := k.otel.NewScope(ctx, constant.OtelKafkaScopeName, constant.OtelKafkaScopeName+".Publish")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	if topic == constant.Empty {
		return ErrNoTopic
	}

	scope.SetAttributes(map[string]any{"kafka.topic": topic, "kafka.count": len(messages)})

	records := make([]kafkaGo.Message, len(messages))
	for i, message := range messages {
		if records[i], err = message.Encode(topic); err != nil {
			return err
		}
	}

	if err = k.writer.WriteMessages(ctx, records...); err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("failed to publish to kafka")

		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}

	return nil
}

func (k *kafkaClientImpl) Consume(ctx context.Context, group, topic string, handler Handler) error {
	if topic == constant.Empty {
		return ErrNoTopic
	}

	if group == constant.Empty {
		group = k.config.Kafka.ConsumerGroup
	}

	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{
		Brokers:     k.config.Kafka.Brokers,
		Topic:       topic,
		GroupID:     group,
		Dialer:      k.dialer,
		StartOffset: kafkaGo.FirstOffset,
	})
	defer func() {
		if err := reader.Close(); err != nil {
			log.Error().Err(err).Str("topic", topic).Msg("failed to close kafka reader")
		}
	}()

	logger := log.With().Str("topic", topic).Str("group", group).Logger()

	for {
		msg, err := reader.FetchMessage(ctx)
		if ctx.Err() != nil {
			logger.Info().Msg("kafka consumer stopped")

			return nil
		}

		if err != nil {
			logger.Error().Err(err).Msg("failed to fetch kafka message")

			continue
		}

		if err = handler(ctx, msg); err != nil {
			logger.Error().Err(err).Str("key", string(msg.Key)).Int64("offset", msg.Offset).Msg("kafka handler failed")
		}

		if err = reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			logger.Error().Err(err).Int64("offset", msg.Offset).Msg("failed to commit kafka offset")
		}
	}
}

func (k *kafkaClientImpl) Close() error {
	if err := k.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer: %w", err)
	}

	return nil
}
