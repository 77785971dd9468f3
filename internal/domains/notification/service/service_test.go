package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"resort/config"
	"resort/infras/kafka"
	kafkaMocks "resort/infras/kafka/mocks"
	"resort/infras/otel/mocks"
	"resort/internal/domains/booking/model/dto"
	notificationMocks "resort/internal/domains/notification/mocks"
	"resort/internal/domains/notification/model"
	"resort/internal/domains/notification/service"
	"resort/shared/timezone"

	kafkaGo "github.com/segmentio/kafka-go"
)

var occurredAt = time.Date(2025, time.May, 31, 9, 30, 0, 0, time.UTC)

func kafkaConfig(enabled bool) *config.Config {
	cfg := &config.Config{}
	cfg.Kafka.Enable = enabled
	cfg.Kafka.ConsumerGroup = "resort-notifier"
	cfg.Kafka.Topics.BookingEvents = "booking-events"

	return cfg
}

func booking() dto.BookingResponse {
	return dto.BookingResponse{
		ID:         "b1",
		Reference:  "RSV-20250601-ABCDEF12",
		RoomID:     "r1",
		GuestName:  "Ana",
		GuestEmail: "ana@example.com",
		CheckIn:    "2025-06-01",
		CheckOut:   "2025-06-04",
		Status:     "pending",
		TotalPrice: 300,
	}
}

func TestNotifier_Publish(t *testing.T) {
	tests := []struct {
		name      string
		enabled   bool
		call      func(n service.Notifier) error
		setupMock func(client *kafkaMocks.MockClient, hub *notificationMocks.MockBroadcaster)
		wantErr   bool
	}{
		{
			name:    "created event goes to kafka and the hub",
			enabled: true,
			call: func(n service.Notifier) error {
				return n.BookingCreated(context.Background(), booking())
			},
			setupMock: func(client *kafkaMocks.MockClient, hub *notificationMocks.MockBroadcaster) {
				hub.EXPECT().Broadcast(gomock.Any()).Do(func(event model.Event) {
					assert.Equal(t, model.EventBookingCreated, event.Type)
					assert.Equal(t, occurredAt, event.OccurredAt)
				})
				client.EXPECT().
					Publish(gomock.Any(), "booking-events", gomock.Any()).
					DoAndReturn(func(_ context.Context, _ string, messages ...kafka.Message) error {
						require.Len(t, messages, 1)
						assert.Equal(t, "b1", messages[0].Key)

						event, ok := messages[0].Value.(model.Event)
						require.True(t, ok)
						assert.Equal(t, "RSV-20250601-ABCDEF12", event.Reference)

						return nil
					})
			},
		},
		{
			name:    "status change with kafka disabled only broadcasts",
			enabled: false,
			call: func(n service.Notifier) error {
				return n.BookingStatusChanged(context.Background(), booking())
			},
			setupMock: func(_ *kafkaMocks.MockClient, hub *notificationMocks.MockBroadcaster) {
				hub.EXPECT().Broadcast(gomock.Any()).Do(func(event model.Event) {
					assert.Equal(t, model.EventBookingStatusChanged, event.Type)
				})
			},
		},
		{
			name:    "broker failure is reported",
			enabled: true,
			call: func(n service.Notifier) error {
				return n.BookingCreated(context.Background(), booking())
			},
			setupMock: func(client *kafkaMocks.MockClient, hub *notificationMocks.MockBroadcaster) {
				hub.EXPECT().Broadcast(gomock.Any())
				client.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("broker down"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			client := kafkaMocks.NewMockClient(ctrl)
			hub := notificationMocks.NewMockBroadcaster(ctrl)
			tt.setupMock(client, hub)

			notifier := service.New(client, hub, timezone.FixedClock(occurredAt), kafkaConfig(tt.enabled), mocks.NewOtel())

			err := tt.call(notifier)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNotifier_WithoutTransports(t *testing.T) {
	notifier := service.New(nil, nil, timezone.FixedClock(occurredAt), kafkaConfig(true), mocks.NewOtel())

	assert.NoError(t, notifier.BookingCreated(context.Background(), booking()))
}

func TestLogDispatcher(t *testing.T) {
	dispatcher := service.NewLogDispatcher()

	assert.NoError(t, dispatcher.Dispatch(context.Background(), model.Event{Type: model.EventBookingCreated}))
	assert.NoError(t, dispatcher.Dispatch(context.Background(), model.Event{Type: model.EventBookingStatusChanged}))
	assert.ErrorIs(t, dispatcher.Dispatch(context.Background(), model.Event{Type: "room.deleted"}), service.ErrUnknownEvent)
}

func TestConsumer_Handle(t *testing.T) {
	event := model.NewEvent(model.EventBookingCreated, booking(), occurredAt)

	raw, err := json.Marshal(event)
	require.NoError(t, err)

	tests := []struct {
		name      string
		message   kafkaGo.Message
		setupMock func(dispatcher *notificationMocks.MockDispatcher)
		wantErr   bool
	}{
		{
			name:    "valid event is dispatched",
			message: kafkaGo.Message{Key: []byte("b1"), Value: raw},
			setupMock: func(dispatcher *notificationMocks.MockDispatcher) {
				dispatcher.EXPECT().
					Dispatch(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, got model.Event) error {
						assert.Equal(t, event.Reference, got.Reference)
						assert.True(t, event.OccurredAt.Equal(got.OccurredAt))

						return nil
					})
			},
		},
		{
			name:      "garbage payload is skipped",
			message:   kafkaGo.Message{Key: []byte("b1"), Value: []byte("not json")},
			setupMock: func(_ *notificationMocks.MockDispatcher) {},
		},
		{
			name:    "dispatch failure is surfaced",
			message: kafkaGo.Message{Key: []byte("b1"), Value: raw},
			setupMock: func(dispatcher *notificationMocks.MockDispatcher) {
				dispatcher.EXPECT().Dispatch(gomock.Any(), gomock.Any()).Return(errors.New("smtp down"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			dispatcher := notificationMocks.NewMockDispatcher(ctrl)
			tt.setupMock(dispatcher)

			consumer := service.NewConsumer(kafkaMocks.NewMockClient(ctrl), dispatcher, kafkaConfig(true), mocks.NewOtel())

			err := consumer.Handle(context.Background(), tt.message)

			assert.Equal(t, tt.wantErr, err != nil)
		})
	}
}

func TestConsumer_Run(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := kafkaMocks.NewMockClient(ctrl)
	dispatcher := notificationMocks.NewMockDispatcher(ctrl)

	raw, err := json.Marshal(model.NewEvent(model.EventBookingStatusChanged, booking(), occurredAt))
	require.NoError(t, err)

	client.EXPECT().
		Consume(gomock.Any(), "resort-notifier", "booking-events", gomock.Any()).
		DoAndReturn(func(ctx context.Context, _, _ string, handler kafka.Handler) error {
			return handler(ctx, kafkaGo.Message{Key: []byte("b1"), Value: raw})
		})
	dispatcher.EXPECT().Dispatch(gomock.Any(), gomock.Any()).Return(nil)

	assert.NoError(t, service.NewConsumer(client, dispatcher, kafkaConfig(true), mocks.NewOtel()).Run(context.Background()))
}
