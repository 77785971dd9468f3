package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks -mock_names=Availability=MockAvailabilityService

import (
	"context"
	"fmt"
	"time"

	"resort/infras/otel"
	"resort/internal/domains/availability/model/dto"
	"resort/internal/domains/availability/repository"
	roomModel "resort/internal/domains/room/model"
	roomRepository "resort/internal/domains/room/repository"
	"resort/shared"
	"resort/shared/constant"
	"resort/shared/failure"
	"resort/shared/timezone"

	"github.com/rs/zerolog/log"
)

// Availability manages per-date overrides. Reads always hit the store; overrides are never cached.
type Availability interface {
	Upsert(ctx context.Context, roomID string, req dto.UpsertOverrideRequest) (dto.OverrideResponse, error)
	List(ctx context.Context, roomID string, req dto.ListOverridesRequest) ([]dto.OverrideResponse, error)
	Delete(ctx context.Context, roomID, date string) error
}

type serviceImpl struct {
	repo     repository.Availability
	roomRepo roomRepository.Room
	otel     otel.Otel
}

func New(repo repository.Availability, roomRepo roomRepository.Room, otel otel.Otel) Availability {
	return &serviceImpl{
		repo:     repo,
		roomRepo: roomRepo,
		otel:     otel,
	}
}

func (s *serviceImpl) Upsert(ctx context.Context, roomID string, req dto.UpsertOverrideRequest) (res dto.OverrideResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".availability.Upsert")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	date, err := timezone.ParseDate(req.Date)
	if err != nil {
		return res, failure.BadRequestFromString("date must be formatted as YYYY-MM-DD") // nolint:wrapcheck
	}

	if err = s.ensureRoom(ctx, roomID); err != nil {
		return res, err
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	if err = s.repo.Save(ctx, req.ToModel(roomID, date, user)); err != nil {
		log.Error().Err(err).Str("room_id", roomID).Str("date", req.Date).Msg("failed to save override")

		return res, fmt.Errorf("failed to save override: %w", err)
	}

	saved, err := s.repo.Get(ctx, repository.ByRoomAndDate(roomID, date))
	if err != nil {
		log.Error().Err(err).Msg("failed to read back override")

		return res, fmt.Errorf("failed to get override: %w", err)
	}

	res.FromModel(saved)

	return res, nil
}

func (s *serviceImpl) List(ctx context.Context, roomID string, req dto.ListOverridesRequest) (res []dto.OverrideResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".availability.List")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	var from, to time.Time

	if req.From != constant.Empty {
		if from, err = timezone.ParseDate(req.From); err != nil {
			return nil, failure.BadRequestFromString("from must be formatted as YYYY-MM-DD") // nolint:wrapcheck
		}
	}

	if req.To != constant.Empty {
		if to, err = timezone.ParseDate(req.To); err != nil {
			return nil, failure.BadRequestFromString("to must be formatted as YYYY-MM-DD") // nolint:wrapcheck
		}
	}

	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return nil, failure.BadRequestFromString("from must not be after to") // nolint:wrapcheck
	}

	if err = s.ensureRoom(ctx, roomID); err != nil {
		return nil, err
	}

	overrides, err := s.repo.ListInWindow(ctx, []string{roomID}, from, to)
	if err != nil {
		log.Error().Err(err).Str("room_id", roomID).Msg("failed to list overrides")

		return nil, fmt.Errorf("failed to list overrides: %w", err)
	}

	return dto.FromModels(overrides), nil
}

func (s *serviceImpl) Delete(ctx context.Context, roomID, date string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".availability.Delete")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	day, err := timezone.ParseDate(date)
	if err != nil {
		return failure.BadRequestFromString("date must be formatted as YYYY-MM-DD") // nolint:wrapcheck
	}

	filter := repository.ByRoomAndDate(roomID, day)

	override, err := s.repo.Get(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get override")

		return fmt.Errorf("failed to get override: %w", err)
	}

	if override.ID == constant.Empty {
		return failure.NotFound("override not found") // nolint:wrapcheck
	}

	if err = s.repo.Delete(ctx, filter); err != nil {
		log.Error().Err(err).Msg("failed to delete override")

		return fmt.Errorf("failed to delete override: %w", err)
	}

	return nil
}

func (s *serviceImpl) ensureRoom(ctx context.Context, roomID string) error {
	exist, err := s.roomRepo.Exist(ctx, shared.ByID(roomID, roomModel.FieldID, roomModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to check room existence")

		return fmt.Errorf("failed to check room existence: %w", err)
	}

	if !exist {
		return failure.NotFound("room not found") // nolint:wrapcheck
	}

	return nil
}
