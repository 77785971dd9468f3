package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks -mock_names=Guest=MockGuestService

import (
	"context"
	"fmt"

	"resort/infras/otel"
	"resort/internal/domains/guest/model"
	"resort/internal/domains/guest/repository"
	"resort/shared"
	"resort/shared/constant"
	"resort/shared/failure"
	gModel "resort/shared/model"
	gRepo "resort/shared/repository"
	"resort/shared/timezone"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type Guest interface {
	// ResolveOrCreate returns the guest registered under email, creating one on first sight.
	// An existing guest is returned as stored; later name or phone values are not merged.
	ResolveOrCreate(ctx context.Context, name, email, phone string) (model.Guest, error)
	Get(ctx context.Context, id string) (model.Guest, error)
}

type serviceImpl struct {
	repo repository.Guest
	otel otel.Otel
}

func New(repo repository.Guest, otel otel.Otel) Guest {
	return &serviceImpl{
		repo: repo,
		otel: otel,
	}
}

func (s *serviceImpl) ResolveOrCreate(ctx context.Context, name, email, phone string) (guest model.Guest, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".guest.ResolveOrCreate")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	email = model.NormalizeEmail(email)

	guest, err = s.repo.GetByEmail(ctx, email)
	if err != nil {
		log.Error().Err(err).Msg("failed to look up guest")

		return guest, fmt.Errorf("failed to look up guest: %w", err)
	}

	if guest.ID != constant.Empty {
		return guest, nil
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	if user == constant.Empty {
		user = constant.ContextGuest
	}

	err = s.repo.InsertIfAbsent(ctx, model.Guest{
		ID:       uuid.NewString(),
		Name:     name,
		Email:    email,
		Phone:    phone,
		Metadata: gModel.NewMetadata(user, timezone.Now()),
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to create guest")

		return guest, fmt.Errorf("failed to create guest: %w", err)
	}

	// a concurrent request may have won the insert; the stored row is authoritative
	guest, err = s.repo.GetByEmail(gRepo.OnPrimary(ctx), email)
	if err != nil {
		log.Error().Err(err).Msg("failed to read back guest")

		return guest, fmt.Errorf("failed to read back guest: %w", err)
	}

	if guest.ID == constant.Empty {
		return guest, fmt.Errorf("guest %s vanished after insert", email)
	}

	return guest, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (guest model.Guest, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".guest.Get")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	guest, err = s.repo.Get(ctx, shared.ByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get guest")

		return guest, fmt.Errorf("failed to get guest: %w", err)
	}

	if guest.ID == constant.Empty {
		return guest, failure.NotFound("guest not found") // nolint:wrapcheck
	}

	return guest, nil
}
