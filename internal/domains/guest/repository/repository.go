package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"fmt"

	"resort/infras/otel"
	"resort/infras/postgres"
	"resort/internal/domains/guest/model"
	"resort/shared/constant"
	gDto "resort/shared/dto"
	gRepo "resort/shared/repository"
)

type Guest interface {
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Guest, error)
	// InsertIfAbsent inserts the guest unless one with the same email exists already.
	InsertIfAbsent(ctx context.Context, guest model.Guest) error
	// GetByEmail returns the zero Guest when nobody holds the email.
	GetByEmail(ctx context.Context, email string) (model.Guest, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Guest]
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Guest {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Guest](model.EntityName, model.TableName, model.FieldID, db, otel),
		otel:       otel,
	}
}

func (r *repositoryImpl) InsertIfAbsent(ctx context.Context, guest model.Guest) error {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".guest.InsertIfAbsent")
	defer scope.End()

	if err := r.Upsert(ctx, guest, []string{model.FieldEmail}, nil); err != nil {
		scope.TraceError(err)

		return fmt.Errorf("failed to insert guest: %w", err)
	}

	return nil
}

func (r *repositoryImpl) GetByEmail(ctx context.Context, email string) (model.Guest, error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".guest.GetByEmail")
	defer scope.End()

	guest, err := r.Get(ctx, gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldEmail,
				Value:    model.NormalizeEmail(email),
				Operator: gDto.FilterOperatorEq,
				Table:    model.TableName,
			},
		},
	})
	if err != nil {
		scope.TraceError(err)

		return guest, fmt.Errorf("failed to get guest by email: %w", err)
	}

	return guest, nil
}
