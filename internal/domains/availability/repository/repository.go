package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"fmt"
	"time"

	"resort/infras/otel"
	"resort/infras/postgres"
	"resort/internal/domains/availability/model"
	"resort/shared/constant"
	gDto "resort/shared/dto"
	gRepo "resort/shared/repository"
)

const (
	argDateFrom = "date_from"
	argDateTo   = "date_to"
)

type Availability interface {
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Override, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Override, error)
	Delete(ctx context.Context, filter gDto.FilterGroup) error
	// Save writes the override, replacing any existing one for the same room and date.
	Save(ctx context.Context, override model.Override) error
	// ListInWindow returns overrides of the given rooms dated within [from, to], ordered by date.
	ListInWindow(ctx context.Context, roomIDs []string, from, to time.Time) ([]model.Override, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Override]
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Availability {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Override](model.EntityName, model.TableName, model.FieldID, db, otel),
		otel:       otel,
	}
}

func (r *repositoryImpl) Save(ctx context.Context, override model.Override) error {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".availability.Save")
	defer scope.End()

	err := r.Upsert(ctx, override,
		[]string{model.FieldRoomID, model.FieldDate},
		[]string{model.FieldIsAvailable, model.FieldPrice, model.FieldNote, constant.FieldModifiedAt, constant.FieldModifiedBy},
	)
	if err != nil {
		scope.TraceError(err)

		return fmt.Errorf("failed to save override: %w", err)
	}

	return nil
}

func (r *repositoryImpl) ListInWindow(ctx context.Context, roomIDs []string, from, to time.Time) ([]model.Override, error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".availability.ListInWindow")
	defer scope.End()

	if len(roomIDs) == 0 {
		return nil, nil
	}

	overrides, err := r.GetAll(ctx, WindowParams(), WindowFilter(roomIDs, from, to))
	if err != nil {
		scope.TraceError(err)

		return nil, fmt.Errorf("failed to list overrides: %w", err)
	}

	return overrides, nil
}

// WindowParams orders overrides by date, then room, without paging.
func WindowParams() gDto.QueryParams {
	return gDto.QueryParams{
		SortBy:  fmt.Sprintf("%s.%s ASC, %s.%s", model.TableName, model.FieldDate, model.TableName, model.FieldRoomID),
		SortDir: gDto.SortDirAsc,
	}
}

// WindowFilter selects overrides of roomIDs dated within the inclusive window. A zero bound is open.
func WindowFilter(roomIDs []string, from, to time.Time) gDto.FilterGroup {
	filters := []any{
		gDto.Filter{
			Field:    model.FieldRoomID,
			Value:    roomIDs,
			Operator: gDto.FilterOperatorIn,
			Table:    model.TableName,
		},
	}

	if !from.IsZero() {
		filters = append(filters, gDto.Filter{
			ArgName:  argDateFrom,
			Field:    model.FieldDate,
			Value:    from,
			Operator: gDto.FilterOperatorGreaterEq,
			Table:    model.TableName,
		})
	}

	if !to.IsZero() {
		filters = append(filters, gDto.Filter{
			ArgName:  argDateTo,
			Field:    model.FieldDate,
			Value:    to,
			Operator: gDto.FilterOperatorLessEq,
			Table:    model.TableName,
		})
	}

	return gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters:  filters,
	}
}

// ByRoomAndDate selects the single override of a room on a date.
func ByRoomAndDate(roomID string, date time.Time) gDto.FilterGroup {
	return gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{
				Field:    model.FieldRoomID,
				Value:    roomID,
				Operator: gDto.FilterOperatorEq,
				Table:    model.TableName,
			},
			gDto.Filter{
				Field:    model.FieldDate,
				Value:    date,
				Operator: gDto.FilterOperatorEq,
				Table:    model.TableName,
			},
		},
	}
}
