package dto

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"resort/shared/constant"
	"resort/shared/failure"
)

const (
	SortDirAsc  = "ASC"
	SortDirDesc = "DESC"
)

type QueryParams struct {
	Page    int    `json:"page"     validate:"omitempty"`
	Limit   int    `json:"limit"    validate:"omitempty"`
	SortBy  string `json:"sort_by"  validate:"omitempty"`
	SortDir string `json:"sort_dir" validate:"omitempty,oneof=ASC DESC"`
}

// FromRequest reads page, limit, sort_by and sort_dir from the query string.
// With withDefaults set, missing page and limit fall back to the list defaults.
// Limit is always capped at constant.MaxValueLimit.
func (q *QueryParams) FromRequest(r *http.Request, withDefaults bool) {
	query := r.URL.Query()

	q.Page = positiveInt(query.Get(constant.RequestParamPage), q.Page)
	q.Limit = min(positiveInt(query.Get(constant.RequestParamLimit), q.Limit), constant.MaxValueLimit)

	if sortBy := strings.TrimSpace(query.Get(constant.RequestParamSortBy)); sortBy != "" {
		q.SortBy = sortBy
	}

	if dir := strings.ToUpper(query.Get(constant.RequestParamSortDir)); dir == SortDirAsc || dir == SortDirDesc {
		q.SortDir = dir
	}

	if !withDefaults {
		return
	}

	if q.Page == 0 {
		q.Page = constant.DefaultValuePage
	}

	if q.Limit == 0 {
		q.Limit = constant.DefaultValueLimit
	}
}

// RestrictSort rejects a sort_by outside allowed. The column name ends up in ORDER BY verbatim,
// so every list endpoint must call this before querying.
func (q *QueryParams) RestrictSort(allowed ...string) error {
	if q.SortBy == "" {
		q.SortDir = ""

		return nil
	}

	if !slices.Contains(allowed, q.SortBy) {
		return failure.BadRequestFromString("unsupported sort_by field: " + q.SortBy) //nolint:wrapcheck
	}

	if q.SortDir == "" {
		q.SortDir = SortDirAsc
	}

	return nil
}

func positiveInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}

	return value
}
