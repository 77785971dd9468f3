package shared

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"resort/shared/constant"
	"resort/shared/dto"
	"resort/shared/timezone"

	"github.com/rs/zerolog/log"
)

const cacheKeySeparator = ":"

// ParseOptionalBool returns nil when value is empty or not a boolean literal.
func ParseOptionalBool(value string) *bool {
	if value = strings.TrimSpace(value); value == constant.Empty {
		return nil
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		log.Debug().Str("value", value).Msg("ignoring malformed boolean")

		return nil
	}

	return &parsed
}

func ConvertStringToInt(value string) (int, error) {
	intValue, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("failed to convert %q to int: %w", value, err)
	}

	return intValue, nil
}

func ConvertStringToFloat(value string) (float64, error) {
	floatValue, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to convert %q to float: %w", value, err)
	}

	return floatValue, nil
}

// RoundMoney rounds an amount to whole cents.
func RoundMoney(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// TotalPages is never below one so an empty listing still reports a single page.
func TotalPages(total, limit int) int {
	if total <= 0 || limit <= 0 {
		return 1
	}

	return (total + limit - 1) / limit
}

// ChangedFields maps the db column of every non-zero field in data to its value and
// stamps the modification audit columns.
func ChangedFields(data any, actor string) map[string]any {
	value := reflect.Indirect(reflect.ValueOf(data))
	fields := map[string]any{
		constant.FieldModifiedAt: timezone.Now(),
		constant.FieldModifiedBy: actor,
	}

	if value.Kind() != reflect.Struct {
		return fields
	}

	for i := range value.NumField() {
		column := value.Type().Field(i).Tag.Get("db")
		if column == constant.Empty || column == "-" || value.Field(i).IsZero() {
			continue
		}

		fields[column] = value.Field(i).Interface()
	}

	return fields
}

// ByID is the single equality filter used to address a row by its key.
func ByID(id, column, table string) dto.FilterGroup {
	return dto.FilterGroup{
		Filters: []any{
			dto.Filter{Table: table, Field: column, Operator: dto.FilterOperatorEq, Value: id},
		},
	}
}

// BuildCacheKey joins the prefix and parts with ":".
func BuildCacheKey(prefix string, parts ...string) string {
	return strings.Join(append([]string{prefix}, parts...), cacheKeySeparator)
}

// BuildCacheKeyWithQuery derives a stable key from the paging parameters and filter tree.
func BuildCacheKeyWithQuery(prefix string, params dto.QueryParams, filter dto.FilterGroup) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%+v|%+v", params, filter))

	return BuildCacheKey(prefix, hex.EncodeToString(sum[:]))
}
