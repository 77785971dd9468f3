package validator

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"resort/shared/constant"
	"resort/shared/failure"

	val "github.com/go-playground/validator/v10"
)

const bytesPerMB = 1 << 20

var validate = newValidate()

func newValidate() *val.Validate {
	v := val.New(val.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)

	custom := map[string]val.Func{
		"dateonly":    isDateOnly,
		"mimetypes":   hasMimeType,
		"maxfilesize": withinFileSize,
	}

	for tag, fn := range custom {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("register %s validation: %v", tag, err))
		}
	}

	return v
}

// isDateOnly accepts a real calendar date in YYYY-MM-DD form.
func isDateOnly(field val.FieldLevel) bool {
	value, ok := field.Field().Interface().(string)
	if !ok {
		return false
	}

	_, err := time.Parse(constant.DateOnlyFormat, value)

	return err == nil
}

func fileHeader(field val.FieldLevel) (multipart.FileHeader, bool) {
	header, ok := field.Field().Interface().(multipart.FileHeader)

	return header, ok
}

// hasMimeType checks an uploaded file's declared content type against a space separated list.
func hasMimeType(field val.FieldLevel) bool {
	header, ok := fileHeader(field)
	if !ok {
		return false
	}

	return slices.Contains(strings.Fields(field.Param()), header.Header.Get(constant.RequestHeaderContentType))
}

// withinFileSize checks an uploaded file against a limit given in megabytes.
func withinFileSize(field val.FieldLevel) bool {
	header, ok := fileHeader(field)
	if !ok {
		return false
	}

	limitMB, err := strconv.ParseFloat(field.Param(), 64)
	if err != nil {
		return false
	}

	return float64(header.Size) <= limitMB*bytesPerMB
}

// jsonFieldName reports fields by their json name so messages match the request payload.
func jsonFieldName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")

	switch name {
	case "-":
		return constant.Empty
	case "":
		return field.Name
	default:
		return name
	}
}

// Validate decodes a JSON body into data and validates it. Every failure is a 400.
func Validate[T any](r io.Reader, data *T) error {
	if err := json.NewDecoder(r).Decode(data); err != nil {
		return failure.BadRequest(fmt.Errorf("failed to decode request body: %w", err)) //nolint:wrapcheck
	}

	return ValidateStruct(data)
}

func ValidateStruct[T any](data *T) error {
	if err := validate.Struct(data); err != nil {
		return failure.BadRequestFromString(message(err)) //nolint:wrapcheck
	}

	return nil
}
