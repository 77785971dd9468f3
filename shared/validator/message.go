package validator

import (
	"errors"
	"strings"

	val "github.com/go-playground/validator/v10"
)

const tagRequired = "required"

var (
	messages = map[string]string{
		"required":    "{field} is required",
		"gte":         "{field} must be greater than or equal to {param}",
		"gt":          "{field} must be greater than {param}",
		"lte":         "{field} must be less than or equal to {param}",
		"oneof":       "{field} must be one of {param}",
		"max":         "{field} must be less than or equal to {param}",
		"min":         "{field} must be greater than or equal to {param}",
		"email":       "{field} must be a valid email address",
		"dateonly":    "{field} must be a date formatted as YYYY-MM-DD",
		"uuid":        "{field} must be a valid UUID",
		"gtfield":     "{field} must be after {param}",
		"nefield":     "{field} must differ from {param}",
		"mimetypes":   "{field} must be one of {param}",
		"maxfilesize": "{field} must not exceed {param} MB",
	}
)

// message renders validation errors. Missing required fields are reported together in a
// single message; otherwise the first translatable error wins.
func message(err error) string {
	var valErrors val.ValidationErrors

	if !errors.As(err, &valErrors) {
		return err.Error()
	}

	missing := []string{}

	for _, valErr := range valErrors {
		if valErr.Tag() == tagRequired {
			missing = append(missing, valErr.Field())
		}
	}

	if len(missing) > 0 {
		return "missing required fields: " + strings.Join(missing, ", ")
	}

	for _, valErr := range valErrors {
		errStr := messages[valErr.Tag()]
		if errStr != "" {
			errStr = strings.ReplaceAll(errStr, "{field}", valErr.Field())
			errStr = strings.ReplaceAll(errStr, "{param}", valErr.Param())

			return errStr
		}
	}

	return valErrors.Error()
}
