package failure

import (
	"errors"
	"net/http"
)

// Failure is an error the transport layer can map straight to an HTTP status.
// Message is shown to clients; the optional cause is kept for logs only.
type Failure struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	cause   error
}

var ForbiddenError = &Failure{Code: http.StatusForbidden, Message: "You don't have the required permissions"}

func (e *Failure) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}

	return e.Message
}

func (e *Failure) Unwrap() error {
	return e.cause
}

// Is matches another *Failure carrying the same code and message.
func (e *Failure) Is(target error) bool {
	var other *Failure
	if !errors.As(target, &other) {
		return false
	}

	return e.Code == other.Code && e.Message == other.Message
}

func newFailure(code int, msg string) *Failure {
	return &Failure{Code: code, Message: msg}
}

// BadRequest turns err into a validation failure carrying err's text. A nil err stays nil.
func BadRequest(err error) error {
	if err == nil {
		return nil
	}

	return newFailure(http.StatusBadRequest, err.Error())
}

func BadRequestFromString(msg string) error {
	return newFailure(http.StatusBadRequest, msg)
}

func Unauthorized(msg string) error {
	return newFailure(http.StatusUnauthorized, msg)
}

func Forbidden(msg string) error {
	return newFailure(http.StatusForbidden, msg)
}

func NotFound(entityName string) error {
	return newFailure(http.StatusNotFound, entityName)
}

// Conflict is an expected business rejection such as an overlapping stay.
func Conflict(message string) error {
	return newFailure(http.StatusConflict, message)
}

// Internal reports an upstream failure with a generic, client safe message.
func Internal(msg string) error {
	return newFailure(http.StatusInternalServerError, msg)
}

// Upstream is Internal with the underlying error attached for logging.
func Upstream(msg string, cause error) error {
	fail := newFailure(http.StatusInternalServerError, msg)
	fail.cause = cause

	return fail
}

// GetCode returns the status of the first Failure in err's chain, or 500.
func GetCode(err error) int {
	var fail *Failure
	if errors.As(err, &fail) {
		return fail.Code
	}

	return http.StatusInternalServerError
}

// PublicMessage returns the message safe to show to a client. Errors that are not
// a Failure never leak their text.
func PublicMessage(err error) string {
	var fail *Failure
	if errors.As(err, &fail) {
		return fail.Message
	}

	return http.StatusText(http.StatusInternalServerError)
}
