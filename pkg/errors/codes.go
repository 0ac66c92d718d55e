package errors

import "net/http"

// Error codes shared by every layer. Domain errors report one of these
// through Code() so transports can map them without knowing the domain.
const (
	ErrInternal        = "INTERNAL"
	ErrNotFound        = "NOT_FOUND"
	ErrInvalidArgument = "INVALID_ARGUMENT"
	ErrUnprocessable   = "UNPROCESSABLE"
	ErrConflict        = "CONFLICT"
	ErrBadGateway      = "BAD_GATEWAY"
	ErrMisconfigured   = "MISCONFIGURED"
)

var httpStatusByCode = map[string]int{
	ErrInternal:        http.StatusInternalServerError,
	ErrNotFound:        http.StatusNotFound,
	ErrInvalidArgument: http.StatusBadRequest,
	ErrUnprocessable:   http.StatusUnprocessableEntity,
	ErrConflict:        http.StatusConflict,
	ErrBadGateway:      http.StatusBadGateway,
	ErrMisconfigured:   http.StatusInternalServerError,
}

// ToHTTPStatus returns the HTTP status for an error code, 500 when unknown.
func ToHTTPStatus(code string) int {
	if status, ok := httpStatusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
