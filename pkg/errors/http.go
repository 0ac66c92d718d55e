package errors

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ToHTTPError converts err into an echo error carrying the mapped status.
// Errors without a code become a bare 500 so their text is not exposed.
func ToHTTPError(err error) *echo.HTTPError {
	if err == nil {
		return nil
	}

	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		return echoErr
	}

	var coded Coded
	if errors.As(err, &coded) {
		return echo.NewHTTPError(ToHTTPStatus(coded.Code()), err.Error())
	}

	return echo.NewHTTPError(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

