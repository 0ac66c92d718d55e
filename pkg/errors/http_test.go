package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestToHTTPError(t *testing.T) {
	t.Run("coded error gets mapped status", func(t *testing.T) {
		he := ToHTTPError(fmt.Errorf("handler: %w", NewAppError(ErrConflict, "already merged", nil)))

		assert.Equal(t, http.StatusConflict, he.Code)
		assert.Equal(t, "handler: already merged", he.Message)
	})

	t.Run("echo error passes through", func(t *testing.T) {
		original := echo.NewHTTPError(http.StatusMethodNotAllowed, "nope")

		assert.Same(t, original, ToHTTPError(original))
	})

	t.Run("plain error hides its text", func(t *testing.T) {
		he := ToHTTPError(errors.New("dial tcp 10.0.0.1:5432: refused"))

		assert.Equal(t, http.StatusInternalServerError, he.Code)
		assert.Equal(t, http.StatusText(http.StatusInternalServerError), he.Message)
	})

	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, ToHTTPError(nil))
	})
}
