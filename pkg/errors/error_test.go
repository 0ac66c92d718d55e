package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

type notFound struct{}

func (notFound) Error() string { return "no such row" }
func (notFound) Code() string  { return ErrNotFound }

func TestWrap(t *testing.T) {
	t.Run("keeps the code of the wrapped error", func(t *testing.T) {
		err := Wrap(notFound{}, "failed to load customer")

		assert.Equal(t, ErrNotFound, CodeOf(err))
		assert.Equal(t, "failed to load customer: no such row", err.Error())
		assert.ErrorIs(t, err, notFound{})
	})

	t.Run("plain errors become internal", func(t *testing.T) {
		cause := errors.New("boom")
		err := Wrap(cause, "failed to start")

		assert.Equal(t, ErrInternal, CodeOf(err))
		assert.ErrorIs(t, err, cause)
	})

	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, "unused"))
	})
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, ErrInvalidArgument, CodeOf(NewAppError(ErrInvalidArgument, "bad input", nil)))
	assert.Equal(t, ErrInternal, CodeOf(errors.New("plain")))
}

func TestToHTTPStatus(t *testing.T) {
	tests := map[string]int{
		ErrNotFound:        http.StatusNotFound,
		ErrInvalidArgument: http.StatusBadRequest,
		ErrUnprocessable:   http.StatusUnprocessableEntity,
		ErrConflict:        http.StatusConflict,
		ErrBadGateway:      http.StatusBadGateway,
		ErrMisconfigured:   http.StatusInternalServerError,
		"SOMETHING_ELSE":   http.StatusInternalServerError,
	}
	for code, want := range tests {
		assert.Equal(t, want, ToHTTPStatus(code), code)
	}
}
