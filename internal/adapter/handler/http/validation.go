package http

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError is one failed field in a 422 response.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// newValidator reports fields by their json names and knows the
// configured_form tag, which accepts only names the catalog holds.
func newValidator(formNames []string) (*validator.Validate, error) {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	configured := make(map[string]struct{}, len(formNames))
	for _, name := range formNames {
		configured[name] = struct{}{}
	}
	err := v.RegisterValidation("configured_form", func(fl validator.FieldLevel) bool {
		_, ok := configured[fl.Field().String()]
		return ok
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

func formatValidationErrors(err error) []FieldError {
	var details []FieldError
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			details = append(details, FieldError{
				Field:   e.Field(),
				Message: validationMessage(e),
			})
		}
	}
	return details
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "The " + e.Field() + " field is required."
	case "email":
		return "The " + e.Field() + " must be a valid email address."
	case "configured_form":
		return "The selected " + e.Field() + " is invalid."
	default:
		return "The " + e.Field() + " is invalid."
	}
}
