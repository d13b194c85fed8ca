// Package validate plugs go-playground/validator into echo so handlers can
// call c.Validate on bound request bodies.
package validate

import (
	"errors"
	"net/http"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var periodPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// Validator implements echo.Validator.
type Validator struct {
	v *validator.Validate
}

// New returns a validator with the "period" tag registered for YYYY-MM
// reporting periods.
func New() *Validator {
	v := validator.New()
	_ = v.RegisterValidation("period", func(fl validator.FieldLevel) bool {
		return periodPattern.MatchString(fl.Field().String())
	})
	return &Validator{v: v}
}

// Validate returns a 400 echo.HTTPError whose message maps each failing
// field to the rule it broke.
func (cv *Validator) Validate(i interface{}) error {
	err := cv.v.Struct(i)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusBadRequest, Fields(ve))
}

// Fields maps field names to the failing tag.
func Fields(ve validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(ve))
	for _, fe := range ve {
		out[fe.Field()] = fe.Tag()
	}
	return out
}
