package validate

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Email  string `json:"email" validate:"required,email"`
	Period string `json:"period" validate:"required,period"`
}

func TestValidator_Valid(t *testing.T) {
	assert.NoError(t, New().Validate(&sample{Email: "bhw@example.ph", Period: "2024-06"}))
}

func TestValidator_FieldErrors(t *testing.T) {
	err := New().Validate(&sample{Email: "nope", Period: "2024-13"})
	require.Error(t, err)

	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Code)
	assert.Equal(t, map[string]string{"Email": "email", "Period": "period"}, he.Message)
}

func TestPeriodPattern(t *testing.T) {
	for _, p := range []string{"2024-01", "2024-12", "1999-09"} {
		assert.True(t, periodPattern.MatchString(p), p)
	}
	for _, p := range []string{"2024-1", "2024-00", "24-06", "2024/06", ""} {
		assert.False(t, periodPattern.MatchString(p), p)
	}
}
