package middleware

import (
	"fmt"
	"net/http"
	"runtime"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/xChronoa/CHO1HealthcareAnalytics-sub002/internal/platform/auth"
)

// Recovery turns a handler panic into a 500 with the usual {"message": ...}
// body and logs the caller and a stack trace. Nothing is written when the
// handler had already started the response.
func Recovery(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				stack := make([]byte, 4096)
				stack = stack[:runtime.Stack(stack, false)]

				ctx := c.Request().Context()
				rid, _ := c.Get("request_id").(string)
				evt := logger.Error().
					Str("request_id", rid).
					Str("user_id", auth.UserIDFromContext(ctx)).
					Str("method", c.Request().Method).
					Str("path", c.Request().URL.Path).
					Str("panic", fmt.Sprint(r)).
					Bytes("stack", stack)
				if brgy := auth.BarangayFromContext(ctx); brgy != uuid.Nil {
					evt = evt.Str("barangay_id", brgy.String())
				}
				evt.Msg("panic recovered")

				if c.Response().Committed {
					err = nil
					return
				}
				err = echo.NewHTTPError(http.StatusInternalServerError, "internal error")
			}()
			return next(c)
		}
	}
}
