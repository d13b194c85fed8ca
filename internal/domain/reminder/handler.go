package reminder

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/xChronoa/CHO1HealthcareAnalytics-sub002/internal/platform/auth"
	"github.com/xChronoa/CHO1HealthcareAnalytics-sub002/internal/platform/runlock"
)

type Handler struct {
	rec *Reconciler
}

func NewHandler(rec *Reconciler) *Handler {
	return &Handler{rec: rec}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	admin := api.Group("/admin/reminders", auth.RequireRole(auth.RoleAdmin))
	admin.POST("/run", h.Run)
}

type runResponse struct {
	*RunReport
	Dispatched int    `json:"dispatched"`
	Failed     int    `json:"failed"`
	Summary    string `json:"summary,omitempty"`
}

// Run triggers a reconciliation. ?mode= takes check, send or default and
// ?date=YYYY-MM-DD replaces today's date.
func (h *Handler) Run(c echo.Context) error {
	mode, err := ParseMode(c.QueryParam("mode"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	var rep *RunReport
	if raw := c.QueryParam("date"); raw != "" {
		day, perr := time.Parse("2006-01-02", raw)
		if perr != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "date must be YYYY-MM-DD")
		}
		rep, err = h.rec.RunOn(ctx, mode, day)
	} else {
		rep, err = h.rec.Run(ctx, mode)
	}
	if errors.Is(err, runlock.ErrAlreadyRunning) {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := runResponse{RunReport: rep, Dispatched: rep.Dispatched(), Failed: rep.Failed()}
	if mode == ModeCheck {
		var buf bytes.Buffer
		if err := rep.Print(&buf); err == nil {
			resp.Summary = buf.String()
		}
	}
	return c.JSON(http.StatusOK, resp)
}
