package appointment

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/xChronoa/CHO1HealthcareAnalytics-sub002/internal/platform/auth"
	"github.com/xChronoa/CHO1HealthcareAnalytics-sub002/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the patient routes on public and the staff routes
// on api.
func (h *Handler) RegisterRoutes(public, api *echo.Group) {
	public.POST("/appointments", h.Book)
	public.POST("/appointments/:id/confirm", h.Confirm)
	public.POST("/appointments/:id/otp", h.ResendOTP)

	staff := api.Group("/appointments", auth.RequireRole(auth.RoleAdmin))
	staff.GET("", h.List)
	staff.GET("/:id", h.Get)
	staff.POST("/:id/cancel", h.Cancel)
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidOTP), errors.Is(err, ErrOTPExpired):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrOTPDelivery):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

type bookResponse struct {
	*Appointment
	OTPSent bool `json:"otp_sent"`
}

func (h *Handler) Book(c echo.Context) error {
	var a Appointment
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&a); err != nil {
		return err
	}
	err := h.svc.Book(c.Request().Context(), &a)
	switch {
	case err == nil:
		return c.JSON(http.StatusCreated, bookResponse{Appointment: &a, OTPSent: true})
	case errors.Is(err, ErrOTPDelivery):
		return c.JSON(http.StatusCreated, bookResponse{Appointment: &a, OTPSent: false})
	default:
		return httpError(err)
	}
}

type confirmRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

func (h *Handler) Confirm(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req confirmRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	a, err := h.svc.Confirm(c.Request().Context(), id, req.Code)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) ResendOTP(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.svc.ResendOTP(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusAccepted)
}

func (h *Handler) Cancel(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	a, err := h.svc.Cancel(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), c.QueryParam("status"), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}
