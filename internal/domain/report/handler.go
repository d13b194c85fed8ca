package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

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

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/reports", auth.RequireRole(auth.RoleEncoder))
	g.GET("", h.List)
	g.POST("", h.CreateDraft)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Edit)
	g.POST("/:id/submit", h.Submit)

	admin := api.Group("/reports", auth.RequireRole(auth.RoleAdmin))
	admin.GET("/export", h.Export)
	admin.POST("/:id/approve", h.Approve)
	admin.POST("/:id/reject", h.Reject)
}

// actorFrom resolves the caller. Encoders without a barangay claim are
// refused rather than treated as office staff.
func actorFrom(c echo.Context) (Actor, error) {
	ctx := c.Request().Context()
	var a Actor
	if uid, err := uuid.Parse(auth.UserIDFromContext(ctx)); err == nil {
		a.UserID = &uid
	}
	if auth.IsAdmin(ctx) {
		return a, nil
	}
	a.Barangay = auth.BarangayFromContext(ctx)
	if a.Barangay == uuid.Nil {
		return a, echo.NewHTTPError(http.StatusForbidden, "account is not assigned to a barangay")
	}
	return a, nil
}

func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrInvalid):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error").SetInternal(err)
	}
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

type draftRequest struct {
	BarangayID   uuid.UUID       `json:"barangay_id"`
	ReportType   string          `json:"report_type" validate:"required,oneof=M1 M2"`
	ReportPeriod string          `json:"report_period" validate:"required,period"`
	DueAt        *time.Time      `json:"due_at"`
	Payload      json.RawMessage `json:"payload"`
}

func (h *Handler) CreateDraft(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req draftRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	sub := &Submission{
		BarangayID:   req.BarangayID,
		ReportType:   req.ReportType,
		ReportPeriod: req.ReportPeriod,
		Payload:      req.Payload,
	}
	if actor.Barangay != uuid.Nil {
		sub.BarangayID = actor.Barangay
	} else if req.DueAt != nil {
		sub.DueAt = *req.DueAt
	}
	if err := h.svc.SaveDraft(c.Request().Context(), sub); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, sub)
}

type editRequest struct {
	DueAt   *time.Time      `json:"due_at"`
	Payload json.RawMessage `json:"payload"`
}

func (h *Handler) Edit(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req editRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sub, err := h.svc.Edit(c.Request().Context(), actor, id, req.Payload, req.DueAt)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, sub)
}

func (h *Handler) Submit(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	sub, err := h.svc.Submit(c.Request().Context(), actor, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, sub)
}

func (h *Handler) Get(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	sub, err := h.svc.Get(c.Request().Context(), actor, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, sub)
}

func (h *Handler) List(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	f := Filter{
		Status:     c.QueryParam("status"),
		Period:     c.QueryParam("period"),
		ReportType: c.QueryParam("report_type"),
	}
	if raw := c.QueryParam("barangay_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid barangay_id")
		}
		f.BarangayID = &id
	}
	items, total, err := h.svc.List(c.Request().Context(), actor, f, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) Approve(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	sub, err := h.svc.Approve(c.Request().Context(), actor.UserID, id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, sub)
}

type rejectRequest struct {
	Remarks string `json:"remarks" validate:"required"`
}

func (h *Handler) Reject(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}
	var req rejectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	sub, err := h.svc.Reject(c.Request().Context(), actor.UserID, id, req.Remarks)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, sub)
}

// Export streams the period's M1/M2 submissions as an xlsx workbook.
func (h *Handler) Export(c echo.Context) error {
	period := c.QueryParam("period")
	if _, err := ParsePeriod(period); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	subs, err := h.svc.ListForPeriod(c.Request().Context(), period)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	data, err := BuildWorkbook(period, subs)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="cho-reports-%s.xlsx"`, period))
	return c.Blob(http.StatusOK, XLSXContentType, data)
}
