package account

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xChronoa/CHO1HealthcareAnalytics-sub002/internal/platform/validate"
)

func newTestHandler() (*Handler, *echo.Echo) {
	e := echo.New()
	e.Validator = validate.New()
	return NewHandler(NewService(&mockRepo{})), e
}

func jsonRequest(method, body string) *http.Request {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func TestHandler_Create(t *testing.T) {
	h, e := newTestHandler()
	body := `{"email":"bhw@example.ph","full_name":"Ana Cruz","role":"encoder","barangay_id":"` + uuid.New().String() + `"}`
	rec := httptest.NewRecorder()

	require.NoError(t, h.Create(e.NewContext(jsonRequest(http.MethodPost, body), rec)))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"active"`)
}

func TestHandler_Create_BadRole(t *testing.T) {
	h, e := newTestHandler()
	body := `{"email":"bhw@example.ph","full_name":"Ana Cruz","role":"mayor"}`

	err := h.Create(e.NewContext(jsonRequest(http.MethodPost, body), httptest.NewRecorder()))
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Code)
}

func TestHandler_SetStatus(t *testing.T) {
	h, e := newTestHandler()
	brgy := uuid.New()
	u := &User{Email: "a@x.ph", FullName: "A", Role: "encoder", BarangayID: &brgy}
	require.NoError(t, h.svc.Create(httptest.NewRequest(http.MethodGet, "/", nil).Context(), u))

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPatch, `{"status":"inactive"}`), rec)
	c.SetParamNames("id")
	c.SetParamValues(u.ID.String())

	require.NoError(t, h.SetStatus(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, StatusInactive, u.Status)
}

func TestHandler_SetStatus_NotFound(t *testing.T) {
	h, e := newTestHandler()
	c := e.NewContext(jsonRequest(http.MethodPatch, `{"status":"inactive"}`), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	err := h.SetStatus(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, he.Code)
}

func TestHandler_List_BadBarangay(t *testing.T) {
	h, e := newTestHandler()
	err := h.List(e.NewContext(httptest.NewRequest(http.MethodGet, "/?barangay_id=nope", nil), httptest.NewRecorder()))
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Code)
}
