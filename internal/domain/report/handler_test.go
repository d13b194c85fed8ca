package report

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xChronoa/CHO1HealthcareAnalytics-sub002/internal/platform/auth"
	"github.com/xChronoa/CHO1HealthcareAnalytics-sub002/internal/platform/validate"
)

func newTestHandler() (*Handler, *mockRepo, *echo.Echo) {
	svc, repo, _ := newTestService()
	e := echo.New()
	e.Validator = validate.New()
	return NewHandler(svc), repo, e
}

func asEncoder(req *http.Request, brgy uuid.UUID) *http.Request {
	return req.WithContext(auth.WithIdentity(req.Context(), uuid.New().String(), []string{auth.RoleEncoder}, brgy.String()))
}

func asAdmin(req *http.Request) *http.Request {
	return req.WithContext(auth.WithIdentity(req.Context(), uuid.New().String(), []string{auth.RoleAdmin}, ""))
}

func jsonRequest(method, body string) *http.Request {
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func httpCode(t *testing.T, err error) int {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected *echo.HTTPError, got %v", err)
	return he.Code
}

func TestHandler_CreateDraft_PinsEncoderBarangay(t *testing.T) {
	h, _, e := newTestHandler()
	mine := uuid.New()
	body := `{"barangay_id":"` + uuid.New().String() + `","report_type":"M1","report_period":"2024-05","payload":{"fp_new_acceptors":4}}`
	rec := httptest.NewRecorder()

	require.NoError(t, h.CreateDraft(e.NewContext(asEncoder(jsonRequest(http.MethodPost, body), mine), rec)))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"barangay_id":"`+mine.String()+`"`)
	assert.Contains(t, rec.Body.String(), `"status":"draft"`)
}

func TestHandler_CreateDraft_EncoderWithoutBarangay(t *testing.T) {
	h, _, e := newTestHandler()
	req := jsonRequest(http.MethodPost, `{"report_type":"M1","report_period":"2024-05"}`)
	req = req.WithContext(auth.WithIdentity(req.Context(), "u1", []string{auth.RoleEncoder}, ""))

	err := h.CreateDraft(e.NewContext(req, httptest.NewRecorder()))
	assert.Equal(t, http.StatusForbidden, httpCode(t, err))
}

func TestHandler_CreateDraft_InvalidPeriod(t *testing.T) {
	h, _, e := newTestHandler()
	req := asEncoder(jsonRequest(http.MethodPost, `{"report_type":"M1","report_period":"2024-13"}`), uuid.New())

	err := h.CreateDraft(e.NewContext(req, httptest.NewRecorder()))
	assert.Equal(t, http.StatusBadRequest, httpCode(t, err))
}

func TestHandler_CreateDraft_Conflict(t *testing.T) {
	h, _, e := newTestHandler()
	brgy := uuid.New()
	body := `{"report_type":"M2","report_period":"2024-05"}`

	require.NoError(t, h.CreateDraft(e.NewContext(asEncoder(jsonRequest(http.MethodPost, body), brgy), httptest.NewRecorder())))
	err := h.CreateDraft(e.NewContext(asEncoder(jsonRequest(http.MethodPost, body), brgy), httptest.NewRecorder()))
	assert.Equal(t, http.StatusConflict, httpCode(t, err))
}

func TestHandler_SubmitApprove(t *testing.T) {
	h, repo, e := newTestHandler()
	brgy := uuid.New()
	sub := draft(brgy, "2024-05")
	require.NoError(t, h.svc.SaveDraft(context.Background(), sub))

	c := e.NewContext(asEncoder(httptest.NewRequest(http.MethodPost, "/", nil), brgy), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(sub.ID.String())
	require.NoError(t, h.Submit(c))

	rec := httptest.NewRecorder()
	c = e.NewContext(asAdmin(httptest.NewRequest(http.MethodPost, "/", nil)), rec)
	c.SetParamNames("id")
	c.SetParamValues(sub.ID.String())
	require.NoError(t, h.Approve(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	stored, err := repo.GetByID(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, stored.Status)
	assert.NotNil(t, stored.ReviewedBy)
}

func TestHandler_Approve_DraftConflict(t *testing.T) {
	h, _, e := newTestHandler()
	sub := draft(uuid.New(), "2024-05")
	require.NoError(t, h.svc.SaveDraft(context.Background(), sub))

	c := e.NewContext(asAdmin(httptest.NewRequest(http.MethodPost, "/", nil)), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(sub.ID.String())
	assert.Equal(t, http.StatusConflict, httpCode(t, h.Approve(c)))
}

func TestHandler_Reject_RequiresRemarks(t *testing.T) {
	h, _, e := newTestHandler()
	c := e.NewContext(asAdmin(jsonRequest(http.MethodPost, `{}`)), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())
	assert.Equal(t, http.StatusBadRequest, httpCode(t, h.Reject(c)))
}

func TestHandler_Get_OtherBarangay(t *testing.T) {
	h, _, e := newTestHandler()
	sub := draft(uuid.New(), "2024-05")
	require.NoError(t, h.svc.SaveDraft(context.Background(), sub))

	c := e.NewContext(asEncoder(httptest.NewRequest(http.MethodGet, "/", nil), uuid.New()), httptest.NewRecorder())
	c.SetParamNames("id")
	c.SetParamValues(sub.ID.String())
	assert.Equal(t, http.StatusNotFound, httpCode(t, h.Get(c)))
}

func TestHandler_Export(t *testing.T) {
	h, _, e := newTestHandler()
	require.NoError(t, h.svc.SaveDraft(context.Background(), draft(uuid.New(), "2024-05")))

	rec := httptest.NewRecorder()
	c := e.NewContext(asAdmin(httptest.NewRequest(http.MethodGet, "/?period=2024-05", nil)), rec)
	require.NoError(t, h.Export(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, XLSXContentType, rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "cho-reports-2024-05.xlsx")
	assert.NotZero(t, rec.Body.Len())
}

func TestHandler_Export_BadPeriod(t *testing.T) {
	h, _, e := newTestHandler()
	c := e.NewContext(asAdmin(httptest.NewRequest(http.MethodGet, "/?period=may", nil)), httptest.NewRecorder())
	assert.Equal(t, http.StatusBadRequest, httpCode(t, h.Export(c)))
}

func TestHTTPError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrNotFound, http.StatusNotFound},
		{ErrDuplicate, http.StatusConflict},
		{fmt.Errorf("%w: approved -> rejected", ErrInvalidTransition), http.StatusConflict},
		{fmt.Errorf("%w: barangay_id is required", ErrInvalid), http.StatusBadRequest},
		{errors.New("ERROR: new row violates check constraint (SQLSTATE 23514)"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			he, ok := httpError(tt.err).(*echo.HTTPError)
			require.True(t, ok)
			assert.Equal(t, tt.want, he.Code)
			if tt.want == http.StatusInternalServerError {
				assert.Equal(t, "internal error", he.Message)
				assert.ErrorIs(t, he.Internal, tt.err)
			}
		})
	}
}
