package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSigningKey = []byte("test-secret-key-for-unit-tests-only")

func createTestToken(t *testing.T, claims Claims, key []byte) string {
	t.Helper()
	tokenStr, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	require.NoError(t, err)
	return tokenStr
}

func runJWT(t *testing.T, header string) (echo.Context, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	c := e.NewContext(req, httptest.NewRecorder())

	var seen echo.Context
	h := JWTMiddleware(JWTConfig{SigningKey: testSigningKey, Issuer: "cho"})(func(c echo.Context) error {
		seen = c
		return c.String(http.StatusOK, "ok")
	})
	return seen, h(c)
}

func assertStatus(t *testing.T, err error, code int) {
	t.Helper()
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected echo.HTTPError, got %T", err)
	assert.Equal(t, code, httpErr.Code)
}

func TestJWTMiddleware_MissingHeader(t *testing.T) {
	_, err := runJWT(t, "")
	assertStatus(t, err, http.StatusUnauthorized)
}

func TestJWTMiddleware_InvalidFormat(t *testing.T) {
	for _, header := range []string{"Token abc123", "Bearer", "Bearer ", "Basic dXNlcjpwYXNz"} {
		t.Run(header, func(t *testing.T) {
			_, err := runJWT(t, header)
			assertStatus(t, err, http.StatusUnauthorized)
		})
	}
}

func TestJWTMiddleware_ValidToken(t *testing.T) {
	brgy := uuid.New()
	token := createTestToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "encoder-1",
			Issuer:    "cho",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Roles:      []string{RoleEncoder},
		BarangayID: brgy.String(),
	}, testSigningKey)

	c, err := runJWT(t, "Bearer "+token)
	require.NoError(t, err)
	ctx := c.Request().Context()
	assert.Equal(t, "encoder-1", UserIDFromContext(ctx))
	assert.Equal(t, []string{RoleEncoder}, RolesFromContext(ctx))
	assert.Equal(t, brgy, BarangayFromContext(ctx))
}

func TestJWTMiddleware_WrongKey(t *testing.T) {
	token := createTestToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "x", Issuer: "cho"},
	}, []byte("another-key"))
	_, err := runJWT(t, "Bearer "+token)
	assertStatus(t, err, http.StatusUnauthorized)
}

func TestJWTMiddleware_Expired(t *testing.T) {
	token := createTestToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "x",
			Issuer:    "cho",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}, testSigningKey)
	_, err := runJWT(t, "Bearer "+token)
	assertStatus(t, err, http.StatusUnauthorized)
}

func TestJWTMiddleware_WrongIssuer(t *testing.T) {
	token := createTestToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "x", Issuer: "someone-else"},
	}, testSigningKey)
	_, err := runJWT(t, "Bearer "+token)
	assertStatus(t, err, http.StatusUnauthorized)
}

func TestDevAuthMiddleware_DefaultsToAdmin(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	var ctx context.Context
	err := DevAuthMiddleware()(func(c echo.Context) error {
		ctx = c.Request().Context()
		return nil
	})(c)
	require.NoError(t, err)
	assert.True(t, IsAdmin(ctx))
	assert.Equal(t, uuid.Nil, BarangayFromContext(ctx))
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name  string
		roles []string
		want  int
	}{
		{"encoder allowed", []string{RoleEncoder}, http.StatusOK},
		{"admin always allowed", []string{RoleAdmin}, http.StatusOK},
		{"no roles", nil, http.StatusForbidden},
		{"other role", []string{"patient"}, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(WithIdentity(req.Context(), "u", tt.roles, ""))
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			err := RequireRole(RoleEncoder)(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			})(c)
			if tt.want == http.StatusOK {
				require.NoError(t, err)
				assert.Equal(t, http.StatusOK, rec.Code)
			} else {
				assertStatus(t, err, tt.want)
			}
		})
	}
}

func TestBarangayFromContext_Malformed(t *testing.T) {
	ctx := WithIdentity(context.Background(), "u", []string{RoleEncoder}, "not-a-uuid")
	assert.Equal(t, uuid.Nil, BarangayFromContext(ctx))
}
