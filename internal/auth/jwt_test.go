package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Use(JWTMiddleware(testSecret, func(c echo.Context) bool {
		return c.Request().URL.Path == "/ping"
	}))
	e.GET("/ping", func(c echo.Context) error { return c.String(http.StatusOK, "pong") })
	e.POST("/upload", func(c echo.Context) error {
		userID, err := UserIDFromContext(c)
		if err != nil {
			return err
		}
		return c.String(http.StatusOK, userID)
	}, RequireCapability(CapabilityEditOthersPosts))
	return e
}

func doRequest(e *echo.Echo, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func mustToken(t *testing.T, userID, role string, caps ...string) string {
	t.Helper()
	tok, _, err := GenerateToken(userID, role, caps, testSecret, time.Hour)
	require.NoError(t, err)
	return tok
}

func TestJWTMiddleware(t *testing.T) {
	e := newTestEcho()

	t.Run("skipped path needs no token", func(t *testing.T) {
		rec := doRequest(e, http.MethodGet, "/ping", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		rec := doRequest(e, http.MethodPost, "/upload", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		tok, _, err := GenerateToken("u1", "", []string{CapabilityEditOthersPosts}, "other", time.Hour)
		require.NoError(t, err)
		rec := doRequest(e, http.MethodPost, "/upload", tok)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		claims := Claims{
			UserID: "u1",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			},
		}
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		rec := doRequest(e, http.MethodPost, "/upload", tok)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing capability", func(t *testing.T) {
		rec := doRequest(e, http.MethodPost, "/upload", mustToken(t, "u1", "member", "read"))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("capability granted", func(t *testing.T) {
		rec := doRequest(e, http.MethodPost, "/upload", mustToken(t, "editor-1", "", CapabilityEditOthersPosts))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "editor-1", rec.Body.String())
	})

	t.Run("admin implies capability", func(t *testing.T) {
		rec := doRequest(e, http.MethodPost, "/upload", mustToken(t, "root", RoleAdmin))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestGenerateTokenValidation(t *testing.T) {
	_, _, err := GenerateToken("", "", nil, testSecret, time.Hour)
	assert.Error(t, err)
	_, _, err = GenerateToken("u1", "", nil, "", time.Hour)
	assert.Error(t, err)
	_, _, err = GenerateToken("u1", "", nil, testSecret, 0)
	assert.Error(t, err)
}

func TestGenerateTokenClaims(t *testing.T) {
	tok, expiresAt, err := GenerateToken("u1", "editor", []string{CapabilityEditOthersPosts}, testSecret, 10*time.Minute)
	require.NoError(t, err)

	parsed, err := jwt.ParseWithClaims(tok, new(Claims), func(*jwt.Token) (any, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	claims, ok := parsed.Claims.(*Claims)
	require.True(t, ok)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "u1", claims.Subject)
	assert.True(t, claims.Can(CapabilityEditOthersPosts))
	assert.False(t, claims.Can("manage_options"))
	assert.WithinDuration(t, expiresAt, claims.ExpiresAt.Time, time.Second)
}
