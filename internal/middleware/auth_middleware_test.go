package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kapehan/cafe-pos/internal/app/model"
	"github.com/kapehan/cafe-pos/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-jwt-secret-for-middleware"

type fakeRevocations map[string]bool

func (f fakeRevocations) IsRevoked(_ context.Context, token string) (bool, error) {
	return f[token], nil
}

func setupMiddlewareTest(revoked RevocationChecker) (*gin.Engine, *AuthMiddleware) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	return router, NewAuthMiddleware(testJWTSecret, revoked)
}

func generateTestTokens(t *testing.T, userID uint, role model.UserRole) *util.TokenPair {
	tokens, err := util.GenerateTokenPair(userID, "staff@example.com", string(role), testJWTSecret, 15*time.Minute, 24*time.Hour)
	require.NoError(t, err)
	return tokens
}

func serve(router *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware_Authenticate_Success(t *testing.T) {
	router, auth := setupMiddlewareTest(nil)
	tokens := generateTestTokens(t, 7, model.RoleCashier)

	router.GET("/test", auth.Authenticate(), func(c *gin.Context) {
		userID, _ := GetUserID(c)
		role, _ := GetUserRole(c)
		claims, ok := GetClaims(c)
		require.True(t, ok)
		token, _ := GetToken(c)

		assert.Equal(t, uint(7), userID)
		assert.Equal(t, model.RoleCashier, role)
		assert.Equal(t, util.TokenTypeAccess, claims.TokenType)
		assert.Equal(t, tokens.AccessToken, token)
		c.Status(http.StatusOK)
	})

	w := serve(router, "/test", tokens.AccessToken)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware_Authenticate_Rejections(t *testing.T) {
	tokens := generateTestTokens(t, 1, model.RoleAdmin)
	other, err := util.GenerateTokenPair(1, "x@example.com", "admin", "another-secret", time.Minute, time.Hour)
	require.NoError(t, err)
	expired, err := util.GenerateTokenPair(1, "x@example.com", "admin", testJWTSecret, -time.Minute, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		wantCode string
	}{
		{name: "No token", header: "", wantCode: "AUTH_UNAUTHORIZED"},
		{name: "Bad format", header: "Token abc", wantCode: "AUTH_TOKEN_INVALID"},
		{name: "Wrong secret", header: "Bearer " + other.AccessToken, wantCode: "AUTH_TOKEN_INVALID"},
		{name: "Expired", header: "Bearer " + expired.AccessToken, wantCode: "AUTH_TOKEN_EXPIRED"},
		{name: "Refresh token", header: "Bearer " + tokens.RefreshToken, wantCode: "AUTH_TOKEN_INVALID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, auth := setupMiddlewareTest(nil)
			router.GET("/test", auth.Authenticate(), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantCode)
		})
	}
}

func TestAuthMiddleware_Authenticate_Revoked(t *testing.T) {
	tokens := generateTestTokens(t, 3, model.RoleCashier)
	router, auth := setupMiddlewareTest(fakeRevocations{tokens.AccessToken: true})
	router.GET("/test", auth.Authenticate(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := serve(router, "/test", tokens.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "AUTH_TOKEN_REVOKED")
}

func TestAuthMiddleware_Authenticate_QueryToken(t *testing.T) {
	router, auth := setupMiddlewareTest(nil)
	tokens := generateTestTokens(t, 3, model.RoleCashier)
	router.GET("/ws", auth.Authenticate(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := serve(router, "/ws?token="+tokens.AccessToken, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware_RequireRole(t *testing.T) {
	router, auth := setupMiddlewareTest(nil)
	router.GET("/admin", auth.Authenticate(), auth.RequireRole(model.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	cashier := generateTestTokens(t, 2, model.RoleCashier)
	admin := generateTestTokens(t, 1, model.RoleAdmin)

	w := serve(router, "/admin", cashier.AccessToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "AUTHZ_FORBIDDEN")

	w = serve(router, "/admin", admin.AccessToken)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware_RequireRole_NoAuth(t *testing.T) {
	router, auth := setupMiddlewareTest(nil)
	router.GET("/admin", auth.RequireRole(model.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := serve(router, "/admin", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "AUTHZ_ROLE_NOT_FOUND")
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID(), LoggingMiddleware())
	router.GET("/test", func(c *gin.Context) {
		assert.NotNil(t, GetLoggerFromContext(c))
		c.String(http.StatusOK, c.GetString("request_id"))
	})

	w := serve(router, "/test", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	assert.Equal(t, w.Header().Get(RequestIDHeader), w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Body.String())
}
