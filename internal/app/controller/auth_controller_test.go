package controller

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/velora-shop/storefront-backend/internal/app/model"
	"github.com/velora-shop/storefront-backend/internal/app/repository"
	"github.com/velora-shop/storefront-backend/internal/app/service"
	"github.com/velora-shop/storefront-backend/internal/middleware"
	"github.com/velora-shop/storefront-backend/pkg/util"
	"gorm.io/gorm"
)

const (
	testAccessSecret  = "test-access-secret"
	testRefreshSecret = "test-refresh-secret"
)

func setupAuthControllerTest(t *testing.T) (*gin.Engine, *gorm.DB) {
	testDB := setupTestDB(t)
	authService := service.NewAuthService(
		repository.NewUserRepository(testDB),
		testAccessSecret, testRefreshSecret,
		15*time.Minute, 7*24*time.Hour,
	)
	ctrl := NewAuthController(authService, CookieSettings{
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: 7 * 24 * time.Hour,
	})
	authMiddleware := middleware.NewAuthMiddleware(testAccessSecret)

	router := gin.New()
	router.POST("/auth/login", ctrl.Login)
	router.POST("/auth/refresh", ctrl.Refresh)
	router.GET("/auth/me", authMiddleware.Authenticate(), ctrl.Me)
	router.POST("/auth/logout", authMiddleware.Authenticate(), ctrl.Logout)
	return router, testDB
}

func seedUser(t *testing.T, testDB *gorm.DB, email, password string, role model.UserRole, blocked bool) *model.User {
	t.Helper()
	hash, err := util.HashPassword(password)
	require.NoError(t, err)
	user := &model.User{Email: email, PasswordHash: hash, Name: "Store Admin", Role: role, IsBlocked: blocked}
	require.NoError(t, testDB.Create(user).Error)
	return user
}

func cookieNamed(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func withCookies(req *http.Request, cookies ...*http.Cookie) *http.Request {
	for _, c := range cookies {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
	return req
}

func login(t *testing.T, router *gin.Engine) (*http.Cookie, *http.Cookie) {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/auth/login", map[string]string{
		"email":    "admin@velora.test",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	access := cookieNamed(w, middleware.AccessTokenCookie)
	refresh := cookieNamed(w, RefreshTokenCookie)
	require.NotNil(t, access)
	require.NotNil(t, refresh)
	return access, refresh
}

func TestAuthController_Login(t *testing.T) {
	router, testDB := setupAuthControllerTest(t)
	seedUser(t, testDB, "admin@velora.test", "password123", model.RoleAdmin, false)

	w := doJSON(t, router, http.MethodPost, "/auth/login", map[string]string{
		"email":    "admin@velora.test",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	access := cookieNamed(w, middleware.AccessTokenCookie)
	require.NotNil(t, access)
	assert.True(t, access.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, access.SameSite)
	assert.Equal(t, 900, access.MaxAge)
	assert.Equal(t, "/", access.Path)
	assert.False(t, access.Secure)

	refresh := cookieNamed(w, RefreshTokenCookie)
	require.NotNil(t, refresh)
	assert.Equal(t, 7*24*3600, refresh.MaxAge)

	var body struct {
		Message string `json:"message"`
		User    struct {
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"user"`
	}
	decode(t, w, &body)
	assert.Equal(t, "Login successful", body.Message)
	assert.Equal(t, "admin@velora.test", body.User.Email)
	assert.Equal(t, "admin", body.User.Role)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestAuthController_LoginFailures(t *testing.T) {
	router, testDB := setupAuthControllerTest(t)
	seedUser(t, testDB, "admin@velora.test", "password123", model.RoleAdmin, false)
	seedUser(t, testDB, "blocked@velora.test", "password123", model.RoleModerator, true)

	tests := []struct {
		name     string
		body     interface{}
		wantCode int
		wantErr  string
	}{
		{name: "Wrong password", body: map[string]string{"email": "admin@velora.test", "password": "wrong-pass"}, wantCode: http.StatusUnauthorized, wantErr: "AUTH_INVALID_CREDENTIALS"},
		{name: "Unknown email", body: map[string]string{"email": "ghost@velora.test", "password": "password123"}, wantCode: http.StatusUnauthorized, wantErr: "AUTH_INVALID_CREDENTIALS"},
		{name: "Blocked account", body: map[string]string{"email": "blocked@velora.test", "password": "password123"}, wantCode: http.StatusForbidden, wantErr: "AUTH_ACCOUNT_BLOCKED"},
		{name: "Invalid email", body: map[string]string{"email": "not-an-email", "password": "password123"}, wantCode: http.StatusBadRequest, wantErr: "VALIDATION_INVALID_INPUT"},
		{name: "Short password", body: map[string]string{"email": "admin@velora.test", "password": "123"}, wantCode: http.StatusBadRequest, wantErr: "VALIDATION_INVALID_INPUT"},
		{name: "Malformed JSON", body: "{", wantCode: http.StatusBadRequest, wantErr: "VALIDATION_INVALID_INPUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/auth/login", tt.body)
			assert.Equal(t, tt.wantCode, w.Code)

			var body errorBody
			decode(t, w, &body)
			assert.Equal(t, tt.wantErr, body.Error)
			assert.Nil(t, cookieNamed(w, middleware.AccessTokenCookie))
		})
	}
}

func TestAuthController_Refresh(t *testing.T) {
	router, testDB := setupAuthControllerTest(t)
	seedUser(t, testDB, "admin@velora.test", "password123", model.RoleAdmin, false)
	_, refresh := login(t, router)

	req := withCookies(httptest.NewRequest(http.MethodPost, "/auth/refresh", nil), refresh)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	access := cookieNamed(w, middleware.AccessTokenCookie)
	require.NotNil(t, access)
	assert.NotEmpty(t, access.Value)
	assert.Equal(t, 900, access.MaxAge)
	assert.Nil(t, cookieNamed(w, RefreshTokenCookie), "refresh token is not rotated")
	assert.JSONEq(t, `{"message":"Token refreshed","user":{"email":"admin@velora.test","role":"admin"}}`, w.Body.String())
}

func TestAuthController_RefreshFailures(t *testing.T) {
	router, testDB := setupAuthControllerTest(t)
	seedUser(t, testDB, "admin@velora.test", "password123", model.RoleAdmin, false)
	access, _ := login(t, router)

	tests := []struct {
		name     string
		cookie   *http.Cookie
		wantCode int
		wantErr  string
	}{
		{name: "No cookie", wantCode: http.StatusUnauthorized, wantErr: "AUTH_UNAUTHENTICATED"},
		{name: "Garbage token", cookie: &http.Cookie{Name: RefreshTokenCookie, Value: "garbage"}, wantCode: http.StatusForbidden, wantErr: "AUTH_TOKEN_INVALID"},
		{name: "Access token as refresh", cookie: &http.Cookie{Name: RefreshTokenCookie, Value: access.Value}, wantCode: http.StatusForbidden, wantErr: "AUTH_TOKEN_INVALID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			var body errorBody
			decode(t, w, &body)
			assert.Equal(t, tt.wantErr, body.Error)
		})
	}
}

func TestAuthController_RefreshStoreUnavailable(t *testing.T) {
	router, testDB := setupAuthControllerTest(t)
	seedUser(t, testDB, "admin@velora.test", "password123", model.RoleAdmin, false)
	_, refresh := login(t, router)

	sqlDB, err := testDB.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	req := withCookies(httptest.NewRequest(http.MethodPost, "/auth/refresh", nil), refresh)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	var body errorBody
	decode(t, w, &body)
	assert.Equal(t, "AUTH_SESSION_INVALID", body.Error)
}

func TestAuthController_RefreshAfterLogout(t *testing.T) {
	router, testDB := setupAuthControllerTest(t)
	seedUser(t, testDB, "admin@velora.test", "password123", model.RoleAdmin, false)
	access, refresh := login(t, router)

	req := withCookies(httptest.NewRequest(http.MethodPost, "/auth/logout", nil), access)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	cleared := cookieNamed(w, middleware.AccessTokenCookie)
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)
	assert.True(t, cleared.MaxAge < 0)
	assert.NotNil(t, cookieNamed(w, RefreshTokenCookie))

	req = withCookies(httptest.NewRequest(http.MethodPost, "/auth/refresh", nil), refresh)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	var body errorBody
	decode(t, w, &body)
	assert.Equal(t, "AUTH_SESSION_INVALID", body.Error)
}

func TestAuthController_Me(t *testing.T) {
	router, testDB := setupAuthControllerTest(t)
	user := seedUser(t, testDB, "admin@velora.test", "password123", model.RoleAdmin, false)
	access, _ := login(t, router)

	req := withCookies(httptest.NewRequest(http.MethodGet, "/auth/me", nil), access)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		User struct {
			ID    uint   `json:"id"`
			Email string `json:"email"`
			Name  string `json:"name"`
		} `json:"user"`
	}
	decode(t, w, &body)
	assert.Equal(t, user.ID, body.User.ID)
	assert.Equal(t, "Store Admin", body.User.Name)

	req = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+access.Value)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "admin@velora.test"))
}

func TestAuthController_MeWithoutSession(t *testing.T) {
	router, _ := setupAuthControllerTest(t)

	w := doJSON(t, router, http.MethodGet, "/auth/me", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
