package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/velora-shop/storefront-backend/internal/app/model"
	"github.com/velora-shop/storefront-backend/internal/app/service"
	apperrors "github.com/velora-shop/storefront-backend/internal/errors"
	"github.com/velora-shop/storefront-backend/internal/middleware"
	"github.com/velora-shop/storefront-backend/internal/validation"
)

const RefreshTokenCookie = "refreshToken"

// CookieSettings controls the session cookies.
type CookieSettings struct {
	Secure        bool
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

type AuthController struct {
	authService service.AuthService
	cookies     CookieSettings
}

func NewAuthController(authService service.AuthService, cookies CookieSettings) *AuthController {
	return &AuthController{
		authService: authService,
		cookies:     cookies,
	}
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func publicUser(user *model.User) gin.H {
	return gin.H{
		"id":    user.ID,
		"email": user.Email,
		"name":  user.Name,
		"role":  user.Role,
	}
}

// Login handles staff login
// POST /api/v1/auth/login
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid login request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid login data")
		return
	}
	if err := validation.Struct(req); err != nil {
		apperrors.RespondWithValidationError(c, validation.Fields(err))
		return
	}

	user, tokens, err := ctrl.authService.Login(req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthInvalidCredentials, "Invalid email or password")
		case errors.Is(err, service.ErrAccountBlocked):
			apperrors.RespondWithError(c, http.StatusForbidden, apperrors.AuthAccountBlocked, "Account is blocked")
		default:
			log.Error("Login failed", err, map[string]interface{}{
				"email": req.Email,
			})
			apperrors.InternalError(c, "Login failed")
		}
		return
	}

	ctrl.setCookie(c, middleware.AccessTokenCookie, tokens.AccessToken, ctrl.cookies.AccessExpiry)
	ctrl.setCookie(c, RefreshTokenCookie, tokens.RefreshToken, ctrl.cookies.RefreshExpiry)

	log.Info("User logged in", map[string]interface{}{
		"user_id": user.ID,
	})
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    publicUser(user),
	})
}

// Refresh issues a new access token from the refresh cookie
// POST /api/v1/auth/refresh
func (ctrl *AuthController) Refresh(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	refreshToken, _ := c.Cookie(RefreshTokenCookie)

	user, accessToken, err := ctrl.authService.Refresh(refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnauthenticated):
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthUnauthenticated, "Not authenticated")
		case errors.Is(err, service.ErrInvalidToken):
			apperrors.RespondWithError(c, http.StatusForbidden, apperrors.AuthTokenInvalid, "Session expired")
		default:
			// every other failure is a session the client must re-establish
			log.Warn("Token refresh rejected", map[string]interface{}{
				"error": err.Error(),
			})
			apperrors.RespondWithError(c, http.StatusForbidden, apperrors.AuthSessionInvalid, "Invalid session")
		}
		return
	}

	ctrl.setCookie(c, middleware.AccessTokenCookie, accessToken, ctrl.cookies.AccessExpiry)

	c.JSON(http.StatusOK, gin.H{
		"message": "Token refreshed",
		"user": gin.H{
			"email": user.Email,
			"role":  user.Role,
		},
	})
}

// Me returns the authenticated user
// GET /api/v1/auth/me
func (ctrl *AuthController) Me(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "Not authenticated")
		return
	}

	user, err := ctrl.authService.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			apperrors.NotFound(c, apperrors.ResourceNotFound, "User not found")
			return
		}
		log.Error("Failed to load current user", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.InternalError(c, "Failed to load user")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": publicUser(user)})
}

// Logout revokes the refresh token and clears both cookies
// POST /api/v1/auth/logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "Not authenticated")
		return
	}

	if err := ctrl.authService.Logout(userID); err != nil && !errors.Is(err, service.ErrUserNotFound) {
		log.Error("Logout failed", err, map[string]interface{}{
			"user_id": userID,
		})
		apperrors.InternalError(c, "Logout failed")
		return
	}

	ctrl.setCookie(c, middleware.AccessTokenCookie, "", -1)
	ctrl.setCookie(c, RefreshTokenCookie, "", -1)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// setCookie writes an HTTP-only, same-site lax cookie. A negative ttl
// deletes it.
func (ctrl *AuthController) setCookie(c *gin.Context, name, value string, ttl time.Duration) {
	maxAge := int(ttl.Seconds())
	if ttl < 0 {
		maxAge = -1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, maxAge, "/", "", ctrl.cookies.Secure, true)
}
