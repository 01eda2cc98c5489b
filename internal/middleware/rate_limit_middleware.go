package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	apperrors "github.com/velora-shop/storefront-backend/internal/errors"
	"github.com/velora-shop/storefront-backend/pkg/logger"
)

// WindowLimiter counts hits per scope in fixed windows. pkg/redis.Client
// implements it.
type WindowLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RejectionRecorder counts rejected attempts.
type RejectionRecorder interface {
	IncLoginRejected()
}

// LoginRateLimit limits login attempts per client IP. A nil limiter
// disables the check. Limiter errors let the request through.
func LoginRateLimit(limiter WindowLimiter, limit int, window time.Duration, recorder RejectionRecorder) gin.HandlerFunc {
	if limiter == nil || limit <= 0 {
		logger.Warn("Login rate limiting disabled", map[string]interface{}{
			"limit": limit,
		})
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)
		scope := "login:" + c.ClientIP()

		allowed, count, err := limiter.FixedWindowAllow(c.Request.Context(), scope, int64(limit), window)
		if err != nil {
			log.Error("Login rate limiter unavailable", err, map[string]interface{}{
				"scope": scope,
			})
			c.Next()
			return
		}
		if !allowed {
			log.Warn("Login rate limit exceeded", map[string]interface{}{
				"scope": scope,
				"count": count,
				"limit": limit,
			})
			if recorder != nil {
				recorder.IncLoginRejected()
			}
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			apperrors.RespondWithError(c, http.StatusTooManyRequests, apperrors.AuthTooManyAttempts, "Too many login attempts, try again later")
			c.Abort()
			return
		}

		c.Next()
	}
}
