package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lanchecard/canteen-api/internal/apperror"
	"github.com/lanchecard/canteen-api/internal/auth"
	"github.com/sirupsen/logrus"
)

const (
	claimsKey       = "claims"
	requestIDHeader = "X-Request-ID"
)

type TokenVerifier interface {
	VerifyToken(token string) (*auth.Claims, error)
}

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

func RequestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		entry := logger.WithFields(logrus.Fields{
			"status_code": status,
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"remote_ip":   c.ClientIP(),
			"latency_ms":  time.Since(start).Milliseconds(),
			"request_id":  c.Writer.Header().Get(requestIDHeader),
		})
		if claims, ok := claimsFrom(c); ok {
			entry = entry.WithField("actor_id", claims.UserID)
		}

		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("Request completed with server error")
		case status >= http.StatusBadRequest:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed")
		}
	}
}

// Recovery turns a panic into a 500 envelope.
func Recovery(r responder) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered interface{}) {
		r.log.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"panic":  recovered,
		}).Error("Recovered from panic")
		r.fail(c, apperror.New(apperror.KindInternal, "panic: %v", recovered))
	})
}

// CORS answers preflight requests for the browser storefront.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// RequireAuth rejects requests without a valid bearer token.
func RequireAuth(verifier TokenVerifier, r responder) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c)
		if err != nil {
			r.fail(c, err)
			return
		}

		claims, err := verifier.VerifyToken(token)
		if err != nil {
			r.fail(c, err)
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

// OptionalAuth attaches claims when a valid token is present and otherwise
// lets the request through untouched.
func OptionalAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, err := bearerToken(c); err == nil {
			if claims, err := verifier.VerifyToken(token); err == nil {
				c.Set(claimsKey, claims)
			}
		}
		c.Next()
	}
}

// RequireRole must run after RequireAuth.
func RequireRole(role string, r responder) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := claimsFrom(c)
		if !ok {
			r.fail(c, apperror.Auth("authentication required"))
			return
		}
		if claims.Role != role {
			r.fail(c, apperror.Forbidden("%s role required", role))
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", apperror.Auth("authorization header required")
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", apperror.Auth("invalid authorization header format")
	}

	return strings.TrimSpace(parts[1]), nil
}

func claimsFrom(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}
