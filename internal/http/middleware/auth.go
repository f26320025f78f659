// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements bearer-token authentication for the admin surface.
// Tokens are HMAC-signed JWTs; the middleware verifies the signature and
// expiry and stores the subject in the Gin context under "userID", where the
// rate limiter's identity function picks it up.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ctxKeyUserID is the Gin context key for the authenticated subject.
const ctxKeyUserID = "userID"

// UserID returns the authenticated subject, if any.
func UserID(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyUserID)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok && s != ""
}

// RequireJWT returns a middleware that rejects requests without a valid
// HS256 bearer token. Responses use the standard error envelope so admin
// clients see the same shape as every other failure.
//
// An empty secret fails closed: every request is rejected. Anyone can sign
// a token with the empty key, so verifying against it would leave the admin
// surface open. Config validation refuses to boot without a secret; this
// guard covers callers that bypass config.Load.
func RequireJWT(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.TrimSpace(secret) == "" {
			unauthorized(c, "admin authentication is not configured")
			return
		}

		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		const prefix = "Bearer "
		if !strings.HasPrefix(raw, prefix) {
			unauthorized(c, "missing bearer token")
			return
		}

		token, err := jwt.Parse(strings.TrimPrefix(raw, prefix),
			func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			},
			jwt.WithValidMethods([]string{"HS256"}),
		)
		if err != nil || !token.Valid {
			unauthorized(c, "invalid or expired token")
			return
		}

		if claims, ok := token.Claims.(jwt.MapClaims); ok {
			if sub, _ := claims["sub"].(string); sub != "" {
				c.Set(ctxKeyUserID, sub)
			}
		}
		c.Next()
	}
}

func unauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", `Bearer realm="admin"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": c.Writer.Header().Get("X-Request-ID"),
		"code":       "unauthorized",
		"message":    msg,
	})
}
