// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements bearer-token authentication for the moderation
// endpoints. There is a single admin credential, compared in constant
// time; there are no users, roles, or sessions.
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireBearer returns a middleware that admits only requests carrying
// "Authorization: Bearer <token>" with the configured admin token.
//
// An empty configured token locks the protected group entirely rather
// than leaving it open; a deployment without ADMIN_TOKEN set must not
// expose moderation.
func RequireBearer(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if token == "" || !strings.HasPrefix(auth, prefix) {
			unauthorized(c)
			return
		}
		presented := strings.TrimSpace(strings.TrimPrefix(auth, prefix))
		if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			unauthorized(c)
			return
		}
		c.Next()
	}
}

func unauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", `Bearer realm="moderation"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": c.Writer.Header().Get("X-Request-ID"),
		"code":       "unauthorized",
		"message":    "missing or invalid bearer token",
	})
}
