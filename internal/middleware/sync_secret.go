package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// SyncSecretAuth guards the cron trigger endpoints with a shared bearer
// secret. An empty secret disables the check.
func SyncSecretAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			GetLoggerFromCtx(c.Request.Context()).Warn("Rejected sync trigger with bad shared secret", "client_ip", c.ClientIP())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "unauthorized"})
			return
		}
		c.Next()
	}
}
