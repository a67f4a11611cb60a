package middleware

import "github.com/gin-gonic/gin"

const (
	userIDKey   = contextKey("userID")
	tenantIDKey = contextKey("tenantID")
)

// GetUserIDFromContext retrieves the authenticated user ID from the Gin context.
// It returns the user ID and a boolean indicating if it was found.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	return stringFromContext(c, userIDKey)
}

// GetTenantIDFromContext retrieves the tenant the authenticated operator acts for.
func GetTenantIDFromContext(c *gin.Context) (string, bool) {
	return stringFromContext(c, tenantIDKey)
}

func stringFromContext(c *gin.Context, key contextKey) (string, bool) {
	if v, exists := c.Get(string(key)); exists {
		s, ok := v.(string)
		return s, ok && s != ""
	}
	// check in the request context as well
	if s, ok := c.Request.Context().Value(key).(string); ok && s != "" {
		return s, true
	}
	return "", false
}
