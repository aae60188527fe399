package auth

import "github.com/gin-gonic/gin"

const (
	userIDKey    = "userID"
	userEmailKey = "userEmail"
)

// GetUserID returns the authenticated user's ID or empty string.
func GetUserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// GetUserEmail returns the authenticated user's email or empty string.
func GetUserEmail(c *gin.Context) string {
	return c.GetString(userEmailKey)
}

// SetUser stores the authenticated identity on the gin context.
func SetUser(c *gin.Context, userID, email string) {
	c.Set(userIDKey, userID)
	c.Set(userEmailKey, email)
}
