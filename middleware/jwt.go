package middleware

import (
	"net/http"
	"strings"

	"userhub/account-api/pkg/security"

	"github.com/gin-gonic/gin"
)

// NewJWTMiddleware verifies the Authorization bearer token and puts
// the caller's identity (userID, role, email) on the context
func NewJWTMiddleware(tokens *security.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.MustGet("requestID").(string)

		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "No authorization header",
				"requestID": requestID,
			})
			return
		}

		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "Malformed authorization header",
				"requestID": requestID,
			})
			return
		}

		claims, err := tokens.Verify(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "Invalid or expired token",
				"requestID": requestID,
			})
			return
		}

		c.Set("userID", claims.Subject)
		c.Set("role", claims.Role)
		c.Set("email", claims.Email)
		c.Next()
	}
}
