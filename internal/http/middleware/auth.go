package middleware

import (
	"net/http"
	"strings"

	"cyber_cricket/internal/service"

	"github.com/gin-gonic/gin"
)

// OperatorKey is the gin context key holding the authenticated operator name.
const OperatorKey = "operator"

// OperatorJWT requires "Authorization: Bearer <operator token>".
func OperatorJWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}

		operator, err := service.ParseOperatorToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(OperatorKey, operator)
		c.Next()
	}
}
