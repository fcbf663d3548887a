package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/repair_api/internal/utils"
)

// JWTMiddleware guards the back-office routes.
type JWTMiddleware struct{}

func NewJWTMiddleware() *JWTMiddleware {
	return &JWTMiddleware{}
}

func (m *JWTMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		scheme, token, ok := strings.Cut(c.GetHeader("Authorization"), " ")
		if !ok || scheme != "Bearer" || token == "" {
			utils.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authorization header")
			c.Abort()
			return
		}

		claims, err := utils.ValidateJWT(token)
		if err != nil {
			utils.Error(c, http.StatusUnauthorized, utils.ErrInvalidToken.Error(), "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Next()
	}
}
