package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"nutrilens/utils"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware accepts "Authorization: Bearer <jwt>" and sets userID and
// email on the context. Websocket clients may pass ?token= instead.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
			tokenString = strings.TrimPrefix(h, "Bearer ")
		} else if c.IsWebsocket() {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		claims, err := utils.ParseJWT(tokenString)
		if errors.Is(err, utils.ErrJWTSecretMissing) {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if err != nil || claims.UserID == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("userID", claims.UserID)
		c.Set("email", claims.Email)
		c.Next()
	}
}
