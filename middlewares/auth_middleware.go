package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/mf-tracker/utils"
)

// Context keys set by the auth middlewares.
const (
	CtxUserID  = "userID"
	CtxEmail   = "email"
	CtxIsAdmin = "isAdmin"
	CtxToken   = "token"
)

func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.AbortWithError(c, http.StatusUnauthorized, errors.New("authorization header missing"))
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			utils.AbortWithError(c, http.StatusUnauthorized, errors.New("invalid authorization format"))
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := utils.ValidateToken(tokenString)
		if err != nil {
			utils.AbortWithError(c, http.StatusUnauthorized, err)
			return
		}
		if claims.UserID == 0 {
			utils.AbortWithError(c, http.StatusUnauthorized, errors.New("invalid user ID in token"))
			return
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxEmail, claims.Email)
		c.Set(CtxIsAdmin, claims.IsAdmin)
		c.Set(CtxToken, tokenString)

		c.Next()
	}
}
