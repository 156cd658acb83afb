package middlewares

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/mf-tracker/utils"
)

// AdminOnly must run after AuthMiddleware.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		isAdmin, exists := c.Get(CtxIsAdmin)
		if !exists {
			utils.AbortWithError(c, http.StatusUnauthorized, errors.New("unauthorized"))
			return
		}
		if admin, _ := isAdmin.(bool); !admin {
			utils.AbortWithError(c, http.StatusForbidden, errors.New("admin access required"))
			return
		}
		c.Next()
	}
}
