package utils

import (
	"github.com/gin-gonic/gin"
)

// RespondJSON writes the {ok, ...} envelope. ok follows the status code.
func RespondJSON(c *gin.Context, code int, payload gin.H) {
	body := gin.H{"ok": code >= 200 && code < 300}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(code, body)
}

func RespondError(c *gin.Context, code int, err error) {
	c.JSON(code, gin.H{
		"ok":    false,
		"error": err.Error(),
	})
}

// AbortWithError is RespondError for middlewares.
func AbortWithError(c *gin.Context, code int, err error) {
	c.AbortWithStatusJSON(code, gin.H{
		"ok":    false,
		"error": err.Error(),
	})
}
