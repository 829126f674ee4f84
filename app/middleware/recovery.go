package middleware

import (
	"net/http"
	"runtime/debug"

	"tripops/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Recovery catches panics and converts them to a standard error response
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				stack := debug.Stack()

				logger.ErrorCtx(c.Request.Context(),
					"panic recovered: %v\nstack:\n%s",
					err,
					string(stack),
				)

				resp := gin.H{"error": "Internal Server Error"}
				// Expose the stack trace only in debug mode
				if gin.Mode() == gin.DebugMode {
					resp["stack"] = string(stack)
				}
				c.AbortWithStatusJSON(http.StatusInternalServerError, resp)
			}
		}()

		c.Next()
	}
}
