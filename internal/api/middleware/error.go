package middleware

import (
	"net/http"

	"grid-planner/internal/logger"

	"github.com/gin-gonic/gin"
)

// ErrorHandler middleware handles panics and errors
func ErrorHandler(log *logger.Logger) gin.HandlerFunc {
	log = logger.OrNop(log)
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Error("panic while serving request", "path", c.Request.URL.Path, "panic", recovered)
		if err, ok := recovered.(string); ok {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{
					"code":    "INTERNAL_ERROR",
					"message": err,
				},
			})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{
					"code":    "INTERNAL_ERROR",
					"message": "An unexpected error occurred",
				},
			})
		}
		c.Abort()
	})
}
