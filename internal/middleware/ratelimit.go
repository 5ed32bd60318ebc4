package middleware

import (
	"net/http"

	"linkgate/internal/services"
	"linkgate/pkg/utils"

	"github.com/gin-gonic/gin"
)

func RateLimit(limiter *services.IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(utils.ClientIP(c.Request)) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Please try again later.",
			})
			return
		}
		c.Next()
	}
}
