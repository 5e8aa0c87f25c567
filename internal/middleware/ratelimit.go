package middleware

import (
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
	"homease-backend/internal/metrics"
	"homease-backend/internal/models"
)

// NewFrameLimiter returns a token bucket admitting perSecond frames with a
// burst of one second's worth.
func NewFrameLimiter(perSecond float64) *rate.Limiter {
	burst := int(math.Ceil(perSecond))
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// FrameRateLimit rejects AR frames above the limiter's rate with 429. The
// limiter is shared by every caller of the routes it guards.
func FrameRateLimit(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			metrics.ARFrame("rate_limited")
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ARFrameResponse{
				Success: false,
				Error:   "Too many frames. Slow down the capture rate.",
			})
			return
		}
		c.Next()
	}
}
