package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/handyhub/booking-api/internal/handler"
)

// RateLimiterConfig caps the request rate for the whole process.
// RequestsPerSecond is the sustained refill rate and Burst is the
// bucket depth, so short spikes up to Burst pass through.
type RateLimiterConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// RateLimiter applies one shared token bucket to every request.
// Per-client fairness is the edge proxy's job.
type RateLimiter struct {
	bucket *rate.Limiter
}

func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	return &RateLimiter{
		bucket: rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.Burst),
	}
}

// RateLimit rejects requests over the configured rate with 429 before
// any handler work runs.
func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.bucket.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				handler.NewErrorResponse("too many requests"))
			return
		}
		c.Next()
	}
}
