package middleware

import (
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// DelayStrategy decides how long a request is held before it is handled.
type DelayStrategy func(*http.Request) time.Duration

// NoDelay disables simulated latency.
func NoDelay(*http.Request) time.Duration { return 0 }

// UniformDelay picks a delay uniformly in [min, max].
func UniformDelay(min, max time.Duration) DelayStrategy {
	if max <= min {
		return func(*http.Request) time.Duration { return min }
	}
	span := int64(max - min)
	return func(*http.Request) time.Duration {
		return min + time.Duration(rand.Int64N(span+1))
	}
}

// Latency holds every request for strategy's delay. A request whose context
// ends while waiting is aborted without a response.
func Latency(strategy DelayStrategy) gin.HandlerFunc {
	return func(c *gin.Context) {
		d := strategy(c.Request)
		if d <= 0 {
			c.Next()
			return
		}

		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
			c.Next()
		case <-c.Request.Context().Done():
			c.Abort()
		}
	}
}
