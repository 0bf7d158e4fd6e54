package middlewares

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiterConfig holds the configuration for the rate limiter
type RateLimiterConfig struct {
	RequestsPerSecond float64
	Burst             int
}

const limiterIdleTimeout = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiterData keeps one limiter per client IP.
type rateLimiterData struct {
	config  RateLimiterConfig
	mu      sync.Mutex
	clients map[string]*clientLimiter
}

func (d *rateLimiterData) get(key string, now time.Time) *rate.Limiter {
	d.mu.Lock()
	defer d.mu.Unlock()

	for k, cl := range d.clients {
		if now.Sub(cl.lastSeen) > limiterIdleTimeout {
			delete(d.clients, k)
		}
	}

	cl, ok := d.clients[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(d.config.RequestsPerSecond), d.config.Burst)}
		d.clients[key] = cl
	}
	cl.lastSeen = now
	return cl.limiter
}

// NewRateLimiterMiddleware creates a new rate limiter middleware
func NewRateLimiterMiddleware(config RateLimiterConfig) gin.HandlerFunc {
	data := &rateLimiterData{config: config, clients: make(map[string]*clientLimiter)}

	return func(c *gin.Context) {
		if !data.get(c.ClientIP(), time.Now()).Allow() {
			c.Header("Retry-After", "1")
			AbortWithError(c, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		c.Next()
	}
}
