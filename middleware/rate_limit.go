package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiterConfig controls the per-IP token bucket used on the
// public auth endpoints. This is transport-level protection only, not
// an account-level OTP lockout policy.
type RateLimiterConfig struct {
	RequestsPerSecond int
	Burst             int
	CleanupInterval   time.Duration
	TTL               time.Duration
}

func RateLimiterMiddleware(config RateLimiterConfig) gin.HandlerFunc {
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = 5
	}
	if config.Burst <= 0 {
		config.Burst = 10
	}
	if config.CleanupInterval == 0 {
		config.CleanupInterval = time.Minute
	}
	if config.TTL == 0 {
		config.TTL = 3 * time.Minute
	}

	var mu sync.Mutex
	visitors := make(map[string]*visitor)

	getVisitor := func(ip string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()

		v, exists := visitors[ip]
		if !exists {
			limiter := rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.Burst)
			visitors[ip] = &visitor{limiter, time.Now()}
			return limiter
		}

		v.lastSeen = time.Now()
		return v.limiter
	}

	go func() {
		for {
			time.Sleep(config.CleanupInterval)
			mu.Lock()
			for ip, v := range visitors {
				if time.Since(v.lastSeen) > config.TTL {
					delete(visitors, ip)
				}
			}
			mu.Unlock()
		}
	}()

	return func(c *gin.Context) {
		if !getVisitor(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests",
			})
			return
		}

		c.Next()
	}
}
