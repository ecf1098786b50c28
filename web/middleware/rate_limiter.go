package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimiterConfig holds configuration for rate limiting
type RateLimiterConfig struct {
	RequestsPerMinute int // Sustained requests per client per minute
	BurstSize         int // Allow burst of N requests
	MaxClients        int // Clients tracked at once; the least recently seen is forgotten
}

// ClientRateLimiter keeps one token bucket per client address. The set of
// buckets is bounded by an LRU, so idle clients age out without a sweeper.
type ClientRateLimiter struct {
	config  RateLimiterConfig
	clients *lru.Cache
	mu      sync.Mutex
}

// NewClientRateLimiter creates a limiter. A non-positive rate disables limiting.
func NewClientRateLimiter(config RateLimiterConfig) (*ClientRateLimiter, error) {
	if config.MaxClients <= 0 {
		config.MaxClients = 1024
	}
	if config.BurstSize <= 0 {
		config.BurstSize = 1
	}
	clients, err := lru.New(config.MaxClients)
	if err != nil {
		return nil, err
	}
	return &ClientRateLimiter{config: config, clients: clients}, nil
}

func (l *ClientRateLimiter) enabled() bool {
	return l.config.RequestsPerMinute > 0
}

func (l *ClientRateLimiter) limiter(client string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if v, ok := l.clients.Get(client); ok {
		return v.(*rate.Limiter)
	}
	lim := rate.NewLimiter(rate.Limit(float64(l.config.RequestsPerMinute)/60.0), l.config.BurstSize)
	l.clients.Add(client, lim)
	return lim
}

// Allow consumes a token for client and reports whether the request may
// proceed and how many tokens are left.
func (l *ClientRateLimiter) Allow(client string) (allowed bool, remaining int) {
	if !l.enabled() {
		return true, l.config.BurstSize
	}
	lim := l.limiter(client)
	allowed = lim.Allow()
	remaining = int(math.Max(0, math.Floor(lim.Tokens())))
	return allowed, remaining
}

// Limit returns the burst size advertised in X-RateLimit-Limit.
func (l *ClientRateLimiter) Limit() int {
	return l.config.BurstSize
}

// RateLimitMiddleware creates a Gin middleware for rate limiting by client IP
func RateLimitMiddleware(limiter *ClientRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		client := c.ClientIP()
		allowed, remaining := limiter.Allow(client)
		limit := limiter.Limit()

		// Add rate limit headers
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			if logger, ok := c.Get("logger"); ok {
				if zapLogger, _ := logger.(*zap.Logger); zapLogger != nil {
					zapLogger.Warn("Rate limit exceeded",
						zap.String("client_ip", client),
						zap.String("path", c.FullPath()),
						zap.Int("limit", limit))
				}
			}

			c.Header("Retry-After", "60") // Suggest retry after 60 seconds
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"limit":       limit,
				"remaining":   remaining,
				"retry_after": 60,
			})
			return
		}

		c.Next()
	}
}
