package middleware

import (
	"net/http"
	"sync"
	"time"

	"go-hrms/internal/shared/apperror"
	"go-hrms/internal/shared/response"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// limiterIdleTTL is how long a client may stay silent before its bucket is
// dropped. A dropped bucket comes back full.
const limiterIdleTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter holds one token bucket per client key.
type IPRateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	r         rate.Limit // jumlah request per detik
	b         int        // burst (kapasitas kantong)
	now       func() time.Time
	lastSweep time.Time
}

func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		clients: make(map[string]*clientLimiter),
		r:       r,
		b:       b,
		now:     time.Now,
	}
}

func (i *IPRateLimiter) GetLimiter(key string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	now := i.now()
	i.sweep(now)

	cl, ok := i.clients[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(i.r, i.b)}
		i.clients[key] = cl
	}
	cl.lastSeen = now
	return cl.limiter
}

// Len reports how many client buckets are live.
func (i *IPRateLimiter) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.clients)
}

// sweep runs at most once per TTL; caller holds mu.
func (i *IPRateLimiter) sweep(now time.Time) {
	if now.Sub(i.lastSweep) < limiterIdleTTL {
		return
	}
	i.lastSweep = now
	for key, cl := range i.clients {
		if now.Sub(cl.lastSeen) >= limiterIdleTTL {
			delete(i.clients, key)
		}
	}
}

func RateLimitByIP(r rate.Limit, b int) gin.HandlerFunc {
	return rateLimit(NewIPRateLimiter(r, b))
}

func rateLimit(limiter *IPRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.GetLimiter(c.ClientIP()).Allow() {
			response.Error(c, http.StatusTooManyRequests, apperror.CodeRateLimited, "Too many requests from this IP", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
