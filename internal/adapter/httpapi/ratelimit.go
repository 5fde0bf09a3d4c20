package httpapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// visitorLimiter hands out one token-bucket limiter per client IP and evicts
// idle entries so the map does not grow without bound.
type visitorLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const visitorIdleTTL = 3 * time.Minute

func newVisitorLimiter(rps float64, burst int) *visitorLimiter {
	return &visitorLimiter{
		visitors: map[string]*visitor{},
		limit:    rate.Limit(rps),
		burst:    burst,
	}
}

func (vl *visitorLimiter) allow(ip string) bool {
	vl.mu.Lock()
	defer vl.mu.Unlock()

	now := time.Now()
	v, ok := vl.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(vl.limit, vl.burst)}
		vl.visitors[ip] = v
	}
	v.lastSeen = now

	for ip, other := range vl.visitors {
		if now.Sub(other.lastSeen) > visitorIdleTTL {
			delete(vl.visitors, ip)
		}
	}
	return v.limiter.Allow()
}

// RateLimitMiddleware rejects clients that exceed rps sustained requests
// per second with the given burst allowance.
func RateLimitMiddleware(rps float64, burst int) echo.MiddlewareFunc {
	vl := newVisitorLimiter(rps, burst)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if !vl.allow(ctx.RealIP()) {
				return ctx.JSON(http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
			}
			return next(ctx)
		}
	}
}
