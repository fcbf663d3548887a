package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/GTDGit/repair_api/internal/utils"
)

// IPRateLimiter keeps one token bucket per client IP.
type IPRateLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	visitors map[string]*visitor
	idleTTL  time.Duration
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewIPRateLimiter allows perMinute events per IP with a burst of the same size.
func NewIPRateLimiter(perMinute int) *IPRateLimiter {
	if perMinute < 1 {
		perMinute = 1
	}
	return &IPRateLimiter{
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    perMinute,
		visitors: make(map[string]*visitor),
		idleTTL:  10 * time.Minute,
	}
}

// Allow consumes one token for ip.
func (r *IPRateLimiter) Allow(ip string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	return v.limiter.Allow()
}

// retryAfter is the wait until ip's next token, rounded up to whole seconds.
func (r *IPRateLimiter) retryAfter(ip string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.visitors[ip]
	if !ok {
		return 1
	}
	res := v.limiter.Reserve()
	d := res.Delay()
	res.Cancel()
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// Cleanup drops visitors idle for longer than the idle TTL until ctx ends.
func (r *IPRateLimiter) Cleanup(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.evictIdle(time.Now())
		}
	}
}

func (r *IPRateLimiter) evictIdle(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for ip, v := range r.visitors {
		if now.Sub(v.lastSeen) > r.idleTTL {
			delete(r.visitors, ip)
		}
	}
}

// Handle rejects requests over the per-IP rate with 429.
func (r *IPRateLimiter) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !r.Allow(ip) {
			c.Header("Retry-After", strconv.Itoa(r.retryAfter(ip)))
			utils.Error(c, http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "Too many requests, slow down")
			c.Abort()
			return
		}
		c.Next()
	}
}

// LoginFailureLimiter counts only failed logins: a client that keeps failing
// gets 429 instead of 401 until its bucket refills.
type LoginFailureLimiter struct {
	*IPRateLimiter
}

// NewLoginFailureLimiter allows 5 failed attempts per minute per IP.
func NewLoginFailureLimiter() *LoginFailureLimiter {
	return &LoginFailureLimiter{IPRateLimiter: NewIPRateLimiter(5)}
}

// Handle lets the login handler run and charges the IP when it answered 401.
func (l *LoginFailureLimiter) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if l.exhausted(ip) {
			utils.Error(c, http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "Too many invalid authentication attempts")
			c.Abort()
			return
		}

		c.Next()

		if c.Writer.Status() == http.StatusUnauthorized {
			l.Allow(ip)
		}
	}
}

func (l *LoginFailureLimiter) exhausted(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	v, ok := l.visitors[ip]
	return ok && v.limiter.Tokens() < 1
}
