package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/use-agent/shelfscan/config"
	"github.com/use-agent/shelfscan/logging"
	"github.com/use-agent/shelfscan/models"
)

const (
	sweepEvery = 5 * time.Minute
	idleAfter  = time.Hour
)

// ipBuckets keeps one token bucket per client IP.
type ipBuckets struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	buckets map[string]*ipBucket
}

type ipBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newIPBuckets(rps float64, burst int) *ipBuckets {
	return &ipBuckets{
		limit:   rate.Limit(rps),
		burst:   burst,
		buckets: make(map[string]*ipBucket),
	}
}

// allow spends one token from ip's bucket at now.
func (b *ipBuckets) allow(ip string, now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	bk, ok := b.buckets[ip]
	if !ok {
		bk = &ipBucket{limiter: rate.NewLimiter(b.limit, b.burst)}
		b.buckets[ip] = bk
	}
	bk.lastSeen = now
	return bk.limiter.AllowN(now, 1)
}

// sweep forgets buckets last used before cutoff and reports how many went.
func (b *ipBuckets) sweep(cutoff time.Time) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for ip, bk := range b.buckets {
		if bk.lastSeen.Before(cutoff) {
			delete(b.buckets, ip)
			n++
		}
	}
	return n
}

func (b *ipBuckets) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buckets)
}

// retryAfter is the number of whole seconds until one token refills.
func (b *ipBuckets) retryAfter() string {
	if b.limit <= 0 {
		return "1"
	}
	return strconv.Itoa(int(math.Ceil(1 / float64(b.limit))))
}

// RateLimit throttles requests per client IP and answers
// 429 with the fixed error envelope and a Retry-After hint. Idle buckets
// are swept in the background.
func RateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	buckets := newIPBuckets(cfg.RequestsPerSecond, cfg.Burst)

	go func() {
		ticker := time.NewTicker(sweepEvery)
		defer ticker.Stop()
		for now := range ticker.C {
			if n := buckets.sweep(now.Add(-idleAfter)); n > 0 {
				slog.Debug("rate limit buckets swept", "removed", n, "remaining", buckets.len())
			}
		}
	}()

	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !buckets.allow(ip, time.Now()) {
			slog.WarnContext(c.Request.Context(), "rate limited",
				logging.FieldIP, ip,
				logging.FieldRequestID, GetRequestID(c),
			)
			c.Header("Retry-After", buckets.retryAfter())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Error: models.MsgRateLimited,
			})
			return
		}
		c.Next()
	}
}
