package middleware

import (
	"context"
	"log"
	"math"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// IPRateLimiter manages per-IP rate limiting
type IPRateLimiter struct {
	limiters sync.Map // ip -> *ipEntry
	rate     rate.Limit
	burst    int
	now      func() time.Time
}

type ipEntry struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nanos
}

// NewIPRateLimiter creates a new IP-based rate limiter
func NewIPRateLimiter(r rate.Limit, burst int) *IPRateLimiter {
	return newIPRateLimiter(r, burst, time.Now)
}

func newIPRateLimiter(r rate.Limit, burst int, now func() time.Time) *IPRateLimiter {
	return &IPRateLimiter{
		rate:  r,
		burst: burst,
		now:   now,
	}
}

// GetLimiter returns the rate limiter for a given IP
func (l *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	v, _ := l.limiters.LoadOrStore(ip, &ipEntry{limiter: rate.NewLimiter(l.rate, l.burst)})
	entry := v.(*ipEntry)
	entry.lastSeen.Store(l.now().UnixNano())
	return entry.limiter
}

// Len returns the number of tracked IPs
func (l *IPRateLimiter) Len() int {
	n := 0
	l.limiters.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// EvictIdle drops limiters not used within idle.
// An idle period of at least RefillTime loses no state: the bucket would be full again.
func (l *IPRateLimiter) EvictIdle(idle time.Duration) int {
	cutoff := l.now().Add(-idle).UnixNano()
	evicted := 0
	l.limiters.Range(func(key, v any) bool {
		if v.(*ipEntry).lastSeen.Load() < cutoff {
			l.limiters.Delete(key)
			evicted++
		}
		return true
	})
	if evicted > 0 {
		log.Printf("[RATE] Evicted %d idle limiters", evicted)
	}
	return evicted
}

// RefillTime is how long an empty bucket takes to fill up
func (l *IPRateLimiter) RefillTime() time.Duration {
	if l.rate == rate.Inf || l.rate <= 0 {
		return 0
	}
	return time.Duration(float64(l.burst) / float64(l.rate) * float64(time.Second))
}

// Cleanup runs EvictIdle every interval until ctx is done
func (l *IPRateLimiter) Cleanup(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			l.EvictIdle(idle)
		case <-ctx.Done():
			return
		}
	}
}

// DailyQuota manages global daily request quota
type DailyQuota struct {
	count   int64
	limit   int64
	resetAt time.Time
	now     func() time.Time
	mu      sync.Mutex
}

// NewDailyQuota creates a new daily quota manager
func NewDailyQuota(limit int64) *DailyQuota {
	return newDailyQuota(limit, time.Now)
}

func newDailyQuota(limit int64, now func() time.Time) *DailyQuota {
	return &DailyQuota{
		limit:   limit,
		now:     now,
		resetAt: nextMidnightPT(now()),
	}
}

// Allow checks if a request is allowed and increments the counter
func (q *DailyQuota) Allow() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	// Check if we need to reset
	if now := q.now(); now.After(q.resetAt) {
		log.Printf("[QUOTA] Daily quota reset. Previous count: %d", q.count)
		q.count = 0
		q.resetAt = nextMidnightPT(now)
	}

	if q.count >= q.limit {
		return false
	}
	q.count++
	return true
}

// Refund returns one unit to the quota
func (q *DailyQuota) Refund() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.count > 0 {
		q.count--
	}
}

// Remaining returns the remaining quota
func (q *DailyQuota) Remaining() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.limit - q.count
}

// Count returns the current count
func (q *DailyQuota) Count() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// ResetIn returns the time until the quota resets
func (q *DailyQuota) ResetIn() time.Duration {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.resetAt.Sub(q.now())
}

// nextMidnightPT returns the next midnight in Pacific Time (Gemini API reset time)
func nextMidnightPT(from time.Time) time.Time {
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		// Fallback to UTC if timezone not found
		loc = time.UTC
	}
	now := from.In(loc)
	return time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, loc)
}

// Rejection describes a request turned away by the rate limiter
type Rejection struct {
	Code       string
	Message    string
	RetryAfter int // seconds, 0 when unknown
}

// RejectFunc writes the response for a rejected request
type RejectFunc func(c *gin.Context, r Rejection)

const quotaRefundKey = "middleware.quotaRefund"

// RateLimitMiddleware applies the global daily quota first, then the per-IP limiter.
// Either one exceeded answers 429 JSON with Retry-After.
func RateLimitMiddleware(ipLimiter *IPRateLimiter, quota *DailyQuota) gin.HandlerFunc {
	return RateLimitWith(ipLimiter, quota, RejectJSON)
}

// RejectJSON answers 429 with a JSON error body
func RejectJSON(c *gin.Context, r Rejection) {
	body := gin.H{"error": r.Message, "code": r.Code}
	if r.RetryAfter > 0 {
		body["retryAfter"] = r.RetryAfter
	}
	c.AbortWithStatusJSON(http.StatusTooManyRequests, body)
}

// RateLimitWith is RateLimitMiddleware with a custom rejection response.
// reject must abort the context.
func RateLimitWith(ipLimiter *IPRateLimiter, quota *DailyQuota, reject RejectFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !quota.Allow() {
			retryAfter := retrySeconds(quota.ResetIn())
			log.Printf("[QUOTA] Daily quota exhausted (%d requests)", quota.Count())
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			reject(c, Rejection{
				Code:       "DAILY_QUOTA_EXCEEDED",
				Message:    "Limite diário de gerações atingido. Tente novamente amanhã.",
				RetryAfter: retryAfter,
			})
			return
		}

		limiter := ipLimiter.GetLimiter(c.ClientIP())
		reservation := limiter.Reserve()
		if !reservation.OK() {
			quota.Refund()
			reject(c, Rejection{Code: "RATE_LIMITED", Message: "Muitas requisições."})
			return
		}
		if delay := reservation.Delay(); delay > 0 {
			reservation.Cancel()
			quota.Refund()
			retryAfter := retrySeconds(delay)
			log.Printf("[RATE] Client %s limited, retry in %ds", c.ClientIP(), retryAfter)
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			reject(c, Rejection{
				Code:       "RATE_LIMITED",
				Message:    "Muitas requisições. Aguarde um instante.",
				RetryAfter: retryAfter,
			})
			return
		}

		c.Set(quotaRefundKey, quota)
		c.Next()
	}
}

// RefundQuota gives back the daily quota unit taken for this request.
// Handlers call it when the request ends without a provider call. Repeated calls are no-ops.
func RefundQuota(c *gin.Context) {
	v, ok := c.Get(quotaRefundKey)
	if !ok {
		return
	}
	if q, ok := v.(*DailyQuota); ok {
		q.Refund()
		c.Set(quotaRefundKey, nil)
	}
}

func retrySeconds(d time.Duration) int {
	return max(1, int(math.Ceil(d.Seconds())))
}
