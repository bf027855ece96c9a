package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(ipLimiter *IPRateLimiter, quota *DailyQuota) *gin.Engine {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.POST("/generate", RateLimitMiddleware(ipLimiter, quota), func(c *gin.Context) {
		c.Status(http.StatusAccepted)
	})
	return r
}

func doPost(r http.Handler, ip string, forwardedProto string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/generate", nil)
	req.RemoteAddr = ip + ":1234"
	if forwardedProto != "" {
		req.Header.Set("X-Forwarded-Proto", forwardedProto)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitPerIP(t *testing.T) {
	r := newRouter(NewIPRateLimiter(rate.Every(time.Hour), 1), NewDailyQuota(100))

	if w := doPost(r, "10.0.0.1", ""); w.Code != http.StatusAccepted {
		t.Fatalf("first request = %d", w.Code)
	}

	w := doPost(r, "10.0.0.1", "")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}

	if w := doPost(r, "10.0.0.2", ""); w.Code != http.StatusAccepted {
		t.Errorf("other IP = %d, want 202", w.Code)
	}
}

func TestDailyQuota(t *testing.T) {
	r := newRouter(NewIPRateLimiter(rate.Inf, 1), NewDailyQuota(2))

	for i, ip := range []string{"10.0.0.1", "10.0.0.2"} {
		if w := doPost(r, ip, ""); w.Code != http.StatusAccepted {
			t.Fatalf("request %d = %d", i, w.Code)
		}
	}
	if w := doPost(r, "10.0.0.3", ""); w.Code != http.StatusTooManyRequests {
		t.Errorf("over quota = %d, want 429", w.Code)
	}
}

func TestDailyQuotaResets(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	q := newDailyQuota(1, func() time.Time { return now })

	if !q.Allow() {
		t.Fatal("first Allow() = false")
	}
	if q.Allow() {
		t.Fatal("second Allow() = true")
	}
	if q.Remaining() != 0 {
		t.Errorf("Remaining() = %d", q.Remaining())
	}

	now = now.Add(25 * time.Hour)
	if !q.Allow() {
		t.Error("Allow() after reset = false")
	}
	if q.Count() != 1 {
		t.Errorf("Count() = %d, want 1", q.Count())
	}
}

func TestSecurityHeaders(t *testing.T) {
	r := newRouter(NewIPRateLimiter(rate.Inf, 1), NewDailyQuota(10))

	w := doPost(r, "10.0.0.1", "")
	for _, h := range []string{"X-Content-Type-Options", "X-Frame-Options", "Content-Security-Policy", "Referrer-Policy"} {
		if w.Header().Get(h) == "" {
			t.Errorf("missing %s", h)
		}
	}
	if w.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS set on plain HTTP")
	}

	if w := doPost(r, "10.0.0.1", "https"); w.Header().Get("Strict-Transport-Security") == "" {
		t.Error("HSTS missing behind HTTPS proxy")
	}
}

func TestRateLimitedRequestKeepsQuota(t *testing.T) {
	quota := NewDailyQuota(10)
	r := newRouter(NewIPRateLimiter(rate.Every(time.Hour), 1), quota)

	doPost(r, "10.0.0.1", "")
	if w := doPost(r, "10.0.0.1", ""); w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request = %d, want 429", w.Code)
	}
	if quota.Count() != 1 {
		t.Errorf("Count() = %d, want 1", quota.Count())
	}
}

func TestRefundQuota(t *testing.T) {
	quota := NewDailyQuota(1)
	r := gin.New()
	r.POST("/generate", RateLimitMiddleware(NewIPRateLimiter(rate.Inf, 1), quota), func(c *gin.Context) {
		RefundQuota(c)
		RefundQuota(c)
		c.Status(http.StatusBadRequest)
	})

	for i := 0; i < 3; i++ {
		if w := doPost(r, "10.0.0.1", ""); w.Code != http.StatusBadRequest {
			t.Fatalf("request %d = %d, want 400", i, w.Code)
		}
	}
	if quota.Count() != 0 {
		t.Errorf("Count() = %d, want 0", quota.Count())
	}
}

func TestRateLimitWithCustomReject(t *testing.T) {
	var got Rejection
	r := gin.New()
	reject := func(c *gin.Context, rej Rejection) {
		got = rej
		c.AbortWithStatus(http.StatusTeapot)
	}
	r.POST("/generate", RateLimitWith(NewIPRateLimiter(rate.Inf, 1), NewDailyQuota(0), reject), func(c *gin.Context) {
		c.Status(http.StatusAccepted)
	})

	w := doPost(r, "10.0.0.1", "")
	if w.Code != http.StatusTeapot {
		t.Fatalf("status = %d, want 418", w.Code)
	}
	if got.Code != "DAILY_QUOTA_EXCEEDED" || got.RetryAfter < 1 {
		t.Errorf("rejection = %+v", got)
	}
}

func TestIPRateLimiterEvictIdle(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	l := newIPRateLimiter(rate.Every(500*time.Millisecond), 1, func() time.Time { return now })

	l.GetLimiter("10.0.0.1")
	now = now.Add(2 * time.Minute)
	l.GetLimiter("10.0.0.2")

	if n := l.EvictIdle(time.Minute); n != 1 {
		t.Errorf("EvictIdle() = %d, want 1", n)
	}
	if l.Len() != 1 {
		t.Errorf("Len() = %d, want 1", l.Len())
	}

	now = now.Add(2 * time.Minute)
	l.EvictIdle(time.Minute)
	if l.Len() != 0 {
		t.Errorf("Len() = %d, want 0", l.Len())
	}
}

func TestRefillTime(t *testing.T) {
	if got := NewIPRateLimiter(rate.Every(500*time.Millisecond), 1).RefillTime(); got != 500*time.Millisecond {
		t.Errorf("RefillTime() = %v, want 500ms", got)
	}
	if got := NewIPRateLimiter(rate.Inf, 1).RefillTime(); got != 0 {
		t.Errorf("RefillTime() with no limit = %v, want 0", got)
	}
}
