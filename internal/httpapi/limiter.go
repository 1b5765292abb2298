package httpapi

import (
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/time/rate"

	"github.com/John-Robertt/cvt/internal/model"
)

// idleLimiterTTL is how long a client's bucket survives without requests.
const idleLimiterTTL = 10 * time.Minute

type clientLimiter struct {
	lim  *rate.Limiter
	seen atomic.Int64 // unix nanoseconds of the last request
}

// ipLimiter is a token bucket per client IP.
type ipLimiter struct {
	rate    rate.Limit
	burst   int
	clients *xsync.MapOf[string, *clientLimiter]
	now     func() time.Time
	sweep   *xsync.Counter
}

func newIPLimiter(r float64, burst int) *ipLimiter {
	return &ipLimiter{
		rate:    rate.Limit(r),
		burst:   burst,
		clients: xsync.NewMapOf[string, *clientLimiter](),
		now:     time.Now,
		sweep:   xsync.NewCounter(),
	}
}

func (l *ipLimiter) allow(ip string) bool {
	now := l.now()
	c, _ := l.clients.Compute(ip, func(c *clientLimiter, loaded bool) (*clientLimiter, bool) {
		if !loaded {
			c = &clientLimiter{lim: rate.NewLimiter(l.rate, l.burst)}
		}
		c.seen.Store(now.UnixNano())
		return c, false
	})
	l.sweep.Inc()
	if l.sweep.Value()%1024 == 0 {
		l.forget(now)
	}
	return c.lim.AllowN(now, 1)
}

// forget drops buckets idle for longer than idleLimiterTTL.
func (l *ipLimiter) forget(now time.Time) {
	l.clients.Range(func(ip string, c *clientLimiter) bool {
		if now.Sub(time.Unix(0, c.seen.Load())) > idleLimiterTTL {
			l.clients.Delete(ip)
		}
		return true
	})
}

func (l *ipLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(clientIP(r)) {
			w.Header().Set("Retry-After", "1")
			WriteError(w, r, http.StatusTooManyRequests, model.AppError{
				Code:    "RATE_LIMITED",
				Message: "请求过于频繁",
				Stage:   "validate_request",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP is the host part of RemoteAddr, which middleware.RealIP has
// already rewritten when proxies are trusted.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
