package server

import (
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// limiterIdleTTL is how long an idle client keeps its limiter.
const limiterIdleTTL = 10 * time.Minute

// ClientLimiter keeps one token bucket per client key.
type ClientLimiter struct {
	limiters *cache.Cache
	limit    rate.Limit
	burst    int
	mu       sync.Mutex
}

// NewClientLimiter creates a limiter allowing perSecond requests with the
// given burst per client. It returns nil when perSecond is not positive,
// which disables limiting.
func NewClientLimiter(perSecond float64, burst int) *ClientLimiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &ClientLimiter{
		limiters: cache.New(limiterIdleTTL, limiterIdleTTL*2),
		limit:    rate.Limit(perSecond),
		burst:    burst,
	}
}

// Allow reports whether key may make a request now. A nil limiter allows everything.
func (l *ClientLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	return l.get(key).Allow()
}

func (l *ClientLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if v, found := l.limiters.Get(key); found {
		lim := v.(*rate.Limiter)
		// Refresh the idle expiry.
		l.limiters.SetDefault(key, lim)
		return lim
	}

	lim := rate.NewLimiter(l.limit, l.burst)
	l.limiters.SetDefault(key, lim)
	return lim
}
