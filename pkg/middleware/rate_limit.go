package middleware

import (
	"net/http"
	apperrors "railbook/pkg/errors"
	"railbook/pkg/logger"
	"strconv"
	"sync"
	"time"
)

const RequesterHeader = "X-Requester-ID"

// RequesterRateLimiter is a sliding-window limiter keyed by requester id.
type RequesterRateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
	log      *logger.Logger
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewRequesterRateLimiter(limit int, window time.Duration, log *logger.Logger) *RequesterRateLimiter {
	limiter := &RequesterRateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		log:      log,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}

	go limiter.cleanup()

	return limiter
}

func (rl *RequesterRateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := rl.now()
			rl.mu.Lock()
			for requester, timestamps := range rl.requests {
				if len(timestamps) == 0 || now.Sub(timestamps[len(timestamps)-1]) > rl.window {
					delete(rl.requests, requester)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *RequesterRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Allow records a request for requester and reports whether it is within the
// limit. It returns how long to wait when it is not.
func (rl *RequesterRateLimiter) Allow(requester string) (bool, time.Duration) {
	if requester == "" {
		return true, 0
	}

	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	timestamps := rl.requests[requester]
	valid := timestamps[:0]
	for _, ts := range timestamps {
		if now.Sub(ts) < rl.window {
			valid = append(valid, ts)
		}
	}

	if len(valid) >= rl.limit {
		rl.requests[requester] = valid
		return false, rl.window - now.Sub(valid[0])
	}

	rl.requests[requester] = append(valid, now)
	return true, 0
}

// RequesterRateLimit throttles per X-Requester-ID. Requests without one pass
// through and are rejected by the handler.
func RequesterRateLimit(limiter *RequesterRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requester := r.Header.Get(RequesterHeader)

			allowed, retryAfter := limiter.Allow(requester)
			if !allowed {
				limiter.log.Warn("Rate limit exceeded",
					"request_id", requestIDFrom(r),
					"requester_id", requester,
					"path", r.URL.Path,
				)
				w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())+1))
				reject(w, limiter.log, apperrors.New("RATE_LIMITED", "rate limit exceeded", http.StatusTooManyRequests))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
