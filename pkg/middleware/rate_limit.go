package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	apperrors "hotelbooking/pkg/errors"
	"hotelbooking/pkg/logger"
)

const ClientIDHeader = "X-Client-ID"

// ClientIdentity picks the key a request is rate limited under. By default
// that is the remote IP. With trustProxy the X-Client-ID header wins, then
// the first X-Forwarded-For hop; both are caller-controlled, so only a proxy
// that rewrites them makes them safe to honour.
func ClientIdentity(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if id := strings.TrimSpace(r.Header.Get(ClientIDHeader)); id != "" {
			return "client:" + id
		}
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if first = strings.TrimSpace(first); first != "" {
				return "ip:" + first
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

// ClientRateLimiter is a sliding-window limiter: at most limit requests per
// identity in any window-long interval.
type ClientRateLimiter struct {
	mu         sync.Mutex
	requests   map[string][]time.Time
	limit      int
	window     time.Duration
	trustProxy bool
	now        func() time.Time
	log        *logger.Logger
	stopCh     chan struct{}
	stopOnce   sync.Once
}

func NewClientRateLimiter(limit int, window time.Duration, trustProxy bool, log *logger.Logger) *ClientRateLimiter {
	limiter := &ClientRateLimiter{
		requests:   make(map[string][]time.Time),
		limit:      limit,
		window:     window,
		trustProxy: trustProxy,
		now:        time.Now,
		log:        log,
		stopCh:     make(chan struct{}),
	}

	go limiter.cleanup()

	return limiter
}

func (rl *ClientRateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := rl.now()
			rl.mu.Lock()
			for id, timestamps := range rl.requests {
				if len(timestamps) == 0 || now.Sub(timestamps[len(timestamps)-1]) >= rl.window {
					delete(rl.requests, id)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *ClientRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// Allow records a request for id and reports whether it is within the limit.
// When it is not, the second result is how long until a slot frees up.
func (rl *ClientRateLimiter) Allow(id string) (bool, time.Duration) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	timestamps := rl.requests[id]
	valid := timestamps[:0]
	for _, ts := range timestamps {
		if now.Sub(ts) < rl.window {
			valid = append(valid, ts)
		}
	}

	if len(valid) >= rl.limit {
		rl.requests[id] = valid
		return false, rl.window - now.Sub(valid[0])
	}

	rl.requests[id] = append(valid, now)
	return true, 0
}

func RateLimit(limiter *ClientRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ClientIdentity(r, limiter.trustProxy)

			allowed, retryAfter := limiter.Allow(id)
			if !allowed {
				limiter.log.Warn("Rate limit exceeded",
					"request_id", RequestIDFromContext(r.Context()),
					"client", id,
					"path", r.URL.Path,
				)
				seconds := int(retryAfter.Round(time.Second) / time.Second)
				if seconds < 1 {
					seconds = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(seconds))
				apperrors.WriteError(w, apperrors.TooManyRequests("Rate limit exceeded, try again later"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
