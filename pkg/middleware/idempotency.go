package middleware

import (
	"bytes"
	"net/http"
	"sync"
	"time"

	"hotelbooking/pkg/clock"
	apperrors "hotelbooking/pkg/errors"
)

const (
	IdempotencyKeyHeader     = "Idempotency-Key"
	IdempotentReplayedHeader = "Idempotent-Replayed"
	idempotencyCleanupEvery  = 10 * time.Minute
	maxIdempotencyKeyLength  = 255
)

// IdempotencyStore remembers the outcome of keyed requests.
type IdempotencyStore interface {
	// Begin returns the cached response for key, or reserves key for the
	// caller. busy is true while another request holds the reservation.
	Begin(key string) (cached *CachedResponse, busy bool)
	// Finish stores response under a reserved key. A nil response releases
	// the reservation so the key can be retried.
	Finish(key string, response *CachedResponse)
	Stop()
}

type CachedResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

type idempotencyEntry struct {
	response  *CachedResponse // nil while the first request is in flight
	expiresAt time.Time
}

type InMemoryIdempotencyStore struct {
	mu       sync.Mutex
	entries  map[string]*idempotencyEntry
	ttl      time.Duration
	clock    clock.Clock
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewInMemoryIdempotencyStore(ttl time.Duration) *InMemoryIdempotencyStore {
	return NewInMemoryIdempotencyStoreWithClock(ttl, clock.NewSystem())
}

func NewInMemoryIdempotencyStoreWithClock(ttl time.Duration, clk clock.Clock) *InMemoryIdempotencyStore {
	store := &InMemoryIdempotencyStore{
		entries: make(map[string]*idempotencyEntry),
		ttl:     ttl,
		clock:   clk,
		stopCh:  make(chan struct{}),
	}

	go store.cleanupLoop()

	return store
}

func (s *InMemoryIdempotencyStore) Begin(key string) (*CachedResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	if entry, ok := s.entries[key]; ok && now.Before(entry.expiresAt) {
		if entry.response == nil {
			return nil, true
		}
		return entry.response, false
	}

	s.entries[key] = &idempotencyEntry{expiresAt: now.Add(s.ttl)}
	return nil, false
}

func (s *InMemoryIdempotencyStore) Finish(key string, response *CachedResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if response == nil {
		delete(s.entries, key)
		return
	}
	s.entries[key] = &idempotencyEntry{
		response:  response,
		expiresAt: s.clock.Now().Add(s.ttl),
	}
}

// Sweep drops expired entries and returns how many were removed.
func (s *InMemoryIdempotencyStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	removed := 0
	for key, entry := range s.entries {
		if !now.Before(entry.expiresAt) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

func (s *InMemoryIdempotencyStore) cleanupLoop() {
	ticker := time.NewTicker(idempotencyCleanupEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.stopCh:
			return
		}
	}
}

func (s *InMemoryIdempotencyStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

type responseCapture struct {
	http.ResponseWriter
	statusCode int
	body       bytes.Buffer
}

func (rc *responseCapture) WriteHeader(statusCode int) {
	rc.statusCode = statusCode
	rc.ResponseWriter.WriteHeader(statusCode)
}

func (rc *responseCapture) Write(b []byte) (int, error) {
	rc.body.Write(b)
	return rc.ResponseWriter.Write(b)
}

// Idempotency replays the first 2xx response to a POST carrying an
// Idempotency-Key. Keys are scoped to the client (see ClientIdentity) and
// the route, so two clients picking the same key never see each other's
// responses. A retry that arrives while the original is still running gets
// a 409.
func Idempotency(store IdempotencyStore, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(IdempotencyKeyHeader)
			if r.Method != http.MethodPost || key == "" || len(key) > maxIdempotencyKeyLength {
				next.ServeHTTP(w, r)
				return
			}
			scoped := ClientIdentity(r, trustProxy) + "|" + r.URL.Path + "|" + key

			cached, busy := store.Begin(scoped)
			switch {
			case busy:
				apperrors.WriteError(w, apperrors.New("IDEMPOTENCY_KEY_IN_USE",
					"A request with this Idempotency-Key is still being processed", http.StatusConflict))
				return
			case cached != nil:
				replayCachedResponse(w, cached)
				return
			}

			capture := &responseCapture{ResponseWriter: w, statusCode: http.StatusOK}
			var stored bool
			defer func() {
				if !stored {
					store.Finish(scoped, nil)
				}
			}()

			next.ServeHTTP(capture, r)

			if capture.statusCode >= 200 && capture.statusCode < 300 {
				store.Finish(scoped, &CachedResponse{
					StatusCode: capture.statusCode,
					Headers:    w.Header().Clone(),
					Body:       capture.body.Bytes(),
				})
				stored = true
			}
		})
	}
}

func replayCachedResponse(w http.ResponseWriter, cached *CachedResponse) {
	for key, values := range cached.Headers {
		if key == RequestIDHeader {
			continue
		}
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	w.Header().Set(IdempotentReplayedHeader, "true")
	w.WriteHeader(cached.StatusCode)
	_, _ = w.Write(cached.Body)
}
