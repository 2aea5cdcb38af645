package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	apperrors "hotelbooking/pkg/errors"
)

// timeoutWriter drops writes from the handler once the deadline has passed.
type timeoutWriter struct {
	http.ResponseWriter
	h        http.Header
	mu       sync.Mutex
	timedOut bool
	written  bool
}

// Header is private to the handler until its first write, so a late handler
// never touches the headers of the timeout response.
func (tw *timeoutWriter) Header() http.Header {
	return tw.h
}

func (tw *timeoutWriter) flushHeader(code int) {
	dst := tw.ResponseWriter.Header()
	for k, v := range tw.h {
		dst[k] = v
	}
	tw.written = true
	tw.ResponseWriter.WriteHeader(code)
}

func (tw *timeoutWriter) WriteHeader(code int) {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.timedOut || tw.written {
		return
	}
	tw.flushHeader(code)
}

func (tw *timeoutWriter) Write(b []byte) (int, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.timedOut {
		return 0, http.ErrHandlerTimeout
	}
	if !tw.written {
		tw.flushHeader(http.StatusOK)
	}
	return tw.ResponseWriter.Write(b)
}

func RequestTimeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			r = r.WithContext(ctx)

			tw := &timeoutWriter{ResponseWriter: w, h: make(http.Header)}

			done := make(chan struct{})
			panicked := make(chan any, 1)
			go func() {
				defer func() {
					if p := recover(); p != nil {
						panicked <- p
					}
				}()
				next.ServeHTTP(tw, r)
				close(done)
			}()

			select {
			case <-done:
			case p := <-panicked:
				panic(p)
			case <-ctx.Done():
				tw.mu.Lock()
				defer tw.mu.Unlock()
				tw.timedOut = true
				if !tw.written {
					tw.written = true
					apperrors.WriteError(w, apperrors.Timeout("Request timed out"))
				}
			}
		})
	}
}
