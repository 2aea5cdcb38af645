package middleware

import (
	"net/http"

	apperrors "hotelbooking/pkg/errors"
)

// MaxRequestSize rejects bodies declared larger than limit and caps the
// reader for the rest, so a chunked upload fails on decode instead.
func MaxRequestSize(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				apperrors.WriteError(w, apperrors.PayloadTooLarge(limit))
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
