package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	apperrors "hotelbooking/pkg/errors"
	"hotelbooking/pkg/logger"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Recovery turns a handler panic into a 500 envelope and marks the
// request span as failed. http.ErrAbortHandler is re-raised untouched.
func Recovery(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				handlePanic(w, r, log, rec)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

func handlePanic(w http.ResponseWriter, r *http.Request, log *logger.Logger, rec any) {
	err, ok := rec.(error)
	if !ok {
		err = fmt.Errorf("%v", rec)
	}
	err = fmt.Errorf("panic: %w", err)

	span := trace.SpanFromContext(r.Context())
	span.RecordError(err)
	span.SetStatus(codes.Error, "panic")

	log.Error("Panic recovered",
		"request_id", RequestIDFromContext(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
		"stack", string(debug.Stack()),
	)

	apperrors.WriteError(w, apperrors.Internal("Internal server error", err))
}
