package middleware

import (
	"errors"
	"net/http"
	"strings"

	"hotelbooking/pkg/auth"
	apperrors "hotelbooking/pkg/errors"
	"hotelbooking/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

// AdminOnly guards a route with a bearer token carrying the admin role.
// A nil verifier means no admin secret is configured and the route is
// closed.
func AdminOnly(verifier *auth.Verifier, log *logger.Logger, next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if verifier == nil {
			apperrors.WriteError(w, apperrors.Forbidden("Admin endpoints are disabled"))
			return
		}

		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			apperrors.WriteError(w, apperrors.Unauthorized("Missing bearer token"))
			return
		}

		claims, err := verifier.RequireAdmin(strings.TrimSpace(token))
		switch {
		case errors.Is(err, auth.ErrNotAdmin):
			log.Warn("Non-admin token on admin route",
				"request_id", RequestIDFromContext(r.Context()),
				"subject", claims.Subject,
				"path", r.URL.Path,
			)
			apperrors.WriteError(w, apperrors.Forbidden("Admin role required"))
			return
		case err != nil:
			apperrors.WriteError(w, apperrors.Unauthorized("Invalid or expired token"))
			return
		}

		log.Info("Admin request",
			"request_id", RequestIDFromContext(r.Context()),
			"subject", claims.Subject,
			"method", r.Method,
			"path", r.URL.Path,
		)
		next(w, r, ps)
	}
}
