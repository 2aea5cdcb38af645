package errors

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
)

var exposeCauses atomic.Bool

// ExposeInternalCauses toggles whether 5xx responses carry the wrapped cause.
// It is meant for development environments only.
func ExposeInternalCauses(enabled bool) {
	exposeCauses.Store(enabled)
}

func WriteError(w http.ResponseWriter, err error) {
	appErr := AsAppError(err)
	response := newErrorResponse(appErr)

	if appErr.HTTPStatus >= http.StatusInternalServerError {
		if exposeCauses.Load() && appErr.Err != nil {
			details := make(map[string]any, len(appErr.Details)+1)
			for k, v := range appErr.Details {
				details[k] = v
			}
			details["cause"] = appErr.Err.Error()
			response.Details = details
		} else if appErr.Code == CodeInternal {
			response.Message = "Internal server error"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode())

	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Default().Error("failed to encode error response", "error", err)
	}
}
