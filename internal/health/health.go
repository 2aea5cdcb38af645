package health

import (
	"context"
	"net/http"
	"time"

	httputil "hotelbooking/pkg/http"
	"hotelbooking/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

// Pinger reports whether the backing store can serve requests.
type Pinger interface {
	Ping(ctx context.Context) error
}

type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

type Response struct {
	Status   string `json:"status"`
	Storage  string `json:"storage,omitempty"`
	Database string `json:"database,omitempty"`
}

type Handler struct {
	db      Pinger
	storage string
	timeout time.Duration
	log     *logger.Logger
}

// NewHandler reports readiness of db, labelled with the storage driver in use.
func NewHandler(db Pinger, storage string, log *logger.Logger) *Handler {
	return &Handler{
		db:      db,
		storage: storage,
		timeout: 2 * time.Second,
		log:     log,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := httputil.WriteJSON(w, http.StatusOK, Response{
		Status: "ok",
	}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Health", "operation", "WriteJSON", "error", err)
	}
}

func (h *Handler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.log.Error("Database health check failed",
			"error", err,
			"storage", h.storage,
			"path", r.URL.Path,
		)
		if writeErr := httputil.WriteJSON(w, http.StatusServiceUnavailable, Response{
			Status:   "unavailable",
			Storage:  h.storage,
			Database: "error",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Ready", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteJSON(w, http.StatusOK, Response{
		Status:   "ready",
		Storage:  h.storage,
		Database: "ok",
	}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Ready", "operation", "WriteJSON", "error", err)
	}
}

func (h *Handler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}
