package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"hotelbooking/pkg/config"
	"hotelbooking/pkg/contracts"
	apperrors "hotelbooking/pkg/errors"
	"hotelbooking/pkg/middleware"

	"github.com/julienschmidt/httprouter"
)

type namedWorker struct {
	name string
	run  contracts.Worker
}

type Application struct {
	cfg              *config.Config
	server           *http.Server
	idempotencyStore *middleware.InMemoryIdempotencyStore
	rateLimiter      *middleware.ClientRateLimiter
	healthHandler    http.Handler
	appHttpHandler   http.Handler

	workers  []namedWorker
	closers  []func(context.Context) error
	cancel   context.CancelFunc
	workerWg sync.WaitGroup
}

func NewApplication() *Application {
	return &Application{}
}

// SetApp builds the HTTP surface. health gets only logging and recovery,
// every other handler sits behind the full middleware stack.
func (a *Application) SetApp(cfg *config.Config, health contracts.Handler, handlers ...contracts.Handler) {
	a.cfg = cfg
	if cfg.IsDevelopment() {
		apperrors.ExposeInternalCauses(true)
	}
	a.setHealthHandler(health)
	a.setAppHandler(handlers)
	a.setAppServer()
}

// AddWorker registers a loop started by Run and stopped on shutdown.
func (a *Application) AddWorker(name string, run contracts.Worker) {
	a.workers = append(a.workers, namedWorker{name: name, run: run})
}

// OnShutdown registers cleanup run after the server has drained, in
// reverse registration order.
func (a *Application) OnShutdown(fn func(context.Context) error) {
	a.closers = append(a.closers, fn)
}

// Handler returns the routed HTTP handler, for in-process servers.
func (a *Application) Handler() http.Handler {
	return a.server.Handler
}

func (a *Application) setHealthHandler(health contracts.Handler) {
	healthRouter := httprouter.New()
	health.RegisterRoutes(healthRouter)

	var healthHTTPHandler http.Handler = healthRouter
	healthHTTPHandler = middleware.RequestLogging(a.cfg.Log)(healthHTTPHandler)
	healthHTTPHandler = middleware.Recovery(a.cfg.Log)(healthHTTPHandler)
	a.healthHandler = healthHTTPHandler
	a.cfg.Log.Info("Health endpoints configured with minimal middleware (Recovery + Logging only)")
}

func (a *Application) setAppHandler(handlers []contracts.Handler) {
	appRouter := httprouter.New()
	for _, h := range handlers {
		h.RegisterRoutes(appRouter)
	}
	appRouter.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apperrors.WriteError(w, apperrors.NotFound("Route"))
	})

	a.idempotencyStore = middleware.NewInMemoryIdempotencyStore(a.cfg.IdempotencyTTL)
	a.rateLimiter = middleware.NewClientRateLimiter(
		a.cfg.RateLimitRequests,
		a.cfg.RateLimitWindow,
		a.cfg.TrustProxyHeaders,
		a.cfg.Log,
	)

	var appHttpHandler http.Handler = appRouter
	appHttpHandler = middleware.Idempotency(a.idempotencyStore, a.cfg.TrustProxyHeaders)(appHttpHandler)
	appHttpHandler = middleware.RequestTimeout(a.cfg.RequestTimeout)(appHttpHandler)
	appHttpHandler = middleware.RateLimit(a.rateLimiter)(appHttpHandler)
	appHttpHandler = middleware.ContentTypeValidation(a.cfg.Log)(appHttpHandler)
	appHttpHandler = middleware.MaxRequestSize(int64(a.cfg.MaxRequestSize))(appHttpHandler)
	appHttpHandler = middleware.RequestLogging(a.cfg.Log)(appHttpHandler)
	appHttpHandler = middleware.Recovery(a.cfg.Log)(appHttpHandler)
	a.appHttpHandler = appHttpHandler
	a.cfg.Log.Info("Application endpoints configured with full security middleware stack")
}

func (a *Application) setAppServer() {
	mux := http.NewServeMux()
	mux.Handle("/health", a.healthHandler)
	mux.Handle("/ready", a.healthHandler)
	mux.Handle("/", a.appHttpHandler)

	a.server = &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      mux,
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
		IdleTimeout:  a.cfg.IdleTimeout,
	}

	a.cfg.Log.Info("HTTP server configured", "port", a.cfg.Port)
}

func (a *Application) startWorkers() {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	for _, w := range a.workers {
		a.workerWg.Add(1)
		go func(w namedWorker) {
			defer a.workerWg.Done()
			a.cfg.Log.Info("Starting background worker", "worker", w.name)
			if err := w.run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.cfg.Log.Error("Background worker stopped with error", "worker", w.name, "error", err)
				return
			}
			a.cfg.Log.Info("Background worker stopped", "worker", w.name)
		}(w)
	}
}

func (a *Application) Run() {
	a.startWorkers()

	serverErrors := make(chan error, 1)

	go func() {
		a.cfg.Log.Info("Starting HTTP server", "address", a.server.Addr)
		serverErrors <- a.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		a.cfg.Log.Fatal("HTTP server failed", "error", err)

	case sig := <-shutdown:
		a.cfg.Log.Info("Shutdown signal received", "signal", sig)
		a.gracefulShutdown()
	}
}

func (a *Application) gracefulShutdown() {
	a.cfg.Log.Info("Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.cfg.Log.Error("Server shutdown failed", "error", err)
		if err := a.server.Close(); err != nil {
			a.cfg.Log.Fatal("Could not stop server gracefully", "error", err)
		}
	}

	a.cfg.Log.Info("Stopping background workers...")
	if a.cancel != nil {
		a.cancel()
	}
	a.workerWg.Wait()
	a.idempotencyStore.Stop()
	a.rateLimiter.Stop()
	a.cfg.Log.Info("Background workers stopped")

	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.cfg.Log.Error("Shutdown hook failed", "error", err)
		}
	}

	a.cfg.Log.Info("Server stopped gracefully")
}
