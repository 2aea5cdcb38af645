package handler

import (
	"context"
	"net/http"

	"hotelbooking/pkg/auth"
	httputil "hotelbooking/pkg/http"
	"hotelbooking/pkg/logger"
	"hotelbooking/pkg/middleware"
	"hotelbooking/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type PaymentService interface {
	InitiatePayment(ctx context.Context, req *model.InitiatePaymentRequest) (*model.PaymentResult, error)
	HandlePaymentCallback(ctx context.Context, req *model.PaymentCallbackRequest) (*model.CallbackResult, error)
	GetPayment(ctx context.Context, id string) (*model.PaymentDetails, error)
	UpdatePayment(ctx context.Context, id string, update *model.PaymentUpdate) (*model.Payment, error)
	DeletePayment(ctx context.Context, id string) error
}

type Options struct {
	// Verifier guards PUT and DELETE. Nil closes those routes.
	Verifier *auth.Verifier
	// CallbackSecret enables X-Signature verification on provider callbacks.
	CallbackSecret string
	// Checkout serves the local checkout page of the mock gateway. Nil
	// leaves the page unregistered.
	Checkout CheckoutTokens
}

type PaymentHandler struct {
	service PaymentService
	opts    Options
	log     *logger.Logger
}

func NewPaymentHandler(service PaymentService, opts Options, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		opts:    opts,
		log:     log,
	}
}

func (h *PaymentHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/payments/initiate", h.Initiate)
	router.Handler(http.MethodPost, "/payments/callback",
		middleware.CallbackSignature(h.opts.CallbackSecret, h.log)(http.HandlerFunc(h.callback)))
	router.GET("/payments/:id", h.GetByID)
	router.PUT("/payments/:id", middleware.AdminOnly(h.opts.Verifier, h.log, h.Update))
	router.DELETE("/payments/:id", middleware.AdminOnly(h.opts.Verifier, h.log, h.Delete))

	if h.opts.Checkout != nil {
		router.GET("/checkout/:provider", h.CheckoutPage)
		router.POST("/checkout/:provider", h.CompleteCheckout)
	}
}

func (h *PaymentHandler) Initiate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.InitiatePaymentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.InitiatePayment(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "Initiate", "operation", "WriteSuccess", "error", err)
	}
}

func (h *PaymentHandler) callback(w http.ResponseWriter, r *http.Request) {
	h.Callback(w, r, nil)
}

func (h *PaymentHandler) Callback(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.PaymentCallbackRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.HandlePaymentCallback(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	message := "Payment callback processed"
	if result.AlreadyProcessed {
		message = "Payment already processed"
	}
	if err := httputil.WriteMessage(w, message, result); err != nil {
		h.log.Error("failed to write success response", "handler", "Callback", "operation", "WriteMessage", "error", err)
	}
}

func (h *PaymentHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	details, err := h.service.GetPayment(r.Context(), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := httputil.WriteSuccess(w, details); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *PaymentHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var update model.PaymentUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		httputil.WriteError(w, err)
		return
	}

	payment, err := h.service.UpdatePayment(r.Context(), ps.ByName("id"), &update)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := httputil.WriteSuccess(w, payment); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *PaymentHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.DeletePayment(r.Context(), ps.ByName("id")); err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteNoContent(w)
}
