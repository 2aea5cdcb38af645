package handler

import (
	"context"
	"net/http"

	httputil "hotelbooking/pkg/http"
	"hotelbooking/pkg/logger"
	"hotelbooking/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BookingService interface {
	CreateBooking(ctx context.Context, req *model.CreateBookingRequest) (*model.BookingResult, error)
	GetBooking(ctx context.Context, id string) (*model.BookingDetails, error)
}

type BookingHandler struct {
	service BookingService
	log     *logger.Logger
}

func NewBookingHandler(service BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/bookings", h.Create)
	router.GET("/bookings/:id", h.GetByID)
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.CreateBookingRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.CreateBooking(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := httputil.WriteCreated(w, result); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	details, err := h.service.GetBooking(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := httputil.WriteSuccess(w, details); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}
