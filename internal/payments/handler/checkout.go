package handler

import (
	"net/http"
	"strings"

	apperrors "hotelbooking/pkg/errors"
	httputil "hotelbooking/pkg/http"
	"hotelbooking/pkg/model"

	"github.com/julienschmidt/httprouter"
)

// CheckoutTokens is implemented by gateway.MockGateway.
type CheckoutTokens interface {
	ParseCheckoutToken(token string) (bookingID, paymentID, reference string, err error)
}

type CheckoutSession struct {
	Provider  string `json:"provider"`
	BookingID string `json:"booking_id"`
	PaymentID string `json:"payment_id"`
	Reference string `json:"provider_reference"`
	Amount    string `json:"amount,omitempty"`
	Currency  string `json:"currency,omitempty"`
	Complete  string `json:"complete"`
}

type completeCheckoutRequest struct {
	Token  string `json:"token"`
	Status string `json:"status"`
}

// CheckoutPage describes the pending checkout behind a mock payment link.
func (h *PaymentHandler) CheckoutPage(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	provider := ps.ByName("provider")
	q := r.URL.Query()

	bookingID, paymentID, reference, err := h.opts.Checkout.ParseCheckoutToken(q.Get("token"))
	if err != nil {
		httputil.WriteError(w, apperrors.BadRequest("Invalid or tampered checkout token"))
		return
	}

	session := CheckoutSession{
		Provider:  provider,
		BookingID: bookingID,
		PaymentID: paymentID,
		Reference: reference,
		Amount:    q.Get("amount"),
		Currency:  q.Get("currency"),
		Complete:  "POST /checkout/" + provider + ` {"token": "...", "status": "success" | "failed"}`,
	}
	if err := httputil.WriteSuccess(w, session); err != nil {
		h.log.Error("failed to write success response", "handler", "CheckoutPage", "operation", "WriteSuccess", "error", err)
	}
}

// CompleteCheckout plays the provider's part: it turns the guest's decision
// on the checkout page into a payment callback.
func (h *PaymentHandler) CompleteCheckout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req completeCheckoutRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	bookingID, _, reference, err := h.opts.Checkout.ParseCheckoutToken(req.Token)
	if err != nil {
		httputil.WriteError(w, apperrors.BadRequest("Invalid or tampered checkout token"))
		return
	}

	status := strings.TrimSpace(req.Status)
	if status == "" {
		status = "success"
	}

	result, err := h.service.HandlePaymentCallback(r.Context(), &model.PaymentCallbackRequest{
		Status:            status,
		ProviderReference: reference,
		BookingID:         bookingID,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "CompleteCheckout", "operation", "WriteSuccess", "error", err)
	}
}
