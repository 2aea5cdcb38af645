package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"hotelbooking/internal/payments/gateway"
	"hotelbooking/pkg/auth"
	apperrors "hotelbooking/pkg/errors"
	"hotelbooking/pkg/logger"
	"hotelbooking/pkg/middleware"
	"hotelbooking/pkg/model"
	"hotelbooking/pkg/sealer"

	"github.com/julienschmidt/httprouter"
	"github.com/shopspring/decimal"
)

type mockPaymentService struct {
	initiateFunc func(ctx context.Context, req *model.InitiatePaymentRequest) (*model.PaymentResult, error)
	callbackFunc func(ctx context.Context, req *model.PaymentCallbackRequest) (*model.CallbackResult, error)
	updateFunc   func(ctx context.Context, id string, update *model.PaymentUpdate) (*model.Payment, error)
	deleted      []string
}

func (m *mockPaymentService) InitiatePayment(ctx context.Context, req *model.InitiatePaymentRequest) (*model.PaymentResult, error) {
	if m.initiateFunc != nil {
		return m.initiateFunc(ctx, req)
	}
	return &model.PaymentResult{}, nil
}

func (m *mockPaymentService) HandlePaymentCallback(ctx context.Context, req *model.PaymentCallbackRequest) (*model.CallbackResult, error) {
	if m.callbackFunc != nil {
		return m.callbackFunc(ctx, req)
	}
	return &model.CallbackResult{}, nil
}

func (m *mockPaymentService) GetPayment(ctx context.Context, id string) (*model.PaymentDetails, error) {
	return nil, apperrors.PaymentNotFound()
}

func (m *mockPaymentService) UpdatePayment(ctx context.Context, id string, update *model.PaymentUpdate) (*model.Payment, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, update)
	}
	return &model.Payment{ID: id, Status: update.Status}, nil
}

func (m *mockPaymentService) DeletePayment(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func newRouter(service PaymentService, opts Options) *httprouter.Router {
	router := httprouter.New()
	NewPaymentHandler(service, opts, logger.Nop()).RegisterRoutes(router)
	return router
}

func serve(router http.Handler, method, target string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode error body %q: %v", rec.Body.String(), err)
	}
	return body.Error
}

func TestInitiate_InvalidBody(t *testing.T) {
	called := false
	service := &mockPaymentService{
		initiateFunc: func(context.Context, *model.InitiatePaymentRequest) (*model.PaymentResult, error) {
			called = true
			return nil, nil
		},
	}
	router := newRouter(service, Options{})

	rec := serve(router, http.MethodPost, "/payments/initiate", []byte(`{"bookingId":`), nil)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if called {
		t.Error("service must not be called for an undecodable body")
	}
}

func TestCallback_Signature(t *testing.T) {
	const secret = "callback-secret"
	service := &mockPaymentService{
		callbackFunc: func(_ context.Context, req *model.PaymentCallbackRequest) (*model.CallbackResult, error) {
			return &model.CallbackResult{AlreadyProcessed: req.ProviderReference == "CHAPPA-done"}, nil
		},
	}
	router := newRouter(service, Options{CallbackSecret: secret})

	fresh := []byte(`{"status":"success","provider_reference":"CHAPPA-new"}`)
	replay := []byte(`{"status":"success","provider_reference":"CHAPPA-done"}`)

	tests := []struct {
		name        string
		body        []byte
		signature   string
		wantCode    int
		wantMessage string
	}{
		{
			name:     "missing signature",
			body:     fresh,
			wantCode: http.StatusUnauthorized,
		},
		{
			name:      "signature over a different body",
			body:      fresh,
			signature: middleware.SignPayload(secret, replay),
			wantCode:  http.StatusUnauthorized,
		},
		{
			name:        "valid signature",
			body:        fresh,
			signature:   middleware.SignPayload(secret, fresh),
			wantCode:    http.StatusOK,
			wantMessage: "Payment callback processed",
		},
		{
			name:        "replayed callback",
			body:        replay,
			signature:   middleware.SignPayload(secret, replay),
			wantCode:    http.StatusOK,
			wantMessage: "Payment already processed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := map[string]string{}
			if tt.signature != "" {
				headers[middleware.SignatureHeader] = tt.signature
			}
			rec := serve(router, http.MethodPost, "/payments/callback", tt.body, headers)

			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, rec.Code, rec.Body.String())
			}
			if tt.wantMessage == "" {
				return
			}
			var body struct {
				Message string `json:"message"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body.Message != tt.wantMessage {
				t.Errorf("message = %q, want %q", body.Message, tt.wantMessage)
			}
		})
	}
}

func TestCallback_PropagatesServiceErrors(t *testing.T) {
	service := &mockPaymentService{
		callbackFunc: func(context.Context, *model.PaymentCallbackRequest) (*model.CallbackResult, error) {
			return nil, apperrors.PaymentMismatch("3600", "100")
		},
	}
	router := newRouter(service, Options{})

	rec := serve(router, http.MethodPost, "/payments/callback", []byte(`{"status":"success","bookingId":"b1","amount":"100"}`), nil)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if code := errorCode(t, rec); code != apperrors.CodePaymentMismatch {
		t.Errorf("error code = %q", code)
	}
}

func TestAdminRoutes(t *testing.T) {
	verifier := auth.NewVerifier("admin-secret")
	adminToken, err := verifier.Issue("ops@hotel", auth.RoleAdmin, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	guestToken, err := verifier.Issue("guest@hotel", "guest", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	update := []byte(`{"status":"failed"}`)

	tests := []struct {
		name     string
		verifier *auth.Verifier
		method   string
		token    string
		wantCode int
	}{
		{"disabled without verifier", nil, http.MethodPut, adminToken, http.StatusForbidden},
		{"missing token", verifier, http.MethodPut, "", http.StatusUnauthorized},
		{"garbage token", verifier, http.MethodPut, "not-a-jwt", http.StatusUnauthorized},
		{"non-admin token", verifier, http.MethodPut, guestToken, http.StatusForbidden},
		{"admin update", verifier, http.MethodPut, adminToken, http.StatusOK},
		{"admin delete", verifier, http.MethodDelete, adminToken, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &mockPaymentService{}
			router := newRouter(service, Options{Verifier: tt.verifier})

			headers := map[string]string{}
			if tt.token != "" {
				headers["Authorization"] = "Bearer " + tt.token
			}
			rec := serve(router, tt.method, "/payments/p1", update, headers)

			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, rec.Code, rec.Body.String())
			}
			if tt.method == http.MethodDelete && (len(service.deleted) != 1 || service.deleted[0] != "p1") {
				t.Errorf("deleted = %v", service.deleted)
			}
		})
	}
}

func TestCheckout_MockGateway(t *testing.T) {
	tokens, err := sealer.New("checkout-key")
	if err != nil {
		t.Fatal(err)
	}
	mock := gateway.NewMockGateway("http://localhost:8080", tokens)

	checkout, err := mock.Checkout(context.Background(), gateway.CheckoutRequest{
		BookingID: "b1",
		PaymentID: "p1",
		Reference: "EBIRR-abc",
		Provider:  model.ProviderEbirr,
		Amount:    decimal.NewFromInt(3600),
		Currency:  model.DefaultCurrency,
	})
	if err != nil {
		t.Fatal(err)
	}
	link, err := url.Parse(checkout.PaymentURL)
	if err != nil {
		t.Fatal(err)
	}

	var received *model.PaymentCallbackRequest
	service := &mockPaymentService{
		callbackFunc: func(_ context.Context, req *model.PaymentCallbackRequest) (*model.CallbackResult, error) {
			received = req
			return &model.CallbackResult{}, nil
		},
	}
	router := newRouter(service, Options{Checkout: mock})

	t.Run("page describes the sealed session", func(t *testing.T) {
		rec := serve(router, http.MethodGet, link.RequestURI(), nil, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var body struct {
			Data CheckoutSession `json:"data"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatal(err)
		}
		if body.Data.BookingID != "b1" || body.Data.Reference != "EBIRR-abc" || body.Data.Amount != "3600.00" {
			t.Errorf("unexpected session: %+v", body.Data)
		}
	})

	t.Run("tampered token", func(t *testing.T) {
		token := link.Query().Get("token")
		rec := serve(router, http.MethodGet, "/checkout/ebirr?token="+url.QueryEscape(strings.ToUpper(token)), nil, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("completion becomes a callback", func(t *testing.T) {
		payload, _ := json.Marshal(map[string]string{
			"token":  link.Query().Get("token"),
			"status": "failed",
		})
		rec := serve(router, http.MethodPost, "/checkout/ebirr", payload, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if received == nil {
			t.Fatal("service was not called")
		}
		if received.BookingID != "b1" || received.ProviderReference != "EBIRR-abc" || received.Status != "failed" {
			t.Errorf("unexpected callback: %+v", received)
		}
	})
}

func TestCheckout_NotRegisteredWithoutTokens(t *testing.T) {
	router := newRouter(&mockPaymentService{}, Options{})

	rec := serve(router, http.MethodGet, "/checkout/telebirr?token=x", nil, nil)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
