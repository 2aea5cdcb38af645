package gateway

import (
	"context"
	"fmt"
	"net/http"

	"hotelbooking/pkg/logger"

	"github.com/go-resty/resty/v2"
)

type providerError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// HTTPGateway posts checkout requests to a payment aggregator.
type HTTPGateway struct {
	client *resty.Client
	log    *logger.Logger
}

func NewHTTPGateway(cfg Config, log *logger.Logger) *HTTPGateway {
	client := resty.New().
		SetBaseURL(cfg.URL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}

	return &HTTPGateway{client: client, log: log.Component("payment_gateway")}
}

func (g *HTTPGateway) Checkout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	var (
		out     Checkout
		failure providerError
	)

	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("Idempotency-Key", req.Reference).
		SetBody(req).
		SetResult(&out).
		SetError(&failure).
		Post("/checkouts")
	if err != nil {
		return nil, fmt.Errorf("checkout request failed: %w", err)
	}

	if resp.IsError() {
		g.log.Warn("Provider rejected checkout",
			"status", resp.StatusCode(),
			"provider", req.Provider,
			"reference", req.Reference,
			"message", failure.Message,
		)
		return nil, fmt.Errorf("provider returned %d: %s", resp.StatusCode(), failure.Message)
	}
	if out.PaymentURL == "" {
		return nil, fmt.Errorf("provider response missing payment_url")
	}

	return &out, nil
}
