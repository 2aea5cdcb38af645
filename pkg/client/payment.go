package client

import (
	"encoding/json"
	"fmt"
	"net/url"

	"hotelbooking/pkg/model"
)

type PaymentClient struct {
	httpClient *HttpClient
}

func NewPaymentClient(baseUrl string) *PaymentClient {
	return &PaymentClient{
		httpClient: NewHttpClient(baseUrl),
	}
}

func (c *PaymentClient) Initiate(bookingID, provider string) (*Response, error) {
	return c.httpClient.POST("/payments/initiate", model.InitiatePaymentRequest{
		BookingID: bookingID,
		Provider:  provider,
	})
}

// Callback posts body as a provider would. signature may be empty.
func (c *PaymentClient) Callback(body any, signature string) (*Response, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal callback: %w", err)
	}
	var headers map[string]string
	if signature != "" {
		headers = map[string]string{"X-Signature": signature}
	}
	return c.httpClient.POSTRaw("/payments/callback", raw, headers)
}

func (c *PaymentClient) GetByID(id string) (*Response, error) {
	return c.httpClient.GET("/payments/" + url.PathEscape(id))
}

func (c *PaymentClient) Update(id string, update model.PaymentUpdate, token string) (*Response, error) {
	return c.httpClient.PUT("/payments/"+url.PathEscape(id), update, bearer(token))
}

func (c *PaymentClient) Delete(id string, token string) (*Response, error) {
	return c.httpClient.DELETE("/payments/"+url.PathEscape(id), bearer(token))
}

func (c *PaymentClient) DecodePaymentResult(resp *Response) (*model.PaymentResult, error) {
	var result model.PaymentResult
	if err := resp.DecodeData(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *PaymentClient) DecodeCallbackResult(resp *Response) (*model.CallbackResult, error) {
	var result model.CallbackResult
	if err := resp.DecodeData(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *PaymentClient) DecodePaymentDetails(resp *Response) (*model.PaymentDetails, error) {
	details := &model.PaymentDetails{Payment: &model.Payment{}}
	if err := resp.DecodeData(details); err != nil {
		return nil, err
	}
	return details, nil
}

// OpenCheckout follows the path and query of a mock-gateway payment_url
// against this client's base URL.
func (c *PaymentClient) OpenCheckout(paymentURL string) (*Response, error) {
	u, err := url.Parse(paymentURL)
	if err != nil {
		return nil, fmt.Errorf("invalid payment url: %w", err)
	}
	return c.httpClient.GET(u.RequestURI())
}

// CompleteCheckout submits the guest's decision on a mock checkout page.
func (c *PaymentClient) CompleteCheckout(provider, token, status string) (*Response, error) {
	return c.httpClient.POST("/checkout/"+url.PathEscape(provider), map[string]string{
		"token":  token,
		"status": status,
	})
}

func bearer(token string) map[string]string {
	if token == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + token}
}
