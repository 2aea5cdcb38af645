package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// HttpClient is a thin JSON client for the booking API.
type HttpClient struct {
	BaseURL string
	client  *resty.Client
}

func NewHttpClient(baseURL string) *HttpClient {
	return &HttpClient{
		BaseURL: baseURL,
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(10 * time.Second).
			SetHeader("Accept", "application/json"),
	}
}

type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (r *Response) DecodeJSON(target any) error {
	return json.Unmarshal(r.Body, target)
}

// DecodeData unwraps the {"success":true,"data":...} envelope into target.
func (r *Response) DecodeData(target any) error {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(r.Body, &wrapper); err != nil {
		return fmt.Errorf("could not decode response envelope: %w: %s", err, r.String())
	}
	if len(wrapper.Data) == 0 {
		return fmt.Errorf("response has no data: %s", r.String())
	}
	return json.Unmarshal(wrapper.Data, target)
}

func (r *Response) String() string {
	return fmt.Sprintf("status=%d body=%s", r.StatusCode, string(r.Body))
}

func (c *HttpClient) GET(path string) (*Response, error) {
	return c.do(http.MethodGet, path, nil, nil)
}

func (c *HttpClient) POST(path string, body any) (*Response, error) {
	return c.do(http.MethodPost, path, body, nil)
}

func (c *HttpClient) PUT(path string, body any, headers map[string]string) (*Response, error) {
	return c.do(http.MethodPut, path, body, headers)
}

func (c *HttpClient) DELETE(path string, headers map[string]string) (*Response, error) {
	return c.do(http.MethodDelete, path, nil, headers)
}

func (c *HttpClient) POSTWithHeaders(path string, body any, headers map[string]string) (*Response, error) {
	return c.do(http.MethodPost, path, body, headers)
}

// POSTRaw sends rawBody untouched, for signature checks and malformed input.
func (c *HttpClient) POSTRaw(path string, rawBody []byte, headers map[string]string) (*Response, error) {
	return c.do(http.MethodPost, path, rawBody, headers)
}

func (c *HttpClient) do(method, path string, body any, headers map[string]string) (*Response, error) {
	req := c.client.R().
		SetContext(context.Background()).
		SetHeaders(headers)

	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode(),
		Header:     resp.Header(),
		Body:       resp.Body(),
	}, nil
}

// WaitForHealthy polls /health until it answers 200 or maxWait passes.
func (c *HttpClient) WaitForHealthy(maxWait time.Duration) error {
	deadline := time.Now().Add(maxWait)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		resp, err := c.GET("/health")
		if err == nil && resp.StatusCode == http.StatusOK {
			return nil
		}
		<-ticker.C
	}

	return fmt.Errorf("service did not become healthy within %v", maxWait)
}

// ErrorBody is the error envelope returned by every failed request.
type ErrorBody struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Error   string         `json:"error"`
	Details map[string]any `json:"details"`
}

func DecodeError(resp *Response) (*ErrorBody, error) {
	var body ErrorBody
	if err := resp.DecodeJSON(&body); err != nil {
		return nil, fmt.Errorf("could not decode error body: %w: %s", err, resp.String())
	}
	return &body, nil
}

// GetErrorMessage returns the human readable part of an error response.
func GetErrorMessage(resp *Response) string {
	body, err := DecodeError(resp)
	if err != nil {
		return err.Error()
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}
