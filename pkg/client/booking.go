package client

import (
	"net/url"

	"hotelbooking/pkg/model"
)

type BookingClient struct {
	httpClient *HttpClient
}

func NewBookingClient(baseUrl string) *BookingClient {
	return &BookingClient{
		httpClient: NewHttpClient(baseUrl),
	}
}

func (c *BookingClient) Create(body any) (*Response, error) {
	return c.httpClient.POST("/bookings", body)
}

// CreateWithKey sends an Idempotency-Key so a retried request replays the first response.
func (c *BookingClient) CreateWithKey(body any, key string) (*Response, error) {
	return c.httpClient.POSTWithHeaders("/bookings", body, map[string]string{"Idempotency-Key": key})
}

func (c *BookingClient) CreateRaw(rawBody []byte) (*Response, error) {
	return c.httpClient.POSTRaw("/bookings", rawBody, nil)
}

func (c *BookingClient) GetByID(id string) (*Response, error) {
	return c.httpClient.GET("/bookings/" + url.PathEscape(id))
}

func (c *BookingClient) DecodeBookingResult(resp *Response) (*model.BookingResult, error) {
	var result model.BookingResult
	if err := resp.DecodeData(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *BookingClient) DecodeBookingDetails(resp *Response) (*model.BookingDetails, error) {
	details := &model.BookingDetails{Booking: &model.Booking{}}
	if err := resp.DecodeData(details); err != nil {
		return nil, err
	}
	return details, nil
}
