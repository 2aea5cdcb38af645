package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
)

const (
	CodeBadRequest              = "BAD_REQUEST"
	CodeNotFound                = "NOT_FOUND"
	CodeRoomAlreadyReserved     = "ROOM_ALREADY_RESERVED"
	CodeDuplicateBooking        = "DUPLICATE_BOOKING"
	CodeInvalidBookingStatus    = "INVALID_BOOKING_STATUS"
	CodeInvalidStatusTransition = "INVALID_STATUS_TRANSITION"
	CodeInvalidOperation        = "INVALID_OPERATION"
	CodePaymentNotFound         = "PAYMENT_NOT_FOUND"
	CodePaymentMismatch         = "PAYMENT_MISMATCH"
	CodeInternal                = "INTERNAL_SERVER_ERROR"

	CodeUnauthorized         = "UNAUTHORIZED"
	CodeForbidden            = "FORBIDDEN"
	CodeTimeout              = "TIMEOUT"
	CodeUnavailable          = "SERVICE_UNAVAILABLE"
	CodeTooManyRequests      = "TOO_MANY_REQUESTS"
	CodeUnsupportedMediaType = "UNSUPPORTED_MEDIA_TYPE"
	CodePayloadTooLarge      = "PAYLOAD_TOO_LARGE"
)

type AppError struct {
	Code       string         `json:"error"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) StatusCode() int {
	return e.HTTPStatus
}

// Is matches on Code so callers can compare against the constructors below.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func (e *AppError) ToJSON() []byte {
	data, _ := json.Marshal(newErrorResponse(e))
	return data
}

// ErrorResponse is the envelope every failed request receives.
type ErrorResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Error   string         `json:"error"`
	Details map[string]any `json:"details,omitempty"`
}

func newErrorResponse(e *AppError) ErrorResponse {
	return ErrorResponse{
		Success: false,
		Message: e.Message,
		Error:   e.Code,
		Details: e.Details,
	}
}

func New(code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

func Wrap(err error, code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

func BadRequest(message string) *AppError {
	return &AppError{
		Code:       CodeBadRequest,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// Validation reports field level failures. It shares the BAD_REQUEST kind
// because every validation failure is client fixable input.
func Validation(message string, details map[string]any) *AppError {
	return &AppError{
		Code:       CodeBadRequest,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

func NotFound(resource string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
	}
}

func NotFoundWithID(resource, id string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details: map[string]any{
			"resource": resource,
			"id":       id,
		},
	}
}

func RoomAlreadyReserved(message string) *AppError {
	return &AppError{
		Code:       CodeRoomAlreadyReserved,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

func DuplicateBooking(message string) *AppError {
	return &AppError{
		Code:       CodeDuplicateBooking,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

func InvalidBookingStatus(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidBookingStatus,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

func InvalidStatusTransition(from, to string) *AppError {
	return &AppError{
		Code:       CodeInvalidStatusTransition,
		Message:    fmt.Sprintf("cannot transition payment from %s to %s", from, to),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"from": from,
			"to":   to,
		},
	}
}

func InvalidOperation(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidOperation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

func PaymentNotFound() *AppError {
	return &AppError{
		Code:       CodePaymentNotFound,
		Message:    "payment not found",
		HTTPStatus: http.StatusNotFound,
	}
}

func PaymentMismatch(expected, received string) *AppError {
	return &AppError{
		Code:       CodePaymentMismatch,
		Message:    "payment amount does not match",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"expected": expected,
			"received": received,
		},
	}
}

func Unauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func Timeout(message string) *AppError {
	return &AppError{
		Code:       CodeTimeout,
		Message:    message,
		HTTPStatus: http.StatusGatewayTimeout,
	}
}

func Unavailable(service string) *AppError {
	return &AppError{
		Code:       CodeUnavailable,
		Message:    fmt.Sprintf("%s is temporarily unavailable", service),
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

func TooManyRequests(message string) *AppError {
	return &AppError{
		Code:       CodeTooManyRequests,
		Message:    message,
		HTTPStatus: http.StatusTooManyRequests,
	}
}

func UnsupportedMediaType(message string) *AppError {
	return &AppError{
		Code:       CodeUnsupportedMediaType,
		Message:    message,
		HTTPStatus: http.StatusUnsupportedMediaType,
	}
}

func PayloadTooLarge(limit int64) *AppError {
	return &AppError{
		Code:       CodePayloadTooLarge,
		Message:    fmt.Sprintf("request body exceeds %d bytes", limit),
		HTTPStatus: http.StatusRequestEntityTooLarge,
	}
}

func IsAppError(err error) bool {
	var appErr *AppError
	return As(err, &appErr)
}

// HasCode reports whether err is, or wraps, an AppError of the given kind.
func HasCode(err error, code string) bool {
	var appErr *AppError
	if !As(err, &appErr) {
		return false
	}
	return appErr.Code == code
}

func AsAppError(err error) *AppError {
	var appErr *AppError
	if As(err, &appErr) {
		return appErr
	}
	return Internal("An unexpected error occurred", err)
}

// IsClientError reports whether err maps to a 4xx response.
func IsClientError(err error) bool {
	var appErr *AppError
	if !As(err, &appErr) {
		return false
	}
	return appErr.HTTPStatus >= 400 && appErr.HTTPStatus < 500
}
