package model

import "time"

const (
	ActionBookingCreated   = "BOOKING_CREATED"
	ActionPaymentInitiated = "PAYMENT_INITIATED"
	ActionPaymentSuccess   = "PAYMENT_SUCCESS"
	ActionPaymentFailed    = "PAYMENT_FAILED"
	ActionPaymentMismatch  = "PAYMENT_MISMATCH"
	ActionPaymentRejected  = "PAYMENT_REJECTED"
	ActionPaymentUpdated   = "PAYMENT_UPDATED"
	ActionBookingExpired   = "BOOKING_EXPIRED"
)

// PaymentLog is append-only. Entries are removed only together with their payment.
type PaymentLog struct {
	ID        string         `json:"id,omitempty" bson:"_id,omitempty"`
	PaymentID string         `json:"payment_id" bson:"payment_id"`
	BookingID string         `json:"booking_id" bson:"booking_id"`
	Action    string         `json:"action" bson:"action"`
	Details   map[string]any `json:"details,omitempty" bson:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at" bson:"created_at"`
}
