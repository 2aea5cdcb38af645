package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusSuccess   = "success"
	PaymentStatusFailed    = "failed"
	PaymentStatusCancelled = "cancelled"
)

const (
	ProviderTelebirr = "telebirr"
	ProviderChappa   = "chappa"
	ProviderEbirr    = "ebirr"
	ProviderKaafi    = "kaafi"

	// DefaultProvider is recorded on a payment until the guest picks one.
	DefaultProvider = ProviderTelebirr

	DefaultCurrency = "ETB"
)

var Providers = []string{ProviderTelebirr, ProviderChappa, ProviderEbirr, ProviderKaafi}

func IsKnownProvider(p string) bool {
	for _, known := range Providers {
		if p == known {
			return true
		}
	}
	return false
}

type Payment struct {
	ID                string          `json:"id,omitempty" bson:"_id,omitempty"`
	BookingID         string          `json:"booking_id" bson:"booking_id"`
	Amount            decimal.Decimal `json:"amount" bson:"amount"`
	Currency          string          `json:"currency" bson:"currency"`
	Provider          string          `json:"provider" bson:"provider"`
	ProviderReference string          `json:"provider_reference,omitempty" bson:"provider_reference,omitempty"`
	TransactionID     string          `json:"transaction_id,omitempty" bson:"transaction_id,omitempty"`
	Status            string          `json:"status" bson:"status"`
	ErrorMessage      string          `json:"error_message,omitempty" bson:"error_message,omitempty"`
	CreatedAt         time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" bson:"updated_at"`
}

type PaymentDetails struct {
	*Payment
	Logs []*PaymentLog `json:"logs"`
}

type InitiatePaymentRequest struct {
	BookingID string `json:"bookingId" validate:"required"`
	Provider  string `json:"provider" validate:"required,provider"`
}

type PaymentResult struct {
	Payment    *Payment `json:"payment"`
	PaymentURL string   `json:"payment_url"`
}

// PaymentCallbackRequest is what a provider posts back. Either
// ProviderReference or BookingID must identify the payment.
type PaymentCallbackRequest struct {
	Status            string           `json:"status" validate:"required"`
	ProviderReference string           `json:"provider_reference,omitempty"`
	BookingID         string           `json:"bookingId,omitempty"`
	TransactionID     string           `json:"transaction_id,omitempty"`
	Amount            *decimal.Decimal `json:"amount,omitempty"`
	ErrorMessage      string           `json:"error_message,omitempty"`
}

type CallbackResult struct {
	Payment          *Payment `json:"payment"`
	Booking          *Booking `json:"booking"`
	AlreadyProcessed bool     `json:"already_processed"`
}

type PaymentUpdate struct {
	Status        string  `json:"status,omitempty" validate:"omitempty,oneof=pending success failed cancelled"`
	Provider      string  `json:"provider,omitempty" validate:"omitempty,provider"`
	TransactionID *string `json:"transaction_id,omitempty" validate:"omitempty,max=200"`
	ErrorMessage  *string `json:"error_message,omitempty" validate:"omitempty,max=500"`
}
