package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	BookingStatusPending        = "pending"
	BookingStatusPendingPayment = "pending_payment"
	BookingStatusConfirmed      = "confirmed"
	BookingStatusCancelled      = "cancelled"
	BookingStatusExpired        = "expired"
	BookingStatusRefunded       = "refunded"
)

// ActiveBookingStatuses are the statuses that hold a room for their date range.
var ActiveBookingStatuses = []string{
	BookingStatusPending,
	BookingStatusPendingPayment,
	BookingStatusConfirmed,
}

type Booking struct {
	ID           string          `json:"id,omitempty" bson:"_id,omitempty"`
	UserID       string          `json:"user_id" bson:"user_id"`
	HotelID      string          `json:"hotel_id" bson:"hotel_id"`
	RoomID       string          `json:"room_id" bson:"room_id"`
	CheckinDate  time.Time       `json:"checkin_date" bson:"checkin_date"`
	CheckoutDate time.Time       `json:"checkout_date" bson:"checkout_date"`
	Nights       int             `json:"nights" bson:"nights"`
	TotalAmount  decimal.Decimal `json:"total_amount" bson:"total_amount"`
	Status       string          `json:"status" bson:"status"`
	CreatedAt    time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" bson:"updated_at"`
}

// BookingCursor is a position in (created_at, id) order, used to page
// through bookings without revisiting rows.
type BookingCursor struct {
	CreatedAt time.Time
	ID        string
}

// CursorAfter returns the cursor positioned on b.
func (b *Booking) CursorAfter() *BookingCursor {
	return &BookingCursor{CreatedAt: b.CreatedAt, ID: b.ID}
}

// Overlaps reports whether b holds any part of the half-open range [checkin, checkout).
func (b *Booking) Overlaps(checkin, checkout time.Time) bool {
	return b.CheckinDate.Before(checkout) && b.CheckoutDate.After(checkin)
}

func (b *Booking) IsActive() bool {
	for _, s := range ActiveBookingStatuses {
		if b.Status == s {
			return true
		}
	}
	return false
}

// BookingDetails is a booking with its related records resolved.
type BookingDetails struct {
	*Booking
	User     *User      `json:"user,omitempty"`
	Hotel    *Hotel     `json:"hotel,omitempty"`
	Room     *Room      `json:"room,omitempty"`
	Payments []*Payment `json:"payments"`
}

type CreateBookingRequest struct {
	UserName string `json:"userName" validate:"required,min=1,max=100"`
	Phone    string `json:"phone" validate:"required"`
	HotelID  string `json:"hotelId" validate:"required"`
	RoomID   string `json:"roomId" validate:"required"`
	CheckIn  string `json:"checkIn" validate:"required"`
	CheckOut string `json:"checkOut" validate:"required"`
}

type NextStep struct {
	Action   string `json:"action"`
	Method   string `json:"method"`
	Endpoint string `json:"endpoint"`
	Message  string `json:"message"`
}

type BookingResult struct {
	Booking  *Booking `json:"booking"`
	Payment  *Payment `json:"payment"`
	NextStep NextStep `json:"next_step"`
}
