package orchestrator

import (
	apperrors "hotelbooking/pkg/errors"
	"hotelbooking/pkg/model"
)

// success is terminal for a payment. Only a failed payment may be retried.
var paymentTransitions = map[string][]string{
	model.PaymentStatusPending: {model.PaymentStatusSuccess, model.PaymentStatusFailed, model.PaymentStatusCancelled},
	model.PaymentStatusFailed:  {model.PaymentStatusPending},
}

var bookingTransitions = map[string][]string{
	model.BookingStatusPending:        {model.BookingStatusPendingPayment, model.BookingStatusCancelled, model.BookingStatusExpired},
	model.BookingStatusPendingPayment: {model.BookingStatusConfirmed, model.BookingStatusCancelled, model.BookingStatusExpired},
}

func allowed(table map[string][]string, from, to string) bool {
	for _, next := range table[from] {
		if next == to {
			return true
		}
	}
	return false
}

func CanTransitionPayment(from, to string) bool {
	return allowed(paymentTransitions, from, to)
}

func CanTransitionBooking(from, to string) bool {
	return allowed(bookingTransitions, from, to)
}

func checkPaymentTransition(from, to string) error {
	if !CanTransitionPayment(from, to) {
		return apperrors.InvalidStatusTransition(from, to)
	}
	return nil
}
