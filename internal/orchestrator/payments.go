package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	bookingserrors "hotelbooking/internal/bookings/errors"
	"hotelbooking/internal/events"
	paymentserrors "hotelbooking/internal/payments/errors"
	"hotelbooking/internal/payments/gateway"
	apperrors "hotelbooking/pkg/errors"
	"hotelbooking/pkg/model"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

const callbackStatusSuccess = "success"

// InitiatePayment records the guest's provider choice on the booking's
// payment and asks the gateway where to send the guest.
func (s *Service) InitiatePayment(ctx context.Context, req *model.InitiatePaymentRequest) (result *model.PaymentResult, err error) {
	ctx, finish := s.telemetry.track(ctx, "InitiatePayment")
	defer func() { finish(err) }()

	if err := s.paymentValidator.ValidateInitiate(req); err != nil {
		return nil, validationError("Invalid payment request", err)
	}

	now := s.clock.Now()
	var payment *model.Payment
	var booking *model.Booking

	err = s.tx.ExecuteTransaction(ctx, func(ctx context.Context) error {
		b, err := s.bookings.FindByID(ctx, req.BookingID)
		if err != nil {
			return bookingError(err, req.BookingID)
		}
		if b.Status != model.BookingStatusPendingPayment {
			return apperrors.InvalidBookingStatus(fmt.Sprintf("Booking is %s, payment can only be initiated while it awaits payment", b.Status))
		}

		p, err := s.payments.FindByBooking(ctx, b.ID)
		created := false
		switch {
		case errors.Is(err, paymentserrors.ErrNotFound):
			p = &model.Payment{
				BookingID: b.ID,
				Amount:    b.TotalAmount,
				Currency:  model.DefaultCurrency,
				Status:    model.PaymentStatusPending,
				CreatedAt: now,
			}
			created = true
		case err != nil:
			return paymentError(err)
		case p.Status == model.PaymentStatusPending:
		default:
			if err := checkPaymentTransition(p.Status, model.PaymentStatusPending); err != nil {
				return err
			}
		}

		previous := p.Status
		p.Provider = req.Provider
		p.ProviderReference = newProviderReference(req.Provider)
		p.Status = model.PaymentStatusPending
		p.TransactionID = ""
		p.ErrorMessage = ""
		p.UpdatedAt = now

		if created {
			err = s.payments.Create(ctx, p)
		} else {
			err = s.payments.Update(ctx, p)
		}
		if err != nil {
			return apperrors.Internal("Failed to save payment", err)
		}

		if err := s.appendLog(ctx, p, model.ActionPaymentInitiated, map[string]any{
			"provider":           p.Provider,
			"provider_reference": p.ProviderReference,
			"previous_status":    previous,
		}, now); err != nil {
			return err
		}

		payment, booking = p, b
		return nil
	})
	if err != nil {
		return nil, err
	}

	checkout, err := s.gateway.Checkout(ctx, gateway.CheckoutRequest{
		BookingID: booking.ID,
		PaymentID: payment.ID,
		Provider:  payment.Provider,
		Reference: payment.ProviderReference,
		Amount:    payment.Amount,
		Currency:  payment.Currency,
	})
	if err != nil {
		s.log.Error("Payment gateway checkout failed",
			"payment_id", payment.ID,
			"provider", payment.Provider,
			"error", err,
		)
		return nil, apperrors.Unavailable("Payment gateway")
	}

	s.log.Info("Payment initiated",
		"booking_id", booking.ID,
		"payment_id", payment.ID,
		"provider", payment.Provider,
		"provider_reference", payment.ProviderReference,
	)
	s.publish(ctx, events.PaymentInitiated, booking, payment)

	return &model.PaymentResult{
		Payment:    payment,
		PaymentURL: checkout.PaymentURL,
	}, nil
}

// HandlePaymentCallback applies a provider's verdict. Replays of an outcome
// that is already recorded succeed without changing anything.
func (s *Service) HandlePaymentCallback(ctx context.Context, req *model.PaymentCallbackRequest) (result *model.CallbackResult, err error) {
	ctx, finish := s.telemetry.track(ctx, "HandlePaymentCallback")
	defer func() { finish(err) }()

	if err := s.paymentValidator.ValidateCallback(req); err != nil {
		return nil, validationError("Invalid payment callback", err)
	}

	succeeded := req.Status == callbackStatusSuccess
	now := s.clock.Now()

	// rejected is returned after the transaction commits its audit entry.
	var rejected error
	var eventType string

	err = s.tx.ExecuteTransaction(ctx, func(ctx context.Context) error {
		rejected, eventType, result = nil, "", nil

		p, err := s.findCallbackPayment(ctx, req)
		if err != nil {
			return err
		}

		if req.Amount != nil && !req.Amount.Equal(p.Amount) {
			rejected = apperrors.PaymentMismatch(p.Amount.StringFixed(2), req.Amount.StringFixed(2))
			return s.appendLog(ctx, p, model.ActionPaymentMismatch, map[string]any{
				"expected":        p.Amount.StringFixed(2),
				"received":        req.Amount.StringFixed(2),
				"reported_status": req.Status,
			}, now)
		}

		b, err := s.bookings.FindByID(ctx, p.BookingID)
		if err != nil {
			return bookingError(err, p.BookingID)
		}

		switch {
		case p.Status == model.PaymentStatusSuccess,
			!succeeded && p.Status == model.PaymentStatusFailed:
			result = &model.CallbackResult{Payment: p, Booking: b, AlreadyProcessed: true}
			return nil

		case succeeded && p.Status == model.PaymentStatusPending:
			if b.Status != model.BookingStatusPendingPayment {
				rejected = apperrors.InvalidBookingStatus(fmt.Sprintf("Booking is %s and can no longer be paid", b.Status))
				return s.appendLog(ctx, p, model.ActionPaymentRejected, map[string]any{
					"booking_status": b.Status,
					"transaction_id": req.TransactionID,
				}, now)
			}

			p.Status = model.PaymentStatusSuccess
			if req.TransactionID != "" {
				p.TransactionID = req.TransactionID
			}
			p.ErrorMessage = ""
			p.UpdatedAt = now
			if err := s.payments.Update(ctx, p); err != nil {
				return apperrors.Internal("Failed to update payment", err)
			}
			if err := s.setBookingStatus(ctx, b, model.BookingStatusConfirmed, now); err != nil {
				return err
			}
			if err := s.appendLog(ctx, p, model.ActionPaymentSuccess, map[string]any{
				"transaction_id":     p.TransactionID,
				"provider_reference": p.ProviderReference,
			}, now); err != nil {
				return err
			}
			eventType = events.PaymentSucceeded

		case !succeeded && p.Status == model.PaymentStatusPending:
			p.Status = model.PaymentStatusFailed
			if req.TransactionID != "" {
				p.TransactionID = req.TransactionID
			}
			p.ErrorMessage = req.ErrorMessage
			if p.ErrorMessage == "" {
				p.ErrorMessage = fmt.Sprintf("provider reported status %q", req.Status)
			}
			p.UpdatedAt = now
			if err := s.payments.Update(ctx, p); err != nil {
				return apperrors.Internal("Failed to update payment", err)
			}
			if err := s.cancelBooking(ctx, b, now); err != nil {
				return err
			}
			if err := s.appendLog(ctx, p, model.ActionPaymentFailed, map[string]any{
				"reported_status": req.Status,
				"error_message":   p.ErrorMessage,
			}, now); err != nil {
				return err
			}
			eventType = events.PaymentFailed

		default:
			target := model.PaymentStatusFailed
			if succeeded {
				target = model.PaymentStatusSuccess
			}
			return apperrors.InvalidStatusTransition(p.Status, target)
		}

		result = &model.CallbackResult{Payment: p, Booking: b}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if rejected != nil {
		s.log.Warn("Payment callback rejected",
			"provider_reference", req.ProviderReference,
			"booking_id", req.BookingID,
			"reason", rejected,
		)
		return nil, rejected
	}

	if result.AlreadyProcessed {
		s.log.Info("Payment callback already processed",
			"payment_id", result.Payment.ID,
			"status", result.Payment.Status,
		)
		return result, nil
	}

	s.log.Info("Payment callback applied",
		"payment_id", result.Payment.ID,
		"booking_id", result.Booking.ID,
		"payment_status", result.Payment.Status,
		"booking_status", result.Booking.Status,
	)
	s.publish(ctx, eventType, result.Booking, result.Payment)

	return result, nil
}

func (s *Service) findCallbackPayment(ctx context.Context, req *model.PaymentCallbackRequest) (*model.Payment, error) {
	if req.ProviderReference != "" {
		p, err := s.payments.FindByProviderReference(ctx, req.ProviderReference)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, paymentserrors.ErrNotFound) {
			return nil, paymentError(err)
		}
	}
	if req.BookingID != "" {
		p, err := s.payments.FindByBooking(ctx, req.BookingID)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, paymentserrors.ErrNotFound) {
			return nil, paymentError(err)
		}
	}
	return nil, apperrors.PaymentNotFound()
}

// GetPayment returns a payment and its audit trail, oldest entry first.
func (s *Service) GetPayment(ctx context.Context, id string) (details *model.PaymentDetails, err error) {
	ctx, finish := s.telemetry.track(ctx, "GetPayment", attribute.String("payment.id", id))
	defer func() { finish(err) }()

	payment, err := s.payments.FindByID(ctx, id)
	if err != nil {
		return nil, paymentError(err)
	}

	logs, err := s.paymentLogs.ListByPayment(ctx, id)
	if err != nil {
		return nil, apperrors.Internal("Failed to load payment logs", err)
	}

	return &model.PaymentDetails{Payment: payment, Logs: logs}, nil
}

// UpdatePayment is the administrative override. Status changes follow the
// same table as callbacks and carry the same booking and room effects.
func (s *Service) UpdatePayment(ctx context.Context, id string, update *model.PaymentUpdate) (payment *model.Payment, err error) {
	ctx, finish := s.telemetry.track(ctx, "UpdatePayment", attribute.String("payment.id", id))
	defer func() { finish(err) }()

	if err := s.paymentValidator.ValidateUpdate(update); err != nil {
		return nil, validationError("Invalid payment update", err)
	}

	now := s.clock.Now()
	var booking *model.Booking

	err = s.tx.ExecuteTransaction(ctx, func(ctx context.Context) error {
		p, err := s.payments.FindByID(ctx, id)
		if err != nil {
			return paymentError(err)
		}

		from := p.Status
		to := p.Status
		if update.Status != "" {
			to = update.Status
		}

		if from == model.PaymentStatusSuccess {
			if to != from {
				return apperrors.InvalidStatusTransition(from, to)
			}
			return apperrors.InvalidOperation("Successful payments cannot be modified")
		}
		if to != from {
			if err := checkPaymentTransition(from, to); err != nil {
				return err
			}
		}

		b, err := s.bookings.FindByID(ctx, p.BookingID)
		if err != nil {
			return bookingError(err, p.BookingID)
		}

		if update.Provider != "" {
			p.Provider = update.Provider
		}
		if update.TransactionID != nil {
			p.TransactionID = strings.TrimSpace(*update.TransactionID)
		}
		if update.ErrorMessage != nil {
			p.ErrorMessage = strings.TrimSpace(*update.ErrorMessage)
		}

		if to != from {
			switch to {
			case model.PaymentStatusSuccess:
				if err := s.setBookingStatus(ctx, b, model.BookingStatusConfirmed, now); err != nil {
					return err
				}
			case model.PaymentStatusFailed, model.PaymentStatusCancelled:
				if err := s.cancelBooking(ctx, b, now); err != nil {
					return err
				}
			case model.PaymentStatusPending:
				if b.Status != model.BookingStatusPendingPayment {
					return apperrors.InvalidBookingStatus(fmt.Sprintf("Booking is %s, its payment cannot be reopened", b.Status))
				}
			}
			p.Status = to
		}
		p.UpdatedAt = now

		if err := s.payments.Update(ctx, p); err != nil {
			if errors.Is(err, paymentserrors.ErrNotFound) {
				return apperrors.PaymentNotFound()
			}
			return apperrors.Internal("Failed to update payment", err)
		}

		if err := s.appendLog(ctx, p, model.ActionPaymentUpdated, map[string]any{
			"from":           from,
			"to":             to,
			"provider":       p.Provider,
			"transaction_id": p.TransactionID,
		}, now); err != nil {
			return err
		}

		payment, booking = p, b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Payment updated",
		"payment_id", payment.ID,
		"status", payment.Status,
		"booking_status", booking.Status,
	)
	s.publish(ctx, events.PaymentUpdated, booking, payment)

	return payment, nil
}

// DeletePayment removes a payment that never succeeded together with its
// logs. An active booking it belonged to is cancelled and its room freed.
func (s *Service) DeletePayment(ctx context.Context, id string) (err error) {
	ctx, finish := s.telemetry.track(ctx, "DeletePayment", attribute.String("payment.id", id))
	defer func() { finish(err) }()

	now := s.clock.Now()
	var payment *model.Payment
	var booking *model.Booking

	err = s.tx.ExecuteTransaction(ctx, func(ctx context.Context) error {
		booking = nil

		p, err := s.payments.FindByID(ctx, id)
		if err != nil {
			return paymentError(err)
		}
		if p.Status == model.PaymentStatusSuccess {
			return apperrors.InvalidOperation("Successful payments cannot be deleted")
		}

		b, err := s.bookings.FindByID(ctx, p.BookingID)
		switch {
		case err == nil:
			if err := s.cancelBooking(ctx, b, now); err != nil {
				return err
			}
			booking = b
		case errors.Is(err, bookingserrors.ErrNotFound):
			s.log.Warn("Deleting payment of a missing booking", "payment_id", p.ID, "booking_id", p.BookingID)
		default:
			return bookingError(err, p.BookingID)
		}

		if _, err := s.paymentLogs.DeleteByPayment(ctx, p.ID); err != nil {
			return apperrors.Internal("Failed to delete payment logs", err)
		}
		if err := s.payments.Delete(ctx, p.ID); err != nil {
			return paymentError(err)
		}

		payment = p
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("Payment deleted", "payment_id", payment.ID, "booking_id", payment.BookingID)
	s.publish(ctx, events.PaymentDeleted, booking, payment)

	return nil
}

// newProviderReference returns a reference unique across providers,
// e.g. TELEBIRR-0b6f....
func newProviderReference(provider string) string {
	return strings.ToUpper(provider) + "-" + uuid.NewString()
}
