package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hotelbooking/internal/events"
	paymentserrors "hotelbooking/internal/payments/errors"
	apperrors "hotelbooking/pkg/errors"
	"hotelbooking/pkg/model"
	"hotelbooking/pkg/sanitizer"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

const guestEmailDomain = "guests.hotelbooking.local"

// CreateBooking reserves a room for a guest and opens a pending payment for
// the stay. The room stays occupied until the payment resolves or the
// booking expires.
func (s *Service) CreateBooking(ctx context.Context, req *model.CreateBookingRequest) (result *model.BookingResult, err error) {
	ctx, finish := s.telemetry.track(ctx, "CreateBooking")
	defer func() { finish(err) }()

	now := s.clock.Now()

	parsed, err := s.bookingValidator.Validate(req, now)
	if err != nil {
		return nil, validationError("Invalid booking request", err)
	}

	hotel, err := s.hotels.FindActiveByID(ctx, parsed.HotelID)
	if err != nil {
		return nil, hotelError(err, parsed.HotelID)
	}

	room, err := s.rooms.FindByIDAndHotel(ctx, parsed.RoomID, hotel.ID)
	if err != nil {
		return nil, roomError(err, parsed.RoomID)
	}
	if err := checkRoomBookable(room); err != nil {
		return nil, err
	}

	unlock, err := s.acquireRoomLock(ctx, room.ID, now)
	if err != nil {
		return nil, err
	}
	defer unlock()

	err = s.tx.ExecuteTransaction(ctx, func(ctx context.Context) error {
		locked, err := s.rooms.Lock(ctx, room.ID)
		if err != nil {
			return roomError(err, room.ID)
		}
		if err := checkRoomBookable(locked); err != nil {
			return err
		}

		overlap, err := s.bookings.FindOverlapping(ctx, locked.ID, parsed.CheckIn, parsed.CheckOut, model.ActiveBookingStatuses)
		if err != nil {
			return apperrors.Internal("Failed to check room availability", err)
		}
		if overlap != nil {
			return apperrors.RoomAlreadyReserved("Room is already reserved for the selected dates")
		}

		firstName, lastName := sanitizer.SplitFullName(parsed.UserName)
		user, err := s.customers.FindOrCreateByPhone(ctx, &model.User{
			FirstName: firstName,
			LastName:  lastName,
			Phone:     parsed.Phone,
			Email:     guestEmail(parsed.Phone),
			Role:      model.RoleCustomer,
			CreatedAt: now,
		})
		if err != nil {
			return apperrors.Internal("Failed to resolve guest", err)
		}

		duplicate, err := s.bookings.FindDuplicate(ctx, user.ID, hotel.ID, locked.ID, parsed.CheckIn, parsed.CheckOut, model.ActiveBookingStatuses)
		if err != nil {
			return apperrors.Internal("Failed to check for duplicate bookings", err)
		}
		if duplicate != nil {
			return apperrors.DuplicateBooking("You already have a booking for this room and dates")
		}

		nights := nightsBetween(parsed.CheckIn, parsed.CheckOut)
		total := locked.PricePerNight.Mul(decimal.NewFromInt(int64(nights)))

		booking := &model.Booking{
			UserID:       user.ID,
			HotelID:      hotel.ID,
			RoomID:       locked.ID,
			CheckinDate:  parsed.CheckIn,
			CheckoutDate: parsed.CheckOut,
			Nights:       nights,
			TotalAmount:  total,
			Status:       model.BookingStatusPendingPayment,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.bookings.Create(ctx, booking); err != nil {
			return apperrors.Internal("Failed to create booking", err)
		}

		payment := &model.Payment{
			BookingID: booking.ID,
			Amount:    total,
			Currency:  model.DefaultCurrency,
			Provider:  model.DefaultProvider,
			Status:    model.PaymentStatusPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.payments.Create(ctx, payment); err != nil {
			return apperrors.Internal("Failed to create payment", err)
		}

		if err := s.appendLog(ctx, payment, model.ActionBookingCreated, map[string]any{
			"room_id":      locked.ID,
			"user_id":      user.ID,
			"nights":       nights,
			"total_amount": total.StringFixed(2),
		}, now); err != nil {
			return err
		}

		if err := s.rooms.SetStatus(ctx, locked.ID, model.RoomStatusOccupied, now); err != nil {
			return roomError(err, locked.ID)
		}

		result = &model.BookingResult{
			Booking: booking,
			Payment: payment,
			NextStep: model.NextStep{
				Action:   "initiate_payment",
				Method:   "POST",
				Endpoint: "/payments/initiate",
				Message:  fmt.Sprintf("Choose a payment provider for booking %s to complete the reservation", booking.ID),
			},
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Booking created",
		"booking_id", result.Booking.ID,
		"payment_id", result.Payment.ID,
		"room_id", result.Booking.RoomID,
		"nights", result.Booking.Nights,
		"total_amount", result.Booking.TotalAmount.StringFixed(2),
	)
	s.publish(ctx, events.BookingCreated, result.Booking, nil)

	return result, nil
}

// GetBooking returns a booking with its guest, hotel, room and payments.
// Related records that no longer resolve are left empty.
func (s *Service) GetBooking(ctx context.Context, id string) (details *model.BookingDetails, err error) {
	ctx, finish := s.telemetry.track(ctx, "GetBooking", attribute.String("booking.id", id))
	defer func() { finish(err) }()

	booking, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, bookingError(err, id)
	}

	details = &model.BookingDetails{Booking: booking}

	if details.User, err = s.customers.FindByID(ctx, booking.UserID); err != nil {
		s.log.Warn("Booking guest not found", "booking_id", id, "user_id", booking.UserID, "error", err)
	}
	if details.Hotel, err = s.hotels.FindByID(ctx, booking.HotelID); err != nil {
		s.log.Warn("Booking hotel not found", "booking_id", id, "hotel_id", booking.HotelID, "error", err)
	}
	if details.Room, err = s.rooms.FindByID(ctx, booking.RoomID); err != nil {
		s.log.Warn("Booking room not found", "booking_id", id, "room_id", booking.RoomID, "error", err)
	}

	if details.Payments, err = s.payments.ListByBooking(ctx, id); err != nil {
		return nil, apperrors.Internal("Failed to load booking payments", err)
	}

	return details, nil
}

// ExpirePendingBooking expires a booking still awaiting payment that was
// created before cutoff. It reports false when the booking no longer
// qualifies, which happens when a payment lands between scan and expiry.
func (s *Service) ExpirePendingBooking(ctx context.Context, id string, cutoff time.Time) (expired bool, err error) {
	ctx, finish := s.telemetry.track(ctx, "ExpirePendingBooking", attribute.String("booking.id", id))
	defer func() { finish(err) }()

	now := s.clock.Now()
	var booking *model.Booking
	var payment *model.Payment

	err = s.tx.ExecuteTransaction(ctx, func(ctx context.Context) error {
		expired, booking, payment = false, nil, nil

		b, err := s.bookings.FindByID(ctx, id)
		if err != nil {
			return bookingError(err, id)
		}
		if b.Status != model.BookingStatusPendingPayment || !b.CreatedAt.Before(cutoff) {
			return nil
		}

		if err := s.setBookingStatus(ctx, b, model.BookingStatusExpired, now); err != nil {
			return err
		}
		if err := s.releaseRoom(ctx, b.RoomID, now); err != nil {
			return err
		}

		p, err := s.payments.FindByBooking(ctx, b.ID)
		switch {
		case errors.Is(err, paymentserrors.ErrNotFound):
			s.log.Warn("Expired booking has no payment", "booking_id", b.ID)
		case err != nil:
			return paymentError(err)
		default:
			previous := p.Status
			if CanTransitionPayment(p.Status, model.PaymentStatusCancelled) {
				p.Status = model.PaymentStatusCancelled
				p.ErrorMessage = "booking expired before payment completed"
				p.UpdatedAt = now
				if err := s.payments.Update(ctx, p); err != nil {
					return apperrors.Internal("Failed to cancel payment", err)
				}
			}
			if err := s.appendLog(ctx, p, model.ActionBookingExpired, map[string]any{
				"created_at":       b.CreatedAt,
				"cutoff":           cutoff,
				"payment_status":   previous,
				"released_room_id": b.RoomID,
			}, now); err != nil {
				return err
			}
			payment = p
		}

		expired, booking = true, b
		return nil
	})
	if err != nil {
		return false, err
	}
	if !expired {
		return false, nil
	}

	s.log.Info("Pending booking expired",
		"booking_id", booking.ID,
		"room_id", booking.RoomID,
		"created_at", booking.CreatedAt,
	)
	s.publish(ctx, events.BookingExpired, booking, payment)

	return true, nil
}

func checkRoomBookable(room *model.Room) error {
	switch room.Status {
	case model.RoomStatusAvailable:
		return nil
	case model.RoomStatusOccupied:
		return apperrors.RoomAlreadyReserved("Room is not available")
	default:
		return apperrors.NotFoundWithID("Room", room.ID)
	}
}

// nightsBetween counts started 24 hour periods.
func nightsBetween(checkin, checkout time.Time) int {
	const day = 24 * time.Hour
	d := checkout.Sub(checkin)
	n := int(d / day)
	if d%day != 0 {
		n++
	}
	return n
}

func guestEmail(phone string) string {
	return fmt.Sprintf("guest.%s@%s", sanitizer.PhoneDigits(phone), guestEmailDomain)
}
