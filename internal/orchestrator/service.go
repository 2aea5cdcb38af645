// Package orchestrator keeps bookings, payments and room status consistent.
// Every operation that changes more than one record runs in a single
// transaction; events are published only after it commits.
package orchestrator

import (
	"context"
	"errors"
	"time"

	bookingserrors "hotelbooking/internal/bookings/errors"
	bookingsrepo "hotelbooking/internal/bookings/repository"
	bookingsvalidator "hotelbooking/internal/bookings/validator"
	customersrepo "hotelbooking/internal/customers/repository"
	"hotelbooking/internal/events"
	inventoryerrors "hotelbooking/internal/inventory/errors"
	inventoryrepo "hotelbooking/internal/inventory/repository"
	paymentserrors "hotelbooking/internal/payments/errors"
	"hotelbooking/internal/payments/gateway"
	paymentsrepo "hotelbooking/internal/payments/repository"
	paymentsvalidator "hotelbooking/internal/payments/validator"
	"hotelbooking/pkg/clock"
	mongotx "hotelbooking/pkg/db/mongo"
	apperrors "hotelbooking/pkg/errors"
	"hotelbooking/pkg/logger"
	"hotelbooking/pkg/model"

	"github.com/google/uuid"
)

const DefaultLockTTL = 30 * time.Second

type Dependencies struct {
	Tx           mongotx.TransactionManager
	Hotels       inventoryrepo.HotelRepository
	Rooms        inventoryrepo.RoomRepository
	Customers    customersrepo.CustomerRepository
	Bookings     bookingsrepo.BookingRepository
	BookingLocks bookingsrepo.BookingLockRepository
	Payments     paymentsrepo.PaymentRepository
	PaymentLogs  paymentsrepo.PaymentLogRepository
	Gateway      gateway.Gateway

	// Optional. Defaults are a no-op publisher, the system clock, the
	// global OpenTelemetry providers and DefaultLockTTL.
	Events    events.Publisher
	Clock     clock.Clock
	Telemetry *Telemetry
	LockTTL   time.Duration

	Log *logger.Logger
}

type Service struct {
	tx           mongotx.TransactionManager
	hotels       inventoryrepo.HotelRepository
	rooms        inventoryrepo.RoomRepository
	customers    customersrepo.CustomerRepository
	bookings     bookingsrepo.BookingRepository
	bookingLocks bookingsrepo.BookingLockRepository
	payments     paymentsrepo.PaymentRepository
	paymentLogs  paymentsrepo.PaymentLogRepository
	gateway      gateway.Gateway

	bookingValidator *bookingsvalidator.BookingValidator
	paymentValidator *paymentsvalidator.PaymentValidator

	events    events.Publisher
	clock     clock.Clock
	telemetry *Telemetry
	lockTTL   time.Duration
	log       *logger.Logger
}

func New(deps Dependencies) *Service {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	log = log.Component("orchestrator")

	s := &Service{
		tx:           deps.Tx,
		hotels:       deps.Hotels,
		rooms:        deps.Rooms,
		customers:    deps.Customers,
		bookings:     deps.Bookings,
		bookingLocks: deps.BookingLocks,
		payments:     deps.Payments,
		paymentLogs:  deps.PaymentLogs,
		gateway:      deps.Gateway,

		bookingValidator: bookingsvalidator.NewBookingValidator(log),
		paymentValidator: paymentsvalidator.NewPaymentValidator(log),

		events:    deps.Events,
		clock:     deps.Clock,
		telemetry: deps.Telemetry,
		lockTTL:   deps.LockTTL,
		log:       log,
	}

	if s.events == nil {
		s.events = events.NopPublisher{}
	}
	if s.clock == nil {
		s.clock = clock.NewSystem()
	}
	if s.lockTTL <= 0 {
		s.lockTTL = DefaultLockTTL
	}
	if s.telemetry == nil {
		t, err := NewTelemetry(nil, nil)
		if err != nil {
			log.Fatal("Failed to initialize orchestrator telemetry", "error", err)
		}
		s.telemetry = t
	}

	return s
}

// acquireRoomLock takes the advisory lock that serializes booking attempts
// on a room. The returned func releases it.
func (s *Service) acquireRoomLock(ctx context.Context, roomID string, now time.Time) (func(), error) {
	lock := &model.BookingLock{
		ID:        model.RoomLockID(roomID),
		Token:     uuid.NewString(),
		CreatedAt: now,
		ExpiresAt: now.Add(s.lockTTL),
	}

	if _, err := s.bookingLocks.Create(ctx, lock); err != nil {
		if errors.Is(err, bookingserrors.ErrLocked) {
			s.log.Info("Room lock held by another request", "room_id", roomID)
			return nil, apperrors.RoomAlreadyReserved("Room is being booked by another request, please try again")
		}
		return nil, apperrors.Internal("Failed to acquire room lock", err)
	}

	return func() {
		if err := s.bookingLocks.Release(context.WithoutCancel(ctx), lock); err != nil {
			s.log.Warn("Failed to release room lock", "lock_id", lock.ID, "error", err)
		}
	}, nil
}

// releaseRoom makes a room bookable again. Callers only release rooms held
// by a booking that is leaving an active status.
func (s *Service) releaseRoom(ctx context.Context, roomID string, at time.Time) error {
	if _, err := s.rooms.Lock(ctx, roomID); err != nil {
		return roomError(err, roomID)
	}
	if err := s.rooms.SetStatus(ctx, roomID, model.RoomStatusAvailable, at); err != nil {
		return roomError(err, roomID)
	}
	return nil
}

func (s *Service) setBookingStatus(ctx context.Context, booking *model.Booking, status string, at time.Time) error {
	if !CanTransitionBooking(booking.Status, status) {
		return apperrors.InvalidBookingStatus("Booking is " + booking.Status + " and cannot become " + status)
	}
	if err := s.bookings.UpdateStatus(ctx, booking.ID, status, at); err != nil {
		return apperrors.Internal("Failed to update booking status", err)
	}
	booking.Status = status
	booking.UpdatedAt = at
	return nil
}

// cancelBooking cancels an active booking and frees its room.
func (s *Service) cancelBooking(ctx context.Context, booking *model.Booking, at time.Time) error {
	if !booking.IsActive() {
		return nil
	}
	if err := s.setBookingStatus(ctx, booking, model.BookingStatusCancelled, at); err != nil {
		return err
	}
	return s.releaseRoom(ctx, booking.RoomID, at)
}

func (s *Service) appendLog(ctx context.Context, payment *model.Payment, action string, details map[string]any, at time.Time) error {
	entry := &model.PaymentLog{
		PaymentID: payment.ID,
		BookingID: payment.BookingID,
		Action:    action,
		Details:   details,
		CreatedAt: at,
	}
	if err := s.paymentLogs.Append(ctx, entry); err != nil {
		return apperrors.Internal("Failed to write payment log", err)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, eventType string, booking *model.Booking, payment *model.Payment) {
	event := events.Event{
		Type:       eventType,
		OccurredAt: s.clock.Now(),
	}
	if booking != nil {
		event.BookingID = booking.ID
		event.RoomID = booking.RoomID
		event.UserID = booking.UserID
		event.BookingStatus = booking.Status
	}
	if payment != nil {
		amount := payment.Amount
		event.BookingID = payment.BookingID
		event.PaymentID = payment.ID
		event.PaymentStatus = payment.Status
		event.Provider = payment.Provider
		event.Amount = &amount
	}
	s.events.Publish(ctx, event)
}

func bookingError(err error, id string) error {
	if errors.Is(err, bookingserrors.ErrNotFound) || errors.Is(err, bookingserrors.ErrInvalidID) {
		return apperrors.NotFoundWithID("Booking", id)
	}
	return apperrors.Internal("Failed to load booking", err)
}

func paymentError(err error) error {
	if errors.Is(err, paymentserrors.ErrNotFound) || errors.Is(err, paymentserrors.ErrInvalidID) {
		return apperrors.PaymentNotFound()
	}
	return apperrors.Internal("Failed to load payment", err)
}

func roomError(err error, id string) error {
	if errors.Is(err, inventoryerrors.ErrRoomNotFound) || errors.Is(err, inventoryerrors.ErrInvalidID) {
		return apperrors.NotFoundWithID("Room", id)
	}
	return apperrors.Internal("Failed to load room", err)
}

func hotelError(err error, id string) error {
	if errors.Is(err, inventoryerrors.ErrHotelNotFound) || errors.Is(err, inventoryerrors.ErrInvalidID) {
		return apperrors.NotFoundWithID("Hotel", id)
	}
	return apperrors.Internal("Failed to load hotel", err)
}

func validationError(message string, err error) error {
	if apperrors.IsAppError(err) {
		return err
	}
	type detailer interface{ Details() map[string]any }
	var d detailer
	if errors.As(err, &d) {
		return apperrors.Validation(message, d.Details())
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}
