package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"hotelbooking/internal/events"
	"hotelbooking/internal/memstore"
	"hotelbooking/internal/payments/gateway"
	paymentsrepo "hotelbooking/internal/payments/repository"
	"hotelbooking/pkg/clock"
	apperrors "hotelbooking/pkg/errors"
	"hotelbooking/pkg/logger"
	"hotelbooking/pkg/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)

type stubGateway struct {
	mu       sync.Mutex
	err      error
	requests []gateway.CheckoutRequest
}

func (g *stubGateway) Checkout(_ context.Context, req gateway.CheckoutRequest) (*gateway.Checkout, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, req)
	if g.err != nil {
		return nil, g.err
	}
	return &gateway.Checkout{PaymentURL: "https://pay.example.com/" + req.Reference}, nil
}

type harness struct {
	store   *memstore.Store
	svc     *Service
	clock   *clock.Manual
	events  *events.Recorder
	gateway *stubGateway
	hotel   *model.Hotel
	room    *model.Room
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store := memstore.New()
	h := &harness{
		store:   store,
		clock:   clock.NewManual(start),
		events:  &events.Recorder{},
		gateway: &stubGateway{},
	}
	h.hotel = store.SeedHotel(model.Hotel{
		Name:     "Blue Nile Hotel",
		Location: "Bahir Dar",
		Status:   model.HotelStatusActive,
	})
	h.room = store.SeedRoom(model.Room{
		HotelID:       h.hotel.ID,
		RoomNumber:    "101",
		RoomType:      "deluxe",
		PricePerNight: decimal.NewFromInt(1800),
		Status:        model.RoomStatusAvailable,
	})

	h.svc = New(Dependencies{
		Tx:           store,
		Hotels:       store.Hotels(),
		Rooms:        store.Rooms(),
		Customers:    store.Customers(),
		Bookings:     store.Bookings(),
		BookingLocks: store.BookingLocks(),
		Payments:     store.Payments(),
		PaymentLogs:  store.PaymentLogs(),
		Gateway:      h.gateway,
		Events:       h.events,
		Clock:        h.clock,
		Log:          logger.Nop(),
	})
	return h
}

func (h *harness) request(phone string) *model.CreateBookingRequest {
	return &model.CreateBookingRequest{
		UserName: "Abebe Kebede",
		Phone:    phone,
		HotelID:  h.hotel.ID,
		RoomID:   h.room.ID,
		CheckIn:  "2026-10-20",
		CheckOut: "2026-10-22",
	}
}

func (h *harness) createBooking(t *testing.T) *model.BookingResult {
	t.Helper()
	result, err := h.svc.CreateBooking(context.Background(), h.request("+251911234567"))
	require.NoError(t, err)
	return result
}

func (h *harness) initiate(t *testing.T, bookingID string) *model.PaymentResult {
	t.Helper()
	result, err := h.svc.InitiatePayment(context.Background(), &model.InitiatePaymentRequest{
		BookingID: bookingID,
		Provider:  model.ProviderChappa,
	})
	require.NoError(t, err)
	return result
}

func (h *harness) roomStatus(t *testing.T) string {
	t.Helper()
	room, err := h.store.Rooms().FindByID(context.Background(), h.room.ID)
	require.NoError(t, err)
	return room.Status
}

func (h *harness) bookingStatus(t *testing.T, id string) string {
	t.Helper()
	b, err := h.store.Bookings().FindByID(context.Background(), id)
	require.NoError(t, err)
	return b.Status
}

func (h *harness) payment(t *testing.T, id string) *model.Payment {
	t.Helper()
	p, err := h.store.Payments().FindByID(context.Background(), id)
	require.NoError(t, err)
	return p
}

func (h *harness) logActions(t *testing.T, paymentID string) []string {
	t.Helper()
	logs, err := h.store.PaymentLogs().ListByPayment(context.Background(), paymentID)
	require.NoError(t, err)
	actions := make([]string, len(logs))
	for i, l := range logs {
		actions[i] = l.Action
	}
	return actions
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.Truef(t, apperrors.HasCode(err, code), "expected %s, got %v", code, err)
}

func amount(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func TestCreateBooking(t *testing.T) {
	h := newHarness(t)

	result := h.createBooking(t)

	b := result.Booking
	assert.NotEmpty(t, b.ID)
	assert.Equal(t, model.BookingStatusPendingPayment, b.Status)
	assert.Equal(t, 2, b.Nights)
	assert.True(t, b.TotalAmount.Equal(decimal.NewFromInt(3600)), "total = %s", b.TotalAmount)
	assert.Equal(t, time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC), b.CheckinDate)

	p := result.Payment
	assert.Equal(t, b.ID, p.BookingID)
	assert.Equal(t, model.PaymentStatusPending, p.Status)
	assert.Equal(t, model.ProviderTelebirr, p.Provider)
	assert.Equal(t, "ETB", p.Currency)
	assert.True(t, p.Amount.Equal(b.TotalAmount))

	assert.Equal(t, "initiate_payment", result.NextStep.Action)
	assert.Equal(t, "/payments/initiate", result.NextStep.Endpoint)

	assert.Equal(t, model.RoomStatusOccupied, h.roomStatus(t))
	assert.Equal(t, []string{model.ActionBookingCreated}, h.logActions(t, p.ID))
	assert.Equal(t, []string{events.BookingCreated}, h.events.Types())

	user, err := h.store.Customers().FindByID(context.Background(), b.UserID)
	require.NoError(t, err)
	assert.Equal(t, "Abebe", user.FirstName)
	assert.Equal(t, "Kebede", user.LastName)
	assert.Equal(t, "+251911234567", user.Phone)
	assert.Equal(t, "guest.251911234567@guests.hotelbooking.local", user.Email)
	assert.Equal(t, model.RoleCustomer, user.Role)
}

func TestCreateBooking_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		setup func(h *harness, req *model.CreateBookingRequest)
		code  string
	}{
		{
			name:  "invalid dates",
			setup: func(h *harness, req *model.CreateBookingRequest) { req.CheckOut = req.CheckIn },
			code:  apperrors.CodeBadRequest,
		},
		{
			name:  "invalid phone",
			setup: func(h *harness, req *model.CreateBookingRequest) { req.Phone = "12" },
			code:  apperrors.CodeBadRequest,
		},
		{
			name:  "unknown hotel",
			setup: func(h *harness, req *model.CreateBookingRequest) { req.HotelID = "missing" },
			code:  apperrors.CodeNotFound,
		},
		{
			name: "inactive hotel",
			setup: func(h *harness, req *model.CreateBookingRequest) {
				hotel := *h.hotel
				hotel.Status = model.HotelStatusSuspended
				h.store.SeedHotel(hotel)
			},
			code: apperrors.CodeNotFound,
		},
		{
			name: "room of another hotel",
			setup: func(h *harness, req *model.CreateBookingRequest) {
				other := h.store.SeedHotel(model.Hotel{Name: "Other", Status: model.HotelStatusActive})
				req.HotelID = other.ID
			},
			code: apperrors.CodeNotFound,
		},
		{
			name: "room under maintenance",
			setup: func(h *harness, req *model.CreateBookingRequest) {
				room := *h.room
				room.Status = model.RoomStatusMaintenance
				h.store.SeedRoom(room)
			},
			code: apperrors.CodeNotFound,
		},
		{
			name: "room occupied",
			setup: func(h *harness, req *model.CreateBookingRequest) {
				room := *h.room
				room.Status = model.RoomStatusOccupied
				h.store.SeedRoom(room)
			},
			code: apperrors.CodeRoomAlreadyReserved,
		},
		{
			name: "room lock held",
			setup: func(h *harness, req *model.CreateBookingRequest) {
				_, err := h.store.BookingLocks().Create(context.Background(), &model.BookingLock{
					ID:        model.RoomLockID(h.room.ID),
					Token:     "another-request",
					CreatedAt: start,
					ExpiresAt: start.Add(time.Minute),
				})
				if err != nil {
					t.Fatalf("seed lock: %v", err)
				}
			},
			code: apperrors.CodeRoomAlreadyReserved,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			req := h.request("+251911234567")
			tt.setup(h, req)

			_, err := h.svc.CreateBooking(context.Background(), req)
			assertCode(t, err, tt.code)

			details, err := h.store.Bookings().FindExpiredPending(context.Background(), start.Add(time.Hour), nil, 0)
			require.NoError(t, err)
			assert.Empty(t, details, "no booking may be created")
			assert.Empty(t, h.events.Types())
		})
	}
}

func TestCreateBooking_OverlappingActiveBooking(t *testing.T) {
	h := newHarness(t)
	first := h.createBooking(t)

	// Room status drifted back to available while the booking is still active.
	room := *h.room
	room.Status = model.RoomStatusAvailable
	h.store.SeedRoom(room)

	req := h.request("+251922345678")
	req.CheckIn = "2026-10-21"
	req.CheckOut = "2026-10-23"
	_, err := h.svc.CreateBooking(context.Background(), req)
	assertCode(t, err, apperrors.CodeRoomAlreadyReserved)

	// touching ranges do not overlap
	req = h.request("+251922345678")
	req.CheckIn = "2026-10-22"
	req.CheckOut = "2026-10-24"
	second, err := h.svc.CreateBooking(context.Background(), req)
	require.NoError(t, err)
	assert.NotEqual(t, first.Booking.ID, second.Booking.ID)
}

func TestCreateBooking_Concurrent(t *testing.T) {
	h := newHarness(t)

	const attempts = 10
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.svc.CreateBooking(context.Background(), h.request(fmt.Sprintf("+2519112345%02d", i)))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assertCode(t, err, apperrors.CodeRoomAlreadyReserved)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, model.RoomStatusOccupied, h.roomStatus(t))
	assert.Len(t, h.events.Types(), 1)
}

func TestCreateBooking_RoomReusableAfterFailure(t *testing.T) {
	h := newHarness(t)
	first := h.createBooking(t)

	_, err := h.svc.HandlePaymentCallback(context.Background(), &model.PaymentCallbackRequest{
		Status:    "failed",
		BookingID: first.Booking.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoomStatusAvailable, h.roomStatus(t))

	second := h.createBooking(t)
	assert.Equal(t, first.Booking.UserID, second.Booking.UserID, "guest is found by phone")
	assert.Equal(t, model.RoomStatusOccupied, h.roomStatus(t))
}

func TestInitiatePayment(t *testing.T) {
	h := newHarness(t)
	booking := h.createBooking(t)

	result := h.initiate(t, booking.Booking.ID)

	assert.Equal(t, model.ProviderChappa, result.Payment.Provider)
	assert.Equal(t, model.PaymentStatusPending, result.Payment.Status)
	assert.True(t, strings.HasPrefix(result.Payment.ProviderReference, "CHAPPA-"), result.Payment.ProviderReference)
	assert.Equal(t, "https://pay.example.com/"+result.Payment.ProviderReference, result.PaymentURL)
	assert.Equal(t, booking.Payment.ID, result.Payment.ID, "the booking's payment is reused")

	require.Len(t, h.gateway.requests, 1)
	assert.True(t, h.gateway.requests[0].Amount.Equal(decimal.NewFromInt(3600)))

	again := h.initiate(t, booking.Booking.ID)
	assert.NotEqual(t, result.Payment.ProviderReference, again.Payment.ProviderReference)

	assert.Equal(t, []string{
		model.ActionBookingCreated,
		model.ActionPaymentInitiated,
		model.ActionPaymentInitiated,
	}, h.logActions(t, result.Payment.ID))
	assert.Equal(t, []string{events.BookingCreated, events.PaymentInitiated, events.PaymentInitiated}, h.events.Types())
}

func TestInitiatePayment_Rejections(t *testing.T) {
	t.Run("unknown provider", func(t *testing.T) {
		h := newHarness(t)
		booking := h.createBooking(t)
		_, err := h.svc.InitiatePayment(context.Background(), &model.InitiatePaymentRequest{
			BookingID: booking.Booking.ID,
			Provider:  "paypal",
		})
		assertCode(t, err, apperrors.CodeBadRequest)
	})

	t.Run("unknown booking", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.svc.InitiatePayment(context.Background(), &model.InitiatePaymentRequest{
			BookingID: "missing",
			Provider:  model.ProviderEbirr,
		})
		assertCode(t, err, apperrors.CodeNotFound)
	})

	t.Run("booking already confirmed", func(t *testing.T) {
		h := newHarness(t)
		booking := h.createBooking(t)
		_, err := h.svc.HandlePaymentCallback(context.Background(), &model.PaymentCallbackRequest{
			Status:    "success",
			BookingID: booking.Booking.ID,
		})
		require.NoError(t, err)

		_, err = h.svc.InitiatePayment(context.Background(), &model.InitiatePaymentRequest{
			BookingID: booking.Booking.ID,
			Provider:  model.ProviderKaafi,
		})
		assertCode(t, err, apperrors.CodeInvalidBookingStatus)
	})

	t.Run("gateway down", func(t *testing.T) {
		h := newHarness(t)
		booking := h.createBooking(t)
		h.gateway.err = errors.New("connection refused")

		_, err := h.svc.InitiatePayment(context.Background(), &model.InitiatePaymentRequest{
			BookingID: booking.Booking.ID,
			Provider:  model.ProviderTelebirr,
		})
		assertCode(t, err, apperrors.CodeUnavailable)
		assert.Equal(t, model.BookingStatusPendingPayment, h.bookingStatus(t, booking.Booking.ID))
	})
}

func TestHandlePaymentCallback_Success(t *testing.T) {
	h := newHarness(t)
	booking := h.createBooking(t)
	initiated := h.initiate(t, booking.Booking.ID)

	req := func() *model.PaymentCallbackRequest {
		return &model.PaymentCallbackRequest{
			Status:            " SUCCESS ",
			ProviderReference: initiated.Payment.ProviderReference,
			TransactionID:     "TX-1",
			Amount:            amount(3600),
		}
	}

	result, err := h.svc.HandlePaymentCallback(context.Background(), req())
	require.NoError(t, err)
	assert.False(t, result.AlreadyProcessed)
	assert.Equal(t, model.PaymentStatusSuccess, result.Payment.Status)
	assert.Equal(t, "TX-1", result.Payment.TransactionID)
	assert.Equal(t, model.BookingStatusConfirmed, result.Booking.Status)
	assert.Equal(t, model.RoomStatusOccupied, h.roomStatus(t))

	logsBefore := h.logActions(t, initiated.Payment.ID)
	eventsBefore := h.events.Types()

	replay, err := h.svc.HandlePaymentCallback(context.Background(), req())
	require.NoError(t, err)
	assert.True(t, replay.AlreadyProcessed)
	assert.Equal(t, model.PaymentStatusSuccess, replay.Payment.Status)

	// a late failure report cannot undo a success
	late, err := h.svc.HandlePaymentCallback(context.Background(), &model.PaymentCallbackRequest{
		Status:            "failed",
		ProviderReference: initiated.Payment.ProviderReference,
	})
	require.NoError(t, err)
	assert.True(t, late.AlreadyProcessed)
	assert.Equal(t, model.BookingStatusConfirmed, h.bookingStatus(t, booking.Booking.ID))

	assert.Equal(t, logsBefore, h.logActions(t, initiated.Payment.ID))
	assert.Equal(t, eventsBefore, h.events.Types())
	assert.Contains(t, logsBefore, model.ActionPaymentSuccess)
	assert.Equal(t, events.PaymentSucceeded, eventsBefore[len(eventsBefore)-1])
}

func TestHandlePaymentCallback_Failure(t *testing.T) {
	h := newHarness(t)
	booking := h.createBooking(t)

	result, err := h.svc.HandlePaymentCallback(context.Background(), &model.PaymentCallbackRequest{
		Status:       "declined",
		BookingID:    booking.Booking.ID,
		ErrorMessage: "insufficient funds",
	})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusFailed, result.Payment.Status)
	assert.Equal(t, "insufficient funds", result.Payment.ErrorMessage)
	assert.Equal(t, model.BookingStatusCancelled, result.Booking.Status)
	assert.Equal(t, model.RoomStatusAvailable, h.roomStatus(t))

	replay, err := h.svc.HandlePaymentCallback(context.Background(), &model.PaymentCallbackRequest{
		Status:    "failed",
		BookingID: booking.Booking.ID,
	})
	require.NoError(t, err)
	assert.True(t, replay.AlreadyProcessed)

	_, err = h.svc.HandlePaymentCallback(context.Background(), &model.PaymentCallbackRequest{
		Status:    "success",
		BookingID: booking.Booking.ID,
	})
	assertCode(t, err, apperrors.CodeInvalidStatusTransition)

	assert.Equal(t, []string{model.ActionBookingCreated, model.ActionPaymentFailed}, h.logActions(t, booking.Payment.ID))
	assert.Equal(t, []string{events.BookingCreated, events.PaymentFailed}, h.events.Types())
}

func TestHandlePaymentCallback_AmountMismatch(t *testing.T) {
	h := newHarness(t)
	booking := h.createBooking(t)

	_, err := h.svc.HandlePaymentCallback(context.Background(), &model.PaymentCallbackRequest{
		Status:    "success",
		BookingID: booking.Booking.ID,
		Amount:    amount(1800),
	})
	assertCode(t, err, apperrors.CodePaymentMismatch)

	assert.Equal(t, model.PaymentStatusPending, h.payment(t, booking.Payment.ID).Status)
	assert.Equal(t, model.BookingStatusPendingPayment, h.bookingStatus(t, booking.Booking.ID))
	assert.Equal(t, model.RoomStatusOccupied, h.roomStatus(t))
	assert.Equal(t, []string{model.ActionBookingCreated, model.ActionPaymentMismatch}, h.logActions(t, booking.Payment.ID))
}

func TestHandlePaymentCallback_Lookup(t *testing.T) {
	h := newHarness(t)
	booking := h.createBooking(t)

	_, err := h.svc.HandlePaymentCallback(context.Background(), &model.PaymentCallbackRequest{
		Status:            "success",
		ProviderReference: "TELEBIRR-unknown",
	})
	assertCode(t, err, apperrors.CodePaymentNotFound)

	// an unknown reference falls back to the booking
	result, err := h.svc.HandlePaymentCallback(context.Background(), &model.PaymentCallbackRequest{
		Status:            "success",
		ProviderReference: "TELEBIRR-unknown",
		BookingID:         booking.Booking.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, booking.Payment.ID, result.Payment.ID)

	_, err = h.svc.HandlePaymentCallback(context.Background(), &model.PaymentCallbackRequest{Status: "success"})
	assertCode(t, err, apperrors.CodeBadRequest)
}

func TestHandlePaymentCallback_BookingNoLongerPayable(t *testing.T) {
	h := newHarness(t)
	booking := h.createBooking(t)
	require.NoError(t, h.store.Bookings().UpdateStatus(context.Background(), booking.Booking.ID, model.BookingStatusCancelled, start))

	_, err := h.svc.HandlePaymentCallback(context.Background(), &model.PaymentCallbackRequest{
		Status:    "success",
		BookingID: booking.Booking.ID,
	})
	assertCode(t, err, apperrors.CodeInvalidBookingStatus)

	assert.Equal(t, model.PaymentStatusPending, h.payment(t, booking.Payment.ID).Status)
	assert.Equal(t, []string{model.ActionBookingCreated, model.ActionPaymentRejected}, h.logActions(t, booking.Payment.ID))
}

func TestUpdatePayment(t *testing.T) {
	t.Run("failed cancels booking and frees room", func(t *testing.T) {
		h := newHarness(t)
		booking := h.createBooking(t)

		msg := "refused by admin"
		p, err := h.svc.UpdatePayment(context.Background(), booking.Payment.ID, &model.PaymentUpdate{
			Status:       model.PaymentStatusFailed,
			ErrorMessage: &msg,
		})
		require.NoError(t, err)
		assert.Equal(t, model.PaymentStatusFailed, p.Status)
		assert.Equal(t, msg, p.ErrorMessage)
		assert.Equal(t, model.BookingStatusCancelled, h.bookingStatus(t, booking.Booking.ID))
		assert.Equal(t, model.RoomStatusAvailable, h.roomStatus(t))
		assert.Equal(t, events.PaymentUpdated, h.events.Types()[len(h.events.Types())-1])
	})

	t.Run("success confirms booking", func(t *testing.T) {
		h := newHarness(t)
		booking := h.createBooking(t)

		p, err := h.svc.UpdatePayment(context.Background(), booking.Payment.ID, &model.PaymentUpdate{Status: model.PaymentStatusSuccess})
		require.NoError(t, err)
		assert.Equal(t, model.PaymentStatusSuccess, p.Status)
		assert.Equal(t, model.BookingStatusConfirmed, h.bookingStatus(t, booking.Booking.ID))

		_, err = h.svc.UpdatePayment(context.Background(), booking.Payment.ID, &model.PaymentUpdate{Status: model.PaymentStatusFailed})
		assertCode(t, err, apperrors.CodeInvalidStatusTransition)

		txID := "TX-9"
		_, err = h.svc.UpdatePayment(context.Background(), booking.Payment.ID, &model.PaymentUpdate{TransactionID: &txID})
		assertCode(t, err, apperrors.CodeInvalidOperation)
	})

	t.Run("illegal transition leaves state unchanged", func(t *testing.T) {
		h := newHarness(t)
		booking := h.createBooking(t)
		_, err := h.svc.UpdatePayment(context.Background(), booking.Payment.ID, &model.PaymentUpdate{Status: model.PaymentStatusFailed})
		require.NoError(t, err)

		_, err = h.svc.UpdatePayment(context.Background(), booking.Payment.ID, &model.PaymentUpdate{Status: model.PaymentStatusSuccess})
		assertCode(t, err, apperrors.CodeInvalidStatusTransition)
		assert.Equal(t, model.PaymentStatusFailed, h.payment(t, booking.Payment.ID).Status)
	})

	t.Run("field update keeps status", func(t *testing.T) {
		h := newHarness(t)
		booking := h.createBooking(t)

		txID := "  TX-42 "
		p, err := h.svc.UpdatePayment(context.Background(), booking.Payment.ID, &model.PaymentUpdate{
			Provider:      "Ebirr",
			TransactionID: &txID,
		})
		require.NoError(t, err)
		assert.Equal(t, model.PaymentStatusPending, p.Status)
		assert.Equal(t, model.ProviderEbirr, p.Provider)
		assert.Equal(t, "TX-42", p.TransactionID)
		assert.Equal(t, []string{model.ActionBookingCreated, model.ActionPaymentUpdated}, h.logActions(t, p.ID))
	})

	t.Run("unknown payment", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.svc.UpdatePayment(context.Background(), "missing", &model.PaymentUpdate{Status: model.PaymentStatusFailed})
		assertCode(t, err, apperrors.CodePaymentNotFound)
	})
}

func TestDeletePayment(t *testing.T) {
	h := newHarness(t)
	booking := h.createBooking(t)

	require.NoError(t, h.svc.DeletePayment(context.Background(), booking.Payment.ID))

	_, err := h.store.Payments().FindByID(context.Background(), booking.Payment.ID)
	assert.Error(t, err)
	assert.Empty(t, h.logActions(t, booking.Payment.ID))
	assert.Equal(t, model.BookingStatusCancelled, h.bookingStatus(t, booking.Booking.ID))
	assert.Equal(t, model.RoomStatusAvailable, h.roomStatus(t))
	assert.Equal(t, []string{events.BookingCreated, events.PaymentDeleted}, h.events.Types())

	err = h.svc.DeletePayment(context.Background(), booking.Payment.ID)
	assertCode(t, err, apperrors.CodePaymentNotFound)
}

func TestDeletePayment_SuccessfulPaymentIsKept(t *testing.T) {
	h := newHarness(t)
	booking := h.createBooking(t)
	_, err := h.svc.HandlePaymentCallback(context.Background(), &model.PaymentCallbackRequest{
		Status:    "success",
		BookingID: booking.Booking.ID,
	})
	require.NoError(t, err)

	err = h.svc.DeletePayment(context.Background(), booking.Payment.ID)
	assertCode(t, err, apperrors.CodeInvalidOperation)
	assert.Equal(t, model.PaymentStatusSuccess, h.payment(t, booking.Payment.ID).Status)
	assert.Equal(t, model.BookingStatusConfirmed, h.bookingStatus(t, booking.Booking.ID))
}

func TestExpirePendingBooking(t *testing.T) {
	h := newHarness(t)
	booking := h.createBooking(t)

	cutoff := h.clock.Now().Add(-15 * time.Minute)
	expired, err := h.svc.ExpirePendingBooking(context.Background(), booking.Booking.ID, cutoff)
	require.NoError(t, err)
	assert.False(t, expired, "a fresh booking is kept")

	h.clock.Advance(20 * time.Minute)
	cutoff = h.clock.Now().Add(-15 * time.Minute)
	expired, err = h.svc.ExpirePendingBooking(context.Background(), booking.Booking.ID, cutoff)
	require.NoError(t, err)
	assert.True(t, expired)

	assert.Equal(t, model.BookingStatusExpired, h.bookingStatus(t, booking.Booking.ID))
	assert.Equal(t, model.RoomStatusAvailable, h.roomStatus(t))
	assert.Equal(t, model.PaymentStatusCancelled, h.payment(t, booking.Payment.ID).Status)
	assert.Equal(t, []string{model.ActionBookingCreated, model.ActionBookingExpired}, h.logActions(t, booking.Payment.ID))
	assert.Equal(t, []string{events.BookingCreated, events.BookingExpired}, h.events.Types())

	expired, err = h.svc.ExpirePendingBooking(context.Background(), booking.Booking.ID, cutoff)
	require.NoError(t, err)
	assert.False(t, expired, "expiry is applied once")

	_, err = h.svc.HandlePaymentCallback(context.Background(), &model.PaymentCallbackRequest{
		Status:    "success",
		BookingID: booking.Booking.ID,
	})
	assertCode(t, err, apperrors.CodeInvalidStatusTransition)
}

func TestExpirePendingBooking_ConfirmedIsKept(t *testing.T) {
	h := newHarness(t)
	booking := h.createBooking(t)
	_, err := h.svc.HandlePaymentCallback(context.Background(), &model.PaymentCallbackRequest{
		Status:    "success",
		BookingID: booking.Booking.ID,
	})
	require.NoError(t, err)

	h.clock.Advance(time.Hour)
	expired, err := h.svc.ExpirePendingBooking(context.Background(), booking.Booking.ID, h.clock.Now())
	require.NoError(t, err)
	assert.False(t, expired)
	assert.Equal(t, model.BookingStatusConfirmed, h.bookingStatus(t, booking.Booking.ID))
	assert.Equal(t, model.RoomStatusOccupied, h.roomStatus(t))
}

func TestGetBookingAndPayment(t *testing.T) {
	h := newHarness(t)
	booking := h.createBooking(t)
	h.initiate(t, booking.Booking.ID)

	details, err := h.svc.GetBooking(context.Background(), booking.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.Booking.ID, details.ID)
	require.NotNil(t, details.User)
	assert.Equal(t, "+251911234567", details.User.Phone)
	require.NotNil(t, details.Hotel)
	assert.Equal(t, h.hotel.ID, details.Hotel.ID)
	require.NotNil(t, details.Room)
	require.Len(t, details.Payments, 1)
	assert.Equal(t, model.ProviderChappa, details.Payments[0].Provider)

	payment, err := h.svc.GetPayment(context.Background(), booking.Payment.ID)
	require.NoError(t, err)
	require.Len(t, payment.Logs, 2)
	assert.Equal(t, model.ActionBookingCreated, payment.Logs[0].Action)
	assert.Equal(t, model.ActionPaymentInitiated, payment.Logs[1].Action)

	_, err = h.svc.GetBooking(context.Background(), "missing")
	assertCode(t, err, apperrors.CodeNotFound)
	_, err = h.svc.GetPayment(context.Background(), "missing")
	assertCode(t, err, apperrors.CodePaymentNotFound)
}

func TestNightsBetween(t *testing.T) {
	day := 24 * time.Hour
	in := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 1, nightsBetween(in, in.Add(day)))
	assert.Equal(t, 2, nightsBetween(in, in.Add(2*day)))
	assert.Equal(t, 2, nightsBetween(in, in.Add(day+time.Hour)), "a started day counts")
	assert.Equal(t, 1, nightsBetween(in.Add(14*time.Hour), in.Add(day+10*time.Hour)))
}

// failingLogs refuses to append the named action and passes the rest on.
type failingLogs struct {
	paymentsrepo.PaymentLogRepository
	action    string
	attempted *model.PaymentLog
}

func (l *failingLogs) Append(ctx context.Context, entry *model.PaymentLog) error {
	if entry.Action == l.action {
		l.attempted = entry
		return errors.New("log write failed")
	}
	return l.PaymentLogRepository.Append(ctx, entry)
}

func (h *harness) withFailingLogs(action string) *failingLogs {
	logs := &failingLogs{PaymentLogRepository: h.store.PaymentLogs(), action: action}
	h.svc = New(Dependencies{
		Tx:           h.store,
		Hotels:       h.store.Hotels(),
		Rooms:        h.store.Rooms(),
		Customers:    h.store.Customers(),
		Bookings:     h.store.Bookings(),
		BookingLocks: h.store.BookingLocks(),
		Payments:     h.store.Payments(),
		PaymentLogs:  logs,
		Gateway:      h.gateway,
		Events:       h.events,
		Clock:        h.clock,
		Log:          logger.Nop(),
	})
	return logs
}

func TestCreateBooking_LogFailureRollsBack(t *testing.T) {
	h := newHarness(t)
	logs := h.withFailingLogs(model.ActionBookingCreated)

	_, err := h.svc.CreateBooking(context.Background(), h.request("+251911234567"))
	assertCode(t, err, apperrors.CodeInternal)
	require.NotNil(t, logs.attempted)

	_, err = h.store.Bookings().FindByID(context.Background(), logs.attempted.BookingID)
	assert.Error(t, err, "booking must not survive")
	_, err = h.store.Payments().FindByID(context.Background(), logs.attempted.PaymentID)
	assert.Error(t, err, "payment must not survive")
	assert.Empty(t, h.logActions(t, logs.attempted.PaymentID))

	pending, err := h.store.Bookings().FindExpiredPending(context.Background(), start.Add(time.Hour), nil, 0)
	require.NoError(t, err)
	assert.Empty(t, pending)
	assert.Equal(t, model.RoomStatusAvailable, h.roomStatus(t))
	assert.Empty(t, h.events.Types())

	// the room lock was released, so a healthy retry goes through
	logs.action = ""
	h.createBooking(t)
}

func TestHandlePaymentCallback_LogFailureRollsBack(t *testing.T) {
	tests := []struct {
		name   string
		action string
		status string
	}{
		{name: "success", action: model.ActionPaymentSuccess, status: "success"},
		{name: "failure", action: model.ActionPaymentFailed, status: "failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			booking := h.createBooking(t)
			h.withFailingLogs(tt.action)
			eventsBefore := h.events.Types()

			_, err := h.svc.HandlePaymentCallback(context.Background(), &model.PaymentCallbackRequest{
				Status:        tt.status,
				BookingID:     booking.Booking.ID,
				TransactionID: "TX-9",
				Amount:        amount(3600),
			})
			assertCode(t, err, apperrors.CodeInternal)

			p := h.payment(t, booking.Payment.ID)
			assert.Equal(t, model.PaymentStatusPending, p.Status)
			assert.Empty(t, p.TransactionID)
			assert.Equal(t, model.BookingStatusPendingPayment, h.bookingStatus(t, booking.Booking.ID))
			assert.Equal(t, model.RoomStatusOccupied, h.roomStatus(t))
			assert.Equal(t, []string{model.ActionBookingCreated}, h.logActions(t, booking.Payment.ID))
			assert.Equal(t, eventsBefore, h.events.Types())
		})
	}
}
