package sweeper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"hotelbooking/internal/events"
	"hotelbooking/internal/memstore"
	"hotelbooking/internal/orchestrator"
	"hotelbooking/internal/payments/gateway"
	"hotelbooking/pkg/clock"
	"hotelbooking/pkg/logger"
	"hotelbooking/pkg/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopGateway struct{}

func (noopGateway) Checkout(context.Context, gateway.CheckoutRequest) (*gateway.Checkout, error) {
	return &gateway.Checkout{PaymentURL: "https://pay.example.com"}, nil
}

type fixture struct {
	store *memstore.Store
	svc   *orchestrator.Service
	clock *clock.Manual
	hotel *model.Hotel
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	clk := clock.NewManual(time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC))
	svc := orchestrator.New(orchestrator.Dependencies{
		Tx:           store,
		Hotels:       store.Hotels(),
		Rooms:        store.Rooms(),
		Customers:    store.Customers(),
		Bookings:     store.Bookings(),
		BookingLocks: store.BookingLocks(),
		Payments:     store.Payments(),
		PaymentLogs:  store.PaymentLogs(),
		Gateway:      noopGateway{},
		Events:       &events.Recorder{},
		Clock:        clk,
		Log:          logger.Nop(),
	})
	hotel := store.SeedHotel(model.Hotel{Name: "Ghion", Status: model.HotelStatusActive})
	return &fixture{store: store, svc: svc, clock: clk, hotel: hotel}
}

func (f *fixture) book(t *testing.T, roomNumber, phone string) *model.BookingResult {
	t.Helper()
	room := f.store.SeedRoom(model.Room{
		HotelID:       f.hotel.ID,
		RoomNumber:    roomNumber,
		PricePerNight: decimal.NewFromInt(1200),
		Status:        model.RoomStatusAvailable,
	})
	result, err := f.svc.CreateBooking(context.Background(), &model.CreateBookingRequest{
		UserName: "Sara Tesfaye",
		Phone:    phone,
		HotelID:  f.hotel.ID,
		RoomID:   room.ID,
		CheckIn:  "2026-10-25",
		CheckOut: "2026-10-26",
	})
	require.NoError(t, err)
	return result
}

func (f *fixture) status(t *testing.T, bookingID string) string {
	t.Helper()
	b, err := f.store.Bookings().FindByID(context.Background(), bookingID)
	require.NoError(t, err)
	return b.Status
}

func TestSweepOnce(t *testing.T) {
	f := newFixture(t)
	old := f.book(t, "201", "+251911111111")
	fresh := f.book(t, "202", "+251922222222")
	f.store.Backdate(old.Booking.ID, f.clock.Now().Add(-20*time.Minute))
	f.store.Backdate(fresh.Booking.ID, f.clock.Now().Add(-5*time.Minute))

	s := New(f.store.Bookings(), f.svc, f.clock, Config{TTL: 15 * time.Minute}, logger.Nop())

	report, err := s.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Scanned)
	assert.Equal(t, 1, report.Expired)
	assert.Empty(t, report.Errors)

	assert.Equal(t, model.BookingStatusExpired, f.status(t, old.Booking.ID))
	assert.Equal(t, model.BookingStatusPendingPayment, f.status(t, fresh.Booking.ID))

	room, err := f.store.Rooms().FindByID(context.Background(), old.Booking.RoomID)
	require.NoError(t, err)
	assert.Equal(t, model.RoomStatusAvailable, room.Status)

	report, err = s.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Scanned)
	assert.Zero(t, report.Expired)
}

func TestSweepOnce_Batches(t *testing.T) {
	f := newFixture(t)
	phones := []string{"+251911000001", "+251911000002", "+251911000003", "+251911000004", "+251911000005"}
	for i, phone := range phones {
		b := f.book(t, string(rune('A'+i)), phone)
		f.store.Backdate(b.Booking.ID, f.clock.Now().Add(-time.Hour))
	}

	s := New(f.store.Bookings(), f.svc, f.clock, Config{TTL: 15 * time.Minute, BatchSize: 2}, logger.Nop())

	report, err := s.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, report.Expired)
	assert.Equal(t, 5, report.Scanned)
}

type failingExpirer struct {
	mu    sync.Mutex
	calls int
}

func (e *failingExpirer) ExpirePendingBooking(context.Context, string, time.Time) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	return false, errors.New("write conflict")
}

func TestSweepOnce_ErrorsDoNotLoop(t *testing.T) {
	f := newFixture(t)
	for i, phone := range []string{"+251911000011", "+251911000012"} {
		b := f.book(t, string(rune('K'+i)), phone)
		f.store.Backdate(b.Booking.ID, f.clock.Now().Add(-time.Hour))
	}

	expirer := &failingExpirer{}
	s := New(f.store.Bookings(), expirer, f.clock, Config{BatchSize: 2}, logger.Nop())

	report, err := s.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Scanned)
	assert.Zero(t, report.Expired)
	require.Len(t, report.Errors, 2)
	assert.Equal(t, "write conflict", report.Errors[0].Error)
	assert.Equal(t, 2, expirer.calls)
}

// stuckExpirer fails the listed bookings and hands the rest to next.
type stuckExpirer struct {
	stuck map[string]bool
	next  Expirer
}

func (e *stuckExpirer) ExpirePendingBooking(ctx context.Context, id string, cutoff time.Time) (bool, error) {
	if e.stuck[id] {
		return false, errors.New("write conflict")
	}
	return e.next.ExpirePendingBooking(ctx, id, cutoff)
}

func TestSweepOnce_FailingRowsDoNotStarveNewer(t *testing.T) {
	f := newFixture(t)
	var ids []string
	for i, phone := range []string{"+251911000021", "+251911000022", "+251911000023"} {
		b := f.book(t, string(rune('P'+i)), phone)
		f.store.Backdate(b.Booking.ID, f.clock.Now().Add(-time.Hour+time.Duration(i)*time.Minute))
		ids = append(ids, b.Booking.ID)
	}

	expirer := &stuckExpirer{stuck: map[string]bool{ids[0]: true, ids[1]: true}, next: f.svc}
	s := New(f.store.Bookings(), expirer, f.clock, Config{TTL: 15 * time.Minute, BatchSize: 2}, logger.Nop())

	for i := 0; i < 2; i++ {
		report, err := s.SweepOnce(context.Background())
		require.NoError(t, err)
		assert.Len(t, report.Errors, 2)
	}

	assert.Equal(t, model.BookingStatusPendingPayment, f.status(t, ids[0]))
	assert.Equal(t, model.BookingStatusPendingPayment, f.status(t, ids[1]))
	assert.Equal(t, model.BookingStatusExpired, f.status(t, ids[2]))
}

func TestRun_StopsOnCancel(t *testing.T) {
	f := newFixture(t)
	s := New(f.store.Bookings(), f.svc, f.clock, Config{Interval: time.Millisecond}, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
