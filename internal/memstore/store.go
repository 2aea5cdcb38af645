// Package memstore keeps every collection in process memory. It backs the
// service when STORAGE_DRIVER=memory and is the storage used by tests.
//
// Transactions are serialized by a single mutex and rolled back by restoring
// a snapshot of the entity maps, which gives the same all-or-nothing outcome
// as a Mongo transaction on a single node.
package memstore

import (
	"context"
	"sync"
	"time"

	bookingsrepo "hotelbooking/internal/bookings/repository"
	customersrepo "hotelbooking/internal/customers/repository"
	inventoryrepo "hotelbooking/internal/inventory/repository"
	paymentsrepo "hotelbooking/internal/payments/repository"
	mongotx "hotelbooking/pkg/db/mongo"
	"hotelbooking/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	hotels   map[string]model.Hotel
	rooms    map[string]model.Room
	users    map[string]model.User
	bookings map[string]model.Booking
	payments map[string]model.Payment
	logs     map[string]model.PaymentLog
	// insertion order of log IDs, logs are listed in the order they were appended
	logOrder []string

	// locks are deliberately outside transactions, like the Booking_locks collection.
	locks map[string]model.BookingLock
}

func New() *Store {
	return &Store{
		hotels:   map[string]model.Hotel{},
		rooms:    map[string]model.Room{},
		users:    map[string]model.User{},
		bookings: map[string]model.Booking{},
		payments: map[string]model.Payment{},
		logs:     map[string]model.PaymentLog{},
		locks:    map[string]model.BookingLock{},
	}
}

func newID() string {
	return primitive.NewObjectID().Hex()
}

type snapshot struct {
	hotels   map[string]model.Hotel
	rooms    map[string]model.Room
	users    map[string]model.User
	bookings map[string]model.Booking
	payments map[string]model.Payment
	logs     map[string]model.PaymentLog
	logOrder []string
}

func cloneMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{
		hotels:   cloneMap(s.hotels),
		rooms:    cloneMap(s.rooms),
		users:    cloneMap(s.users),
		bookings: cloneMap(s.bookings),
		payments: cloneMap(s.payments),
		logs:     cloneMap(s.logs),
		logOrder: append([]string(nil), s.logOrder...),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hotels = snap.hotels
	s.rooms = snap.rooms
	s.users = snap.users
	s.bookings = snap.bookings
	s.payments = snap.payments
	s.logs = snap.logs
	s.logOrder = snap.logOrder
}

// ExecuteTransaction implements mongotx.TransactionManager.
func (s *Store) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snap := s.snapshot()
	if err := fn(ctx); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// SeedHotel inserts or replaces a hotel. Hotels and rooms are managed
// outside the service, so seeding is the only way to create them.
func (s *Store) SeedHotel(h model.Hotel) *model.Hotel {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h.ID == "" {
		h.ID = newID()
	}
	s.hotels[h.ID] = h
	return &h
}

func (s *Store) SeedRoom(r model.Room) *model.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == "" {
		r.ID = newID()
	}
	s.rooms[r.ID] = r
	return &r
}

// Backdate rewrites a booking's creation time.
func (s *Store) Backdate(bookingID string, createdAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.bookings[bookingID]; ok {
		b.CreatedAt = createdAt
		s.bookings[bookingID] = b
	}
}

func (s *Store) Hotels() inventoryrepo.HotelRepository {
	return &hotelRepository{s: s}
}

func (s *Store) Rooms() inventoryrepo.RoomRepository {
	return &roomRepository{s: s}
}

func (s *Store) Customers() customersrepo.CustomerRepository {
	return &customerRepository{s: s}
}

func (s *Store) Bookings() bookingsrepo.BookingRepository {
	return &bookingRepository{s: s}
}

func (s *Store) BookingLocks() bookingsrepo.BookingLockRepository {
	return &bookingLockRepository{s: s}
}

func (s *Store) Payments() paymentsrepo.PaymentRepository {
	return &paymentRepository{s: s}
}

func (s *Store) PaymentLogs() paymentsrepo.PaymentLogRepository {
	return &paymentLogRepository{s: s}
}

// Ping lets the store stand in for a database in readiness checks.
func (s *Store) Ping(context.Context) error {
	return nil
}
