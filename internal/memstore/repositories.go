package memstore

import (
	"context"
	"sort"
	"time"

	bookingserrors "hotelbooking/internal/bookings/errors"
	customerserrors "hotelbooking/internal/customers/errors"
	inventoryerrors "hotelbooking/internal/inventory/errors"
	paymentserrors "hotelbooking/internal/payments/errors"
	"hotelbooking/pkg/model"
)

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}

type hotelRepository struct{ s *Store }

func (r *hotelRepository) FindByID(_ context.Context, id string) (*model.Hotel, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	h, ok := r.s.hotels[id]
	if !ok {
		return nil, inventoryerrors.ErrHotelNotFound
	}
	return &h, nil
}

func (r *hotelRepository) FindActiveByID(ctx context.Context, id string) (*model.Hotel, error) {
	h, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !h.IsActive() {
		return nil, inventoryerrors.ErrHotelNotFound
	}
	return h, nil
}

type roomRepository struct{ s *Store }

func (r *roomRepository) FindByID(_ context.Context, id string) (*model.Room, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	room, ok := r.s.rooms[id]
	if !ok {
		return nil, inventoryerrors.ErrRoomNotFound
	}
	return &room, nil
}

func (r *roomRepository) FindByIDAndHotel(ctx context.Context, id string, hotelID string) (*model.Room, error) {
	room, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if room.HotelID != hotelID {
		return nil, inventoryerrors.ErrRoomNotFound
	}
	return room, nil
}

func (r *roomRepository) Lock(_ context.Context, id string) (*model.Room, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	room, ok := r.s.rooms[id]
	if !ok {
		return nil, inventoryerrors.ErrRoomNotFound
	}
	room.LockVersion++
	r.s.rooms[id] = room
	return &room, nil
}

func (r *roomRepository) SetStatus(_ context.Context, id string, status string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	room, ok := r.s.rooms[id]
	if !ok {
		return inventoryerrors.ErrRoomNotFound
	}
	room.Status = status
	room.UpdatedAt = at
	r.s.rooms[id] = room
	return nil
}

type customerRepository struct{ s *Store }

func (r *customerRepository) FindOrCreateByPhone(_ context.Context, user *model.User) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Phone == user.Phone {
			return &u, nil
		}
	}
	u := *user
	u.ID = newID()
	r.s.users[u.ID] = u
	return &u, nil
}

func (r *customerRepository) FindByID(_ context.Context, id string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, customerserrors.ErrNotFound
	}
	return &u, nil
}

type bookingRepository struct{ s *Store }

func (r *bookingRepository) Create(_ context.Context, booking *model.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	booking.ID = newID()
	r.s.bookings[booking.ID] = *booking
	return nil
}

func (r *bookingRepository) FindByID(_ context.Context, id string) (*model.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	return &b, nil
}

func (r *bookingRepository) FindOverlapping(_ context.Context, roomID string, checkin, checkout time.Time, statuses []string) (*model.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, b := range r.s.bookings {
		if b.RoomID == roomID && contains(statuses, b.Status) && b.Overlaps(checkin, checkout) {
			return &b, nil
		}
	}
	return nil, nil
}

func (r *bookingRepository) FindDuplicate(_ context.Context, userID, hotelID, roomID string, checkin, checkout time.Time, statuses []string) (*model.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, b := range r.s.bookings {
		if b.UserID == userID && b.HotelID == hotelID && b.RoomID == roomID &&
			b.CheckinDate.Equal(checkin) && b.CheckoutDate.Equal(checkout) &&
			contains(statuses, b.Status) {
			return &b, nil
		}
	}
	return nil, nil
}

func (r *bookingRepository) UpdateStatus(_ context.Context, id string, status string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[id]
	if !ok {
		return bookingserrors.ErrNotFound
	}
	b.Status = status
	b.UpdatedAt = at
	r.s.bookings[id] = b
	return nil
}

func (r *bookingRepository) FindExpiredPending(_ context.Context, createdBefore time.Time, after *model.BookingCursor, limit int) ([]*model.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*model.Booking
	for _, b := range r.s.bookings {
		b := b
		if b.Status != model.BookingStatusPendingPayment || !b.CreatedAt.Before(createdBefore) {
			continue
		}
		if after != nil && !cursorLess(after, b.CreatedAt, b.ID) {
			continue
		}
		out = append(out, &b)
	}
	sort.Slice(out, func(i, j int) bool {
		return cursorLess(out[i].CursorAfter(), out[j].CreatedAt, out[j].ID)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// cursorLess reports whether c sorts before (createdAt, id). Hex ObjectIDs
// of equal length compare like the ObjectIDs themselves.
func cursorLess(c *model.BookingCursor, createdAt time.Time, id string) bool {
	if !c.CreatedAt.Equal(createdAt) {
		return c.CreatedAt.Before(createdAt)
	}
	return c.ID < id
}

type bookingLockRepository struct{ s *Store }

func (r *bookingLockRepository) Create(_ context.Context, lock *model.BookingLock) (*model.BookingLock, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if existing, ok := r.s.locks[lock.ID]; ok && existing.ExpiresAt.After(lock.CreatedAt) {
		return nil, bookingserrors.ErrLocked
	}
	r.s.locks[lock.ID] = *lock
	return lock, nil
}

func (r *bookingLockRepository) Release(_ context.Context, lock *model.BookingLock) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if existing, ok := r.s.locks[lock.ID]; ok && existing.Token == lock.Token {
		delete(r.s.locks, lock.ID)
	}
	return nil
}

type paymentRepository struct{ s *Store }

func (r *paymentRepository) referenceTaken(ref, exceptID string) bool {
	if ref == "" {
		return false
	}
	for id, p := range r.s.payments {
		if id != exceptID && p.ProviderReference == ref {
			return true
		}
	}
	return false
}

func (r *paymentRepository) Create(_ context.Context, payment *model.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.payments {
		if p.BookingID == payment.BookingID {
			return paymentserrors.ErrDuplicateReference
		}
	}
	if r.referenceTaken(payment.ProviderReference, "") {
		return paymentserrors.ErrDuplicateReference
	}
	payment.ID = newID()
	r.s.payments[payment.ID] = *payment
	return nil
}

func (r *paymentRepository) FindByID(_ context.Context, id string) (*model.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.payments[id]
	if !ok {
		return nil, paymentserrors.ErrNotFound
	}
	return &p, nil
}

func (r *paymentRepository) find(match func(model.Payment) bool) (*model.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, p := range r.s.payments {
		if match(p) {
			return &p, nil
		}
	}
	return nil, paymentserrors.ErrNotFound
}

func (r *paymentRepository) FindByBooking(_ context.Context, bookingID string) (*model.Payment, error) {
	return r.find(func(p model.Payment) bool { return p.BookingID == bookingID })
}

func (r *paymentRepository) FindByProviderReference(_ context.Context, reference string) (*model.Payment, error) {
	if reference == "" {
		return nil, paymentserrors.ErrNotFound
	}
	return r.find(func(p model.Payment) bool { return p.ProviderReference == reference })
}

func (r *paymentRepository) ListByBooking(_ context.Context, bookingID string) ([]*model.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*model.Payment{}
	for _, p := range r.s.payments {
		p := p
		if p.BookingID == bookingID {
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *paymentRepository) Update(_ context.Context, payment *model.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.payments[payment.ID]; !ok {
		return paymentserrors.ErrNotFound
	}
	if r.referenceTaken(payment.ProviderReference, payment.ID) {
		return paymentserrors.ErrDuplicateReference
	}
	r.s.payments[payment.ID] = *payment
	return nil
}

func (r *paymentRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.payments[id]; !ok {
		return paymentserrors.ErrNotFound
	}
	delete(r.s.payments, id)
	return nil
}

type paymentLogRepository struct{ s *Store }

func (r *paymentLogRepository) Append(_ context.Context, entry *model.PaymentLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	entry.ID = newID()
	r.s.logs[entry.ID] = *entry
	r.s.logOrder = append(r.s.logOrder, entry.ID)
	return nil
}

func (r *paymentLogRepository) ListByPayment(_ context.Context, paymentID string) ([]*model.PaymentLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*model.PaymentLog{}
	for _, id := range r.s.logOrder {
		entry, ok := r.s.logs[id]
		if ok && entry.PaymentID == paymentID {
			out = append(out, &entry)
		}
	}
	return out, nil
}

func (r *paymentLogRepository) DeleteByPayment(_ context.Context, paymentID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var deleted int64
	kept := r.s.logOrder[:0:0]
	for _, id := range r.s.logOrder {
		entry, ok := r.s.logs[id]
		if ok && entry.PaymentID == paymentID {
			delete(r.s.logs, id)
			deleted++
			continue
		}
		kept = append(kept, id)
	}
	r.s.logOrder = kept
	return deleted, nil
}
