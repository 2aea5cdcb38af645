package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoomStatusAvailable   = "available"
	RoomStatusOccupied    = "occupied"
	RoomStatusMaintenance = "maintenance"
	RoomStatusOutOfOrder  = "out_of_order"
)

// Room status moves between available and occupied as bookings hold and
// release it. Rooms are never deleted.
type Room struct {
	ID            string          `json:"id,omitempty" bson:"_id,omitempty"`
	HotelID       string          `json:"hotel_id" bson:"hotel_id"`
	RoomNumber    string          `json:"room_number" bson:"room_number"`
	RoomType      string          `json:"room_type" bson:"room_type"`
	PricePerNight decimal.Decimal `json:"price_per_night" bson:"price_per_night"`
	Status        string          `json:"status" bson:"status"`
	LockVersion   int64           `json:"-" bson:"lock_version"`
	UpdatedAt     time.Time       `json:"updated_at" bson:"updated_at"`
}

func (r *Room) IsAvailable() bool {
	return r.Status == RoomStatusAvailable
}

func (r *Room) IsBookable() bool {
	return r.Status == RoomStatusAvailable || r.Status == RoomStatusOccupied
}
