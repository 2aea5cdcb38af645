package model

import "time"

const (
	HotelStatusActive    = "active"
	HotelStatusInactive  = "inactive"
	HotelStatusSuspended = "suspended"
)

type Hotel struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty"`
	OwnerID   string    `json:"owner_id" bson:"owner_id"`
	Name      string    `json:"name" bson:"name"`
	Location  string    `json:"location" bson:"location"`
	Status    string    `json:"status" bson:"status"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

func (h *Hotel) IsActive() bool {
	return h.Status == HotelStatusActive
}
