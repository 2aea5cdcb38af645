package model

import "time"

// BookingLock is an advisory lock serializing booking creation per room.
// Expired locks are removed by a TTL index on expires_at.
// Token names the holder; only the holder may release the lock.
type BookingLock struct {
	ID        string    `bson:"_id" json:"id"`
	Token     string    `bson:"token" json:"-"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

func RoomLockID(roomID string) string {
	return "room:" + roomID
}
