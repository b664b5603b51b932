package model

import "time"

// ScopeLock is an advisory lock document guarding one vehicle+date scope
// across processes sharing the same database.
type ScopeLock struct {
	ID        string    `bson:"_id" json:"id"`
	Owner     string    `bson:"owner" json:"owner"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// GateLease is one holder of a vehicle gate, valid until ExpiresAt.
type GateLease struct {
	Owner     string    `bson:"owner" json:"owner"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
}

// VehicleGate is the shared/exclusive lease document for one vehicle.
type VehicleGate struct {
	ID      string      `bson:"_id" json:"id"`
	Writer  *GateLease  `bson:"writer,omitempty" json:"writer,omitempty"`
	Readers []GateLease `bson:"readers,omitempty" json:"readers,omitempty"`
}
