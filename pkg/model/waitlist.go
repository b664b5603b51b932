package model

import "time"

type WaitlistEntry struct {
	ID          string `json:"id" bson:"_id"`
	RequesterID string `json:"requester_id" bson:"requester_id"`
	VehicleID   string `json:"vehicle_id" bson:"vehicle_id"`
	TravelDate  string `json:"travel_date" bson:"travel_date"`
	Itinerary   `bson:",inline"`
	Position    int       `json:"position" bson:"position"`
	Sequence    int64     `json:"sequence" bson:"sequence"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

func (e *WaitlistEntry) Scope() Scope {
	return NewScope(e.VehicleID, e.TravelDate)
}

// Redacted is the entry as anyone but its requester may see it: the queue
// position and the journey, without identities or contact details.
func (e *WaitlistEntry) Redacted() *WaitlistEntry {
	out := *e
	out.ID = ""
	out.RequesterID = ""
	out.Passenger = Passenger{}
	return &out
}

// WaitlistCounter keeps two separate numbers per scope: LastSequence only
// ever grows and orders admissions, Count tracks the live entries so the
// next admission continues the contiguous position range.
type WaitlistCounter struct {
	ID           string `json:"id" bson:"_id"`
	VehicleID    string `json:"vehicle_id" bson:"vehicle_id"`
	TravelDate   string `json:"travel_date" bson:"travel_date"`
	LastSequence int64  `json:"last_sequence" bson:"last_sequence"`
	Count        int    `json:"count" bson:"count"`
}
