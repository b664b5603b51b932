package model

import (
	"fmt"
	"time"
)

const TravelDateLayout = "2006-01-02"

// Scope identifies one vehicle on one travel date. It is the unit of mutual
// exclusion for inventory, bookings and the waitlist.
type Scope struct {
	VehicleID  string `json:"vehicle_id" bson:"vehicle_id"`
	TravelDate string `json:"travel_date" bson:"travel_date"`
}

func NewScope(vehicleID, travelDate string) Scope {
	return Scope{VehicleID: vehicleID, TravelDate: travelDate}
}

func (s Scope) Key() string {
	return fmt.Sprintf("%s:%s", s.VehicleID, s.TravelDate)
}

func (s Scope) String() string {
	return s.Key()
}

// ParseTravelDate validates a YYYY-MM-DD travel date.
func ParseTravelDate(value string) (time.Time, error) {
	return time.Parse(TravelDateLayout, value)
}

// Inventory is the materialized segment set of one scope.
type Inventory struct {
	ID            string    `json:"id" bson:"_id"`
	VehicleID     string    `json:"vehicle_id" bson:"vehicle_id"`
	TravelDate    string    `json:"travel_date" bson:"travel_date"`
	RouteRevision int       `json:"route_revision" bson:"route_revision"`
	Capacity      int       `json:"capacity" bson:"capacity"`
	Segments      []Segment `json:"segments" bson:"segments"`
	Version       int64     `json:"version" bson:"version"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
}

func (inv *Inventory) Scope() Scope {
	return NewScope(inv.VehicleID, inv.TravelDate)
}

// Clone returns a deep copy so callers can mutate segments without touching
// stored state.
func (inv *Inventory) Clone() *Inventory {
	out := *inv
	out.Segments = append([]Segment(nil), inv.Segments...)
	return &out
}
