package model

import (
	"time"
)

const (
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
)

type Passenger struct {
	Name       string `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Phone      string `json:"phone" bson:"phone" validate:"omitempty,e164"`
	Email      string `json:"email" bson:"email" validate:"omitempty,email"`
	Age        int    `json:"age" bson:"age" validate:"min=0,max=130"`
	DocumentID string `json:"document_id,omitempty" bson:"document_id,omitempty" validate:"omitempty,max=32"`
	Address    string `json:"address,omitempty" bson:"address,omitempty" validate:"omitempty,max=200"`
}

// Itinerary is shared by bookings and waitlist entries so a promoted entry
// can be turned into a booking without losing anything.
type Itinerary struct {
	StartStation  string       `json:"start_station" bson:"start_station"`
	EndStation    string       `json:"end_station" bson:"end_station"`
	Seats         int          `json:"seats" bson:"seats"`
	Segments      []SegmentRef `json:"segments" bson:"segments"`
	RouteRevision int          `json:"route_revision" bson:"route_revision"`
	Distance      float64      `json:"distance" bson:"distance"`
	Fare          float64      `json:"fare" bson:"fare"`
	Price         float64      `json:"price" bson:"price"`
	Passenger     Passenger    `json:"passenger" bson:"passenger"`
}

type Booking struct {
	ID           string `json:"id" bson:"_id"`
	RequesterID  string `json:"requester_id" bson:"requester_id"`
	VehicleID    string `json:"vehicle_id" bson:"vehicle_id"`
	TravelDate   string `json:"travel_date" bson:"travel_date"`
	Itinerary    `bson:",inline"`
	Status       string     `json:"status" bson:"status"`
	PromotedFrom string     `json:"promoted_from,omitempty" bson:"promoted_from,omitempty"`
	CreatedAt    time.Time  `json:"created_at" bson:"created_at"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty" bson:"cancelled_at,omitempty"`
}

func (b *Booking) Scope() Scope {
	return NewScope(b.VehicleID, b.TravelDate)
}

// BookingRequest is what the request intake hands to booking creation.
type BookingRequest struct {
	RequesterID  string    `json:"-" validate:"required,max=64"`
	VehicleID    string    `json:"vehicle_id" validate:"required,max=64"`
	StartStation string    `json:"start_station" validate:"required,station,max=100"`
	EndStation   string    `json:"end_station" validate:"required,station,max=100"`
	Seats        int       `json:"seats" validate:"required,min=1"`
	TravelDate   string    `json:"travel_date" validate:"required,datetime=2006-01-02"`
	Passenger    Passenger `json:"passenger"`
}

func (r *BookingRequest) Scope() Scope {
	return NewScope(r.VehicleID, r.TravelDate)
}
