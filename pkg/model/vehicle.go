package model

import "time"

type Stop struct {
	Station   string  `json:"station" bson:"station" validate:"required,min=1,max=100"`
	Arrival   string  `json:"arrival" bson:"arrival" validate:"omitempty,clock"`
	Departure string  `json:"departure" bson:"departure" validate:"omitempty,clock"`
	Km        float64 `json:"km" bson:"km" validate:"min=0"`
	Order     int     `json:"order" bson:"order" validate:"min=0"`
}

// Segment is the capacity unit between two adjacent stops.
type Segment struct {
	From           string `json:"from" bson:"from"`
	To             string `json:"to" bson:"to"`
	SeatsAvailable int    `json:"seats_available" bson:"seats_available"`
}

// SegmentRef points at one segment of a vehicle's route by its position in
// travel order. From and To are kept so a stale reference can be detected.
type SegmentRef struct {
	Index int    `json:"index" bson:"index"`
	From  string `json:"from" bson:"from"`
	To    string `json:"to" bson:"to"`
}

type Vehicle struct {
	ID            string    `json:"id" bson:"_id"`
	Number        string    `json:"number" bson:"number"`
	Name          string    `json:"name" bson:"name"`
	Source        string    `json:"source" bson:"source"`
	Destination   string    `json:"destination" bson:"destination"`
	DepartureTime string    `json:"departure_time" bson:"departure_time"`
	ArrivalTime   string    `json:"arrival_time" bson:"arrival_time"`
	Capacity      int       `json:"capacity" bson:"capacity"`
	Stops         []Stop    `json:"stops" bson:"stops"`
	Segments      []Segment `json:"segments" bson:"segments"`
	RouteRevision int       `json:"route_revision" bson:"route_revision"`
	BaseFare      float64   `json:"base_fare" bson:"base_fare"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
}

// VehicleDefinition is what the route definition service sends whenever a
// vehicle is created or its stops or capacity change.
type VehicleDefinition struct {
	Number        string `json:"number" validate:"required,min=1,max=20"`
	Name          string `json:"name" validate:"required,min=2,max=100"`
	Source        string `json:"source" validate:"required,min=1,max=100"`
	Destination   string `json:"destination" validate:"required,min=1,max=100,nefield=Source"`
	DepartureTime string `json:"departure_time" validate:"required,clock"`
	ArrivalTime   string `json:"arrival_time" validate:"required,clock"`
	Capacity      int    `json:"capacity" validate:"required,min=1,max=5000"`
	Stops         []Stop `json:"stops" validate:"omitempty,dive"`
}

// VehicleDefinitionEvent is the payload of the vehicle definitions topic.
type VehicleDefinitionEvent struct {
	VehicleID  string            `json:"vehicle_id"`
	Definition VehicleDefinition `json:"definition"`
}
