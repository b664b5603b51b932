package sanitizer

import (
	"railbook/pkg/model"
	"testing"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "valid E.164 format", input: "+919876543210", want: "+919876543210"},
		{name: "with spaces", input: "+91 98765 43210", want: "+919876543210"},
		{name: "national number", input: "9876543210", want: "+919876543210"},
		{name: "us with parentheses", input: "+1 (212) 555-1234", want: "+12125551234"},
		{name: "empty string", input: "", want: ""},
		{name: "only whitespace", input: "   ", want: ""},
		{name: "not a number", input: "call me", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePhone(tt.input); got != tt.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "basic trim", input: "  hello  ", want: "hello"},
		{name: "multiple spaces", input: "New    Delhi", want: "New Delhi"},
		{name: "tabs and newlines", input: "New\t\nDelhi", want: "New Delhi"},
		{name: "empty", input: "", want: ""},
		{name: "only whitespace", input: "   ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TrimAndNormalize(tt.input); got != tt.want {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeBookingRequest(t *testing.T) {
	req := &model.BookingRequest{
		RequesterID:  " user-1 ",
		VehicleID:    " 12951",
		StartStation: "  New   Delhi ",
		EndStation:   "Mumbai Central ",
		TravelDate:   " 2026-11-02 ",
		Passenger: model.Passenger{
			Name:       "  Asha   Rao ",
			Email:      " Asha@Example.COM ",
			Phone:      "98765 43210",
			DocumentID: " ab12 34 ",
		},
	}

	SanitizeBookingRequest(req)

	if req.RequesterID != "user-1" || req.VehicleID != "12951" {
		t.Errorf("ids not trimmed: %q %q", req.RequesterID, req.VehicleID)
	}
	if req.StartStation != "New Delhi" || req.EndStation != "Mumbai Central" {
		t.Errorf("stations = %q, %q", req.StartStation, req.EndStation)
	}
	if req.TravelDate != "2026-11-02" {
		t.Errorf("travel date = %q", req.TravelDate)
	}
	if req.Passenger.Name != "Asha Rao" {
		t.Errorf("name = %q", req.Passenger.Name)
	}
	if req.Passenger.Email != "asha@example.com" {
		t.Errorf("email = %q", req.Passenger.Email)
	}
	if req.Passenger.Phone != "+919876543210" {
		t.Errorf("phone = %q", req.Passenger.Phone)
	}
	if req.Passenger.DocumentID != "AB1234" {
		t.Errorf("document id = %q", req.Passenger.DocumentID)
	}

	SanitizeBookingRequest(req)
	if req.Passenger.Phone != "+919876543210" || req.StartStation != "New Delhi" {
		t.Error("sanitizing twice must not change the result")
	}
}

func TestSanitizeVehicleDefinition(t *testing.T) {
	def := &model.VehicleDefinition{
		Number: " 12951 ",
		Name:   " Rajdhani   Express",
		Source: " Mumbai ",
		Stops:  []model.Stop{{Station: " Surat ", Arrival: " 08:10 "}},
	}

	SanitizeVehicleDefinition(def)

	if def.Number != "12951" || def.Name != "Rajdhani Express" || def.Source != "Mumbai" {
		t.Errorf("unexpected definition %+v", def)
	}
	if def.Stops[0].Station != "Surat" || def.Stops[0].Arrival != "08:10" {
		t.Errorf("unexpected stop %+v", def.Stops[0])
	}
}
