package sanitizer

import "railbook/pkg/model"

func SanitizePassenger(p *model.Passenger) {
	p.Name = NormalizeName(p.Name)
	p.Email = NormalizeEmail(p.Email)
	p.Address = TrimAndNormalize(p.Address)
	p.DocumentID = NormalizeDocumentID(p.DocumentID)
	if p.Phone != "" {
		p.Phone = NormalizePhone(p.Phone)
	}
}

func SanitizeBookingRequest(req *model.BookingRequest) {
	req.RequesterID = TrimAndNormalize(req.RequesterID)
	req.VehicleID = TrimAndNormalize(req.VehicleID)
	req.StartStation = NormalizeStation(req.StartStation)
	req.EndStation = NormalizeStation(req.EndStation)
	req.TravelDate = TrimAndNormalize(req.TravelDate)
	SanitizePassenger(&req.Passenger)
}

func SanitizeVehicleDefinition(def *model.VehicleDefinition) {
	def.Number = TrimAndNormalize(def.Number)
	def.Name = NormalizeName(def.Name)
	def.Source = NormalizeStation(def.Source)
	def.Destination = NormalizeStation(def.Destination)
	def.DepartureTime = TrimAndNormalize(def.DepartureTime)
	def.ArrivalTime = TrimAndNormalize(def.ArrivalTime)
	for i := range def.Stops {
		def.Stops[i].Station = NormalizeStation(def.Stops[i].Station)
		def.Stops[i].Arrival = TrimAndNormalize(def.Stops[i].Arrival)
		def.Stops[i].Departure = TrimAndNormalize(def.Stops[i].Departure)
	}
}
