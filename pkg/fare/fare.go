package fare

import "math"

// Calculator prices one seat over a travelled distance.
type Calculator interface {
	PerSeat(distance float64) float64
}

// DistanceCalculator charges a flat rate per kilometre.
type DistanceCalculator struct {
	RatePerUnit float64
}

func NewDistanceCalculator(rate float64) DistanceCalculator {
	return DistanceCalculator{RatePerUnit: rate}
}

func (c DistanceCalculator) PerSeat(distance float64) float64 {
	if distance <= 0 {
		return 0
	}
	return round2(distance * c.RatePerUnit)
}

// Total is the price of a booking of seats.
func Total(perSeat float64, seats int) float64 {
	return round2(perSeat * float64(seats))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
