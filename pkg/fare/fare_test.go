package fare

import "testing"

func TestDistanceCalculator(t *testing.T) {
	tests := []struct {
		name     string
		rate     float64
		distance float64
		want     float64
	}{
		{"default rate", 2, 15, 30},
		{"fractional", 1.5, 3.5, 5.25},
		{"zero distance", 2, 0, 0},
		{"negative distance", 2, -4, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewDistanceCalculator(tt.rate).PerSeat(tt.distance); got != tt.want {
				t.Errorf("PerSeat(%g) = %g, want %g", tt.distance, got, tt.want)
			}
		})
	}
}

func TestTotal(t *testing.T) {
	if got := Total(30, 3); got != 90 {
		t.Errorf("Total = %g, want 90", got)
	}
}
