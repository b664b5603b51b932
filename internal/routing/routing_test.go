package routing

import (
	"errors"
	"railbook/pkg/model"
	"testing"
)

func sampleStops() []model.Stop {
	return []model.Stop{
		{Station: "A", Km: 0},
		{Station: "B", Km: 5},
		{Station: "C", Km: 9},
		{Station: "D", Km: 20},
	}
}

func TestBuildSegments(t *testing.T) {
	segments := BuildSegments(sampleStops(), 40)

	if len(segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segments))
	}
	want := [][2]string{{"A", "B"}, {"B", "C"}, {"C", "D"}}
	for i, seg := range segments {
		if seg.From != want[i][0] || seg.To != want[i][1] {
			t.Errorf("segment %d = %s->%s, want %s->%s", i, seg.From, seg.To, want[i][0], want[i][1])
		}
		if seg.SeatsAvailable != 40 {
			t.Errorf("segment %d seats = %d, want 40", i, seg.SeatsAvailable)
		}
	}

	if got := BuildSegments(sampleStops()[:1], 40); got != nil {
		t.Errorf("single stop should yield no segments, got %v", got)
	}
}

func TestResolveRange(t *testing.T) {
	segments := BuildSegments(sampleStops(), 40)

	tests := []struct {
		name      string
		start     string
		end       string
		wantIdx   []int
		wantError bool
	}{
		{name: "middle to end", start: "B", end: "D", wantIdx: []int{1, 2}},
		{name: "single segment", start: "A", end: "B", wantIdx: []int{0}},
		{name: "whole route", start: "A", end: "D", wantIdx: []int{0, 1, 2}},
		{name: "case and space insensitive", start: "  b ", end: "d", wantIdx: []int{1, 2}},
		{name: "end before start", start: "C", end: "B", wantError: true},
		{name: "same station", start: "B", end: "B", wantError: true},
		{name: "unknown start", start: "X", end: "D", wantError: true},
		{name: "unknown end", start: "A", end: "X", wantError: true},
		{name: "terminus as start", start: "D", end: "A", wantError: true},
		{name: "empty", start: "", end: "D", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refs, err := ResolveRange(segments, tt.start, tt.end)
			if tt.wantError {
				if !errors.Is(err, ErrInvalidRoute) {
					t.Fatalf("expected ErrInvalidRoute, got %v (refs %v)", err, refs)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(refs) != len(tt.wantIdx) {
				t.Fatalf("got %d refs, want %d", len(refs), len(tt.wantIdx))
			}
			for i, ref := range refs {
				if ref.Index != tt.wantIdx[i] {
					t.Errorf("ref %d index = %d, want %d", i, ref.Index, tt.wantIdx[i])
				}
			}
		})
	}
}

func TestResolveRange_BToDIsBCThenCD(t *testing.T) {
	refs, err := ResolveRange(BuildSegments(sampleStops(), 1), "B", "D")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if refs[0].From != "B" || refs[0].To != "C" || refs[1].From != "C" || refs[1].To != "D" {
		t.Errorf("unexpected range %+v", refs)
	}
}

func TestDistance(t *testing.T) {
	stops := sampleStops()

	got, err := Distance(stops, "b", "D")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 15 {
		t.Errorf("distance = %g, want 15", got)
	}

	if _, err := Distance(stops, "B", "Z"); !errors.Is(err, ErrInvalidRoute) {
		t.Errorf("expected ErrInvalidRoute, got %v", err)
	}

	if Length(stops) != 20 {
		t.Errorf("length = %g, want 20", Length(stops))
	}
}

func TestNormalizeStops(t *testing.T) {
	t.Run("inserts source and destination", func(t *testing.T) {
		def := &model.VehicleDefinition{
			Source:        "Pune",
			Destination:   "Mumbai",
			DepartureTime: "06:00",
			ArrivalTime:   "10:00",
			Stops: []model.Stop{
				{Station: "Lonavala", Km: 64, Arrival: "07:10"},
				{Station: "Karjat", Km: 92},
			},
		}

		stops, err := NormalizeStops(def)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(stops) != 4 {
			t.Fatalf("expected 4 stops, got %d", len(stops))
		}
		if stops[0].Station != "Pune" || stops[0].Km != 0 || stops[0].Departure != "06:00" || stops[0].Arrival != "--" {
			t.Errorf("unexpected source stop %+v", stops[0])
		}
		if stops[3].Station != "Mumbai" || stops[3].Km != 93 || stops[3].Arrival != "10:00" {
			t.Errorf("unexpected destination stop %+v", stops[3])
		}
		for i, s := range stops {
			if s.Order != i+1 {
				t.Errorf("stop %d order = %d", i, s.Order)
			}
		}
		if stops[1].Departure != "--" {
			t.Errorf("missing departure should be --, got %q", stops[1].Departure)
		}
	})

	t.Run("keeps declared endpoints", func(t *testing.T) {
		def := &model.VehicleDefinition{
			Source:      "A",
			Destination: "D",
			Stops:       sampleStops(),
		}
		stops, err := NormalizeStops(def)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(stops) != 4 {
			t.Errorf("expected no insertion, got %d stops", len(stops))
		}
	})

	t.Run("no intermediate stops", func(t *testing.T) {
		stops, err := NormalizeStops(&model.VehicleDefinition{Source: "A", Destination: "B"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(stops) != 2 || stops[1].Km != 1 {
			t.Errorf("unexpected stops %+v", stops)
		}
	})

	t.Run("rejects non increasing km", func(t *testing.T) {
		def := &model.VehicleDefinition{
			Source:      "A",
			Destination: "D",
			Stops: []model.Stop{
				{Station: "A", Km: 0},
				{Station: "B", Km: 5},
				{Station: "C", Km: 5},
				{Station: "D", Km: 9},
			},
		}
		if _, err := NormalizeStops(def); !errors.Is(err, ErrInvalidStops) {
			t.Errorf("expected ErrInvalidStops, got %v", err)
		}
	})

	t.Run("rejects duplicate stations", func(t *testing.T) {
		def := &model.VehicleDefinition{
			Source:      "A",
			Destination: "D",
			Stops: []model.Stop{
				{Station: "A", Km: 0},
				{Station: "b", Km: 5},
				{Station: "B ", Km: 7},
				{Station: "D", Km: 9},
			},
		}
		if _, err := NormalizeStops(def); !errors.Is(err, ErrInvalidStops) {
			t.Errorf("expected ErrInvalidStops, got %v", err)
		}
	})
}

func TestRangeMatches(t *testing.T) {
	segments := BuildSegments(sampleStops(), 10)
	refs, _ := ResolveRange(segments, "B", "D")

	if !RangeMatches(segments, refs) {
		t.Error("fresh range should match")
	}

	regenerated := BuildSegments([]model.Stop{{Station: "A"}, {Station: "B", Km: 5}, {Station: "X", Km: 7}, {Station: "D", Km: 20}}, 10)
	if RangeMatches(regenerated, refs) {
		t.Error("range over a changed route should not match")
	}
	if RangeMatches(segments[:1], refs) {
		t.Error("out of bounds refs should not match")
	}
	if RangeMatches(segments, nil) {
		t.Error("empty range never matches")
	}
}
