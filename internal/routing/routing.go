// Package routing turns a vehicle's ordered stops into capacity segments and
// resolves station pairs into contiguous segment ranges. It holds no state.
package routing

import (
	"errors"
	"fmt"
	"railbook/pkg/model"
	"strings"
)

const missingTime = "--"

var (
	ErrInvalidRoute = errors.New("invalid route")
	ErrInvalidStops = errors.New("invalid stops")
)

// Normalize is the station comparison key: trimmed and case-insensitive.
func Normalize(station string) string {
	return strings.ToLower(strings.TrimSpace(station))
}

// NormalizeStops completes a definition's stop list: the declared source and
// destination are inserted when missing, empty times become "--" and order is
// renumbered from 1. Kilometre marks must be strictly increasing and stations
// unique.
func NormalizeStops(def *model.VehicleDefinition) ([]model.Stop, error) {
	stops := make([]model.Stop, 0, len(def.Stops)+2)
	stops = append(stops, def.Stops...)

	if len(stops) == 0 || Normalize(stops[0].Station) != Normalize(def.Source) {
		stops = append([]model.Stop{{
			Station:   strings.TrimSpace(def.Source),
			Departure: def.DepartureTime,
			Km:        0,
		}}, stops...)
	}

	last := stops[len(stops)-1]
	if Normalize(last.Station) != Normalize(def.Destination) {
		stops = append(stops, model.Stop{
			Station: strings.TrimSpace(def.Destination),
			Arrival: def.ArrivalTime,
			Km:      last.Km + 1,
		})
	}

	if len(stops) < 2 {
		return nil, fmt.Errorf("%w: at least two stops are required", ErrInvalidStops)
	}

	seen := make(map[string]struct{}, len(stops))
	for i := range stops {
		stops[i].Station = strings.TrimSpace(stops[i].Station)
		stops[i].Order = i + 1
		if stops[i].Arrival == "" {
			stops[i].Arrival = missingTime
		}
		if stops[i].Departure == "" {
			stops[i].Departure = missingTime
		}

		key := Normalize(stops[i].Station)
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: station %q appears more than once", ErrInvalidStops, stops[i].Station)
		}
		seen[key] = struct{}{}

		if i > 0 && stops[i].Km <= stops[i-1].Km {
			return nil, fmt.Errorf("%w: km must increase, %q (%g) follows %q (%g)",
				ErrInvalidStops, stops[i].Station, stops[i].Km, stops[i-1].Station, stops[i-1].Km)
		}
	}

	return stops, nil
}

// BuildSegments derives one full-capacity segment per adjacent stop pair.
func BuildSegments(stops []model.Stop, capacity int) []model.Segment {
	if len(stops) < 2 {
		return nil
	}
	segments := make([]model.Segment, 0, len(stops)-1)
	for i := 0; i < len(stops)-1; i++ {
		segments = append(segments, model.Segment{
			From:           stops[i].Station,
			To:             stops[i+1].Station,
			SeatsAvailable: capacity,
		})
	}
	return segments
}

// ResolveRange scans segments in travel order, starting at the segment that
// leaves start and ending with the one that arrives at end.
func ResolveRange(segments []model.Segment, start, end string) ([]model.SegmentRef, error) {
	from, to := Normalize(start), Normalize(end)
	if from == "" || to == "" {
		return nil, fmt.Errorf("%w: start and end stations are required", ErrInvalidRoute)
	}

	var (
		refs      []model.SegmentRef
		recording bool
	)
	for i, seg := range segments {
		if !recording && Normalize(seg.From) == from {
			recording = true
		}
		if !recording {
			continue
		}
		refs = append(refs, model.SegmentRef{Index: i, From: seg.From, To: seg.To})
		if Normalize(seg.To) == to {
			return refs, nil
		}
	}

	if !recording {
		return nil, fmt.Errorf("%w: %q is not a departure station on this route", ErrInvalidRoute, start)
	}
	return nil, fmt.Errorf("%w: %q is not reached after %q", ErrInvalidRoute, end, start)
}

// Distance is the kilometre difference between two stations on the route.
func Distance(stops []model.Stop, start, end string) (float64, error) {
	startKm, ok := kmOf(stops, start)
	if !ok {
		return 0, fmt.Errorf("%w: unknown station %q", ErrInvalidRoute, start)
	}
	endKm, ok := kmOf(stops, end)
	if !ok {
		return 0, fmt.Errorf("%w: unknown station %q", ErrInvalidRoute, end)
	}
	if endKm < startKm {
		return startKm - endKm, nil
	}
	return endKm - startKm, nil
}

// Length is the distance from the first to the last stop.
func Length(stops []model.Stop) float64 {
	if len(stops) < 2 {
		return 0
	}
	return max(stops[len(stops)-1].Km-stops[0].Km, 0)
}

// RangeMatches reports whether refs still point at the same stations in
// segments, which is false once the route has been regenerated.
func RangeMatches(segments []model.Segment, refs []model.SegmentRef) bool {
	if len(refs) == 0 {
		return false
	}
	for _, ref := range refs {
		if ref.Index < 0 || ref.Index >= len(segments) {
			return false
		}
		seg := segments[ref.Index]
		if Normalize(seg.From) != Normalize(ref.From) || Normalize(seg.To) != Normalize(ref.To) {
			return false
		}
	}
	return true
}

func kmOf(stops []model.Stop, station string) (float64, bool) {
	key := Normalize(station)
	for _, s := range stops {
		if Normalize(s.Station) == key {
			return s.Km, true
		}
	}
	return 0, false
}
