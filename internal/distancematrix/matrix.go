// Package distancematrix implements the DistanceMatrix component (spec
// §4.2): a symmetric lookup of distance between two job location ids, with
// a Haversine fallback and a hard unreachability cap. No mutation occurs
// after construction, matching the spec's lifecycle note.
package distancematrix

import (
	"github.com/pageza/shift-scheduler/internal/geo"
)

// Lookup is the interface the rest of the engine consumes: a distance in
// miles between two location ids, or ok=false if unreachable.
type Lookup interface {
	Distance(a, b string) (miles float64, ok bool)
}

// LocationIndex resolves a location id to coordinates for the Haversine
// fallback when a pair is missing from the precomputed table.
type LocationIndex interface {
	Coordinates(locationID string) (lat, lon float64, ok bool)
}

type pairKey struct{ a, b string }

func newPairKey(a, b string) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a, b}
}

// Matrix is a dense, read-only distance table with a coordinate fallback.
type Matrix struct {
	pairs         map[pairKey]float64
	locations     LocationIndex
	hardMaxRadius float64
}

// Entry is one precomputed distance between two location ids, in miles.
type Entry struct {
	A, B  string
	Miles float64
}

// NewMatrix builds a Matrix from a precomputed pair list (may be empty —
// missing entries fall back to Haversine via locations).
func NewMatrix(entries []Entry, locations LocationIndex, hardMaxRadiusMiles float64) *Matrix {
	pairs := make(map[pairKey]float64, len(entries))
	for _, e := range entries {
		pairs[newPairKey(e.A, e.B)] = e.Miles
	}
	return &Matrix{pairs: pairs, locations: locations, hardMaxRadius: hardMaxRadiusMiles}
}

// Put adds/overwrites one symmetric pair. Intended for test and loader use
// before the Matrix is handed to the engine; the engine itself only reads.
func (m *Matrix) Put(a, b string, miles float64) {
	m.pairs[newPairKey(a, b)] = miles
}

// Distance implements Lookup. Self-distance is always zero. A value is
// Unreachable (ok=false) if no distance can be determined, or if the
// resolved distance exceeds hardMaxRadius.
func (m *Matrix) Distance(a, b string) (float64, bool) {
	if a == b {
		return 0, true
	}
	if miles, ok := m.pairs[newPairKey(a, b)]; ok {
		return boundCheck(miles, m.hardMaxRadius)
	}
	if m.locations == nil {
		return 0, false
	}
	lat1, lon1, ok1 := m.locations.Coordinates(a)
	lat2, lon2, ok2 := m.locations.Coordinates(b)
	if !ok1 || !ok2 {
		return 0, false
	}
	miles := geo.HaversineMiles(lat1, lon1, lat2, lon2)
	return boundCheck(miles, m.hardMaxRadius)
}

func boundCheck(miles, hardMaxRadius float64) (float64, bool) {
	if hardMaxRadius > 0 && miles > hardMaxRadius {
		return miles, false
	}
	return miles, true
}
