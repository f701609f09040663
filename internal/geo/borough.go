package geo

// Borough is a coarse geographic zone used by the feasibility checker's
// cross-borough distance rule (spec §4.1, §4.4 item 3).
type Borough int

const (
	Unknown Borough = iota
	Manhattan
	Brooklyn
	Queens
	Bronx
	StatenIsland
)

func (b Borough) String() string {
	switch b {
	case Manhattan:
		return "Manhattan"
	case Brooklyn:
		return "Brooklyn"
	case Queens:
		return "Queens"
	case Bronx:
		return "Bronx"
	case StatenIsland:
		return "Staten Island"
	default:
		return "Unknown"
	}
}

type point struct{ lat, lon float64 }

type polygon struct {
	borough Borough
	points  []point
}

// Fixed, deliberately simplified borough outlines — enough to separate the
// five boroughs for scheduling purposes, not a surveying-grade boundary.
var boroughPolygons = []polygon{
	{Manhattan, []point{
		{40.700, -74.020}, {40.700, -73.930}, {40.880, -73.930}, {40.880, -74.020},
	}},
	{Bronx, []point{
		{40.785, -73.935}, {40.785, -73.765}, {40.915, -73.765}, {40.915, -73.935},
	}},
	{Brooklyn, []point{
		{40.570, -74.045}, {40.570, -73.833}, {40.740, -73.833}, {40.740, -74.045},
	}},
	{Queens, []point{
		{40.540, -73.962}, {40.540, -73.700}, {40.800, -73.700}, {40.800, -73.962},
	}},
	{StatenIsland, []point{
		{40.477, -74.259}, {40.477, -74.050}, {40.650, -74.050}, {40.650, -74.259},
	}},
}

// BoroughOf returns the enclosing borough for a coordinate, or Unknown.
func BoroughOf(lat, lon float64) Borough {
	p := point{lat, lon}
	for _, poly := range boroughPolygons {
		if pointInPolygon(p, poly.points) {
			return poly.borough
		}
	}
	return Unknown
}

// SameBorough reports whether two coordinates resolve to the same known
// borough. Two Unknown points are never considered the same borough.
func SameBorough(lat1, lon1, lat2, lon2 float64) bool {
	a := BoroughOf(lat1, lon1)
	b := BoroughOf(lat2, lon2)
	return a != Unknown && a == b
}

// pointInPolygon is the standard ray-casting test.
func pointInPolygon(p point, poly []point) bool {
	inside := false
	n := len(poly)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		pi, pj := poly[i], poly[j]
		if ((pi.lon > p.lon) != (pj.lon > p.lon)) &&
			(p.lat < (pj.lat-pi.lat)*(p.lon-pi.lon)/(pj.lon-pi.lon)+pi.lat) {
			inside = !inside
		}
	}
	return inside
}
