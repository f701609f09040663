// Package geocluster implements a k-means pre-clustering pass over job
// coordinates. It exists because several scheduling systems in this
// codebase's lineage run a geographic pre-clustering stage before their
// main packer; the shift engine's own greedy builder already performs that
// role (anchor + nearest-reachable extension), so Orchestrator does not
// call this package. It is kept available for callers that want a coarse
// geographic grouping independent of time windows.
package geocluster

import (
	"sort"

	"github.com/pageza/shift-scheduler/internal/domain"
	"github.com/pageza/shift-scheduler/internal/geo"
)

// Point is the subset of a Job k-means needs.
type Point struct {
	JobID string
	Lat   float64
	Lon   float64
}

// Cluster is one k-means cluster: its current centroid and member points.
type Cluster struct {
	CentroidLat float64
	CentroidLon float64
	Members     []Point
}

// FromJobs projects Jobs down to the coordinates k-means needs.
func FromJobs(jobs []domain.Job) []Point {
	points := make([]Point, len(jobs))
	for i, j := range jobs {
		points[i] = Point{JobID: j.ID, Lat: j.Latitude, Lon: j.Longitude}
	}
	return points
}

// KMeans runs Lloyd's algorithm for up to maxIterations, or until no point
// changes cluster. k must be <= len(points) and positive; returns nil
// clusters otherwise. Initial centroids are the first k points in input
// order, so results are deterministic for a given point ordering — matching
// the engine's no-randomness guarantee (spec §5).
func KMeans(points []Point, k, maxIterations int) []Cluster {
	if k <= 0 || k > len(points) {
		return nil
	}

	clusters := make([]Cluster, k)
	for i := 0; i < k; i++ {
		clusters[i].CentroidLat = points[i].Lat
		clusters[i].CentroidLon = points[i].Lon
	}

	assignment := make([]int, len(points))
	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for i := range clusters {
			clusters[i].Members = clusters[i].Members[:0]
		}

		for pi, p := range points {
			best := nearestCluster(p, clusters)
			if best != assignment[pi] {
				changed = true
			}
			assignment[pi] = best
			clusters[best].Members = append(clusters[best].Members, p)
		}

		for i := range clusters {
			clusters[i].recomputeCentroid()
		}

		if !changed && iter > 0 {
			break
		}
	}

	sort.Slice(clusters, func(i, j int) bool {
		if len(clusters[i].Members) == 0 || len(clusters[j].Members) == 0 {
			return len(clusters[i].Members) > len(clusters[j].Members)
		}
		return clusters[i].Members[0].JobID < clusters[j].Members[0].JobID
	})
	return clusters
}

func nearestCluster(p Point, clusters []Cluster) int {
	best := 0
	bestDist := geo.HaversineMiles(p.Lat, p.Lon, clusters[0].CentroidLat, clusters[0].CentroidLon)
	for i := 1; i < len(clusters); i++ {
		d := geo.HaversineMiles(p.Lat, p.Lon, clusters[i].CentroidLat, clusters[i].CentroidLon)
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

func (c *Cluster) recomputeCentroid() {
	if len(c.Members) == 0 {
		return
	}
	var sumLat, sumLon float64
	for _, m := range c.Members {
		sumLat += m.Lat
		sumLon += m.Lon
	}
	n := float64(len(c.Members))
	c.CentroidLat = sumLat / n
	c.CentroidLon = sumLon / n
}
