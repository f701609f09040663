// Package scorer implements the Scorer component (spec §4.5): a composite,
// higher-is-better score over a candidate job, used by ShiftBuilder to pick
// the best next extension. Scores are memoized per orchestration run.
package scorer

import (
	"math"
	"sync"
	"time"

	"github.com/pageza/shift-scheduler/internal/config"
	"github.com/pageza/shift-scheduler/internal/distancematrix"
	"github.com/pageza/shift-scheduler/internal/domain"
	"github.com/pageza/shift-scheduler/internal/timealgebra"
)

// Cache is the per-orchestration score memo keyed by (job.id, lastJob.id),
// matching spec §4.5 ("a per-run memo ... cache invalidated at the start of
// each orchestration").
type Cache struct {
	mu   sync.Mutex
	memo map[[2]string]float64
}

// NewCache returns a fresh, empty cache — call once per Orchestrator run.
func NewCache() *Cache {
	return &Cache{memo: make(map[[2]string]float64)}
}

// Reset clears all memoized scores.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.memo = make(map[[2]string]float64)
}

// Inputs bundles everything Score needs to evaluate one candidate.
type Inputs struct {
	Job          domain.Job
	LastJob      *domain.ScheduledJob // nil when job anchors a new shift
	TryStart     time.Time
	ShiftJobs    []*domain.ScheduledJob
	NextUnplaced *domain.Job // single-job lookahead, or nil
	Dist         distancematrix.Lookup
	Cfg          *config.Config
}

const negInf = math.MaxFloat64 * -1

// Score computes the composite score for Inputs, consulting/populating
// cache when LastJob is non-nil (an anchor job has no "last job" to key on,
// so it is scored uncached — this mirrors the memo key being (job, lastJob)
// pairs only).
func Score(cache *Cache, in Inputs) float64 {
	var lastID string
	if in.LastJob != nil {
		lastID = in.LastJob.ID
		key := [2]string{in.Job.ID, lastID}
		cache.mu.Lock()
		if v, ok := cache.memo[key]; ok {
			cache.mu.Unlock()
			return v
		}
		cache.mu.Unlock()

		v := compute(in)
		cache.mu.Lock()
		cache.memo[key] = v
		cache.mu.Unlock()
		return v
	}
	return compute(in)
}

func compute(in Inputs) float64 {
	var distance float64
	var ok bool
	if in.LastJob != nil {
		distance, ok = in.Dist.Distance(in.LastJob.LocationID, in.Job.LocationID)
		if !ok || distance > in.Cfg.HardMaxRadiusMiles {
			return negInf
		}
	}

	distanceScore := -math.Pow(distance/in.Cfg.HardMaxRadiusMiles, 2) * 50

	var overlapMinutes float64
	for _, existing := range in.ShiftJobs {
		overlapMinutes += minutesOverlap(in.Job.Window, existing.Window)
	}
	windowOverlapScore := overlapMinutes / (float64(in.Cfg.ShiftDurationMinutes) / 2)

	preferredScore := 0.0
	if in.LastJob != nil {
		deltaMinutes := math.Abs(in.TryStart.Sub(in.Job.Preferred).Minutes())
		preferredScore = -math.Log(deltaMinutes + 1)
	}

	futureScore := 0.0
	if in.NextUnplaced != nil {
		nd, nok := in.Dist.Distance(in.Job.LocationID, in.NextUnplaced.LocationID)
		if nok && nd <= in.Cfg.HardMaxRadiusMiles {
			earliestReach := in.TryStart.Add(in.Job.Duration).Add(
				time.Duration(travelMinutesFor(nd, in.Cfg)) * time.Minute)
			weight := 0.5
			if !in.NextUnplaced.Window.Earliest.Before(earliestReach) {
				weight = 1
			}
			futureScore = (1 - nd/in.Cfg.HardMaxRadiusMiles) * weight
		}
	}

	return 0.4*distanceScore + 0.3*windowOverlapScore + 0.2*preferredScore + 0.1*futureScore
}

func travelMinutesFor(distanceMiles float64, cfg *config.Config) int {
	if cfg.TechSpeedMph <= 0 {
		return 0
	}
	return int(math.Ceil(distanceMiles / cfg.TechSpeedMph * 60))
}

func minutesOverlap(a, b domain.TimeWindow) float64 {
	if !timealgebra.Overlaps(a.Earliest, a.Latest, b.Earliest, b.Latest) {
		return 0
	}
	start := a.Earliest
	if b.Earliest.After(start) {
		start = b.Earliest
	}
	end := a.Latest
	if b.Latest.Before(end) {
		end = b.Latest
	}
	return end.Sub(start).Minutes()
}
