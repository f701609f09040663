// Package shiftbuilder implements the ShiftBuilder component (spec §4.6):
// a greedy open-anchor / extend loop that packs jobs into shifts one
// anchor at a time, picking the best-scoring feasible extension at each
// step until extension fails.
package shiftbuilder

import (
	"sort"
	"time"

	"github.com/pageza/shift-scheduler/internal/config"
	"github.com/pageza/shift-scheduler/internal/distancematrix"
	"github.com/pageza/shift-scheduler/internal/domain"
	"github.com/pageza/shift-scheduler/internal/feasibility"
	"github.com/pageza/shift-scheduler/internal/geo"
	"github.com/pageza/shift-scheduler/internal/scorer"
)

// Build runs the greedy constructor over jobs, returning the shifts it
// produced plus any jobs it could never place. jobs is not mutated.
func Build(cfg *config.Config, jobs []domain.Job, dist distancematrix.Lookup, cache *scorer.Cache) ([]*domain.Shift, []domain.UnassignedService) {
	var shifts []*domain.Shift
	var unassigned []domain.UnassignedService
	nextIndex := 0
	reasons := make(map[string]domain.Reason)

	enforced := make([]domain.Job, 0)
	longService := make([]domain.Job, 0)
	remaining := make([]domain.Job, 0, len(jobs))
	for _, j := range jobs {
		switch {
		case j.Tech.Enforced:
			enforced = append(enforced, j)
		case j.Duration >= cfg.LongServiceThreshold():
			longService = append(longService, j)
		default:
			remaining = append(remaining, j)
		}
	}

	// Enforced jobs are scheduled first, each in its own shift anchored at
	// its preferred instant; they never participate in extension.
	for _, j := range enforced {
		shift := domain.NewShift(nextIndex)
		shift.EnforcedTechCode = j.Tech.Code
		shift.TechID = j.Tech.Code
		start := j.Preferred
		sj := &domain.ScheduledJob{Job: j, Start: start, End: start.Add(j.Duration), Cluster: nextIndex, TechID: j.Tech.Code}
		shift.Jobs = append(shift.Jobs, sj)
		shifts = append(shifts, shift)
		nextIndex++
	}

	// Jobs at/above the long-service threshold get their own shift (spec
	// §4.6): they never extend an anchor and are never extended onto.
	for _, j := range longService {
		shift := domain.NewShift(nextIndex)
		start := j.Window.Earliest
		sj := &domain.ScheduledJob{Job: j, Start: start, End: start.Add(j.Duration), Cluster: nextIndex}
		shift.Jobs = append(shift.Jobs, sj)
		shifts = append(shifts, shift)
		nextIndex++
	}

	sortCandidates(remaining)

	for len(remaining) > 0 {
		anchorJob := remaining[0]
		remaining = remaining[1:]

		shift := domain.NewShift(nextIndex)
		anchorStart := anchorJob.Window.Earliest
		anchorSJ := &domain.ScheduledJob{Job: anchorJob, Start: anchorStart, End: anchorStart.Add(anchorJob.Duration), Cluster: nextIndex}
		shift.Jobs = append(shift.Jobs, anchorSJ)

		for len(shift.Jobs) < cfg.MaxShiftJobs {
			idx, tryStart, ok := bestExtension(cfg, shift, remaining, dist, cache, reasons)
			if !ok {
				break
			}
			chosen := remaining[idx]
			travel := travelFromPrevious(shift, chosen, tryStart, cfg, dist)
			sj := &domain.ScheduledJob{
				Job:                    chosen,
				Start:                  tryStart,
				End:                    tryStart.Add(chosen.Duration),
				Cluster:                nextIndex,
				DistanceFromPrevious:   travel.distance,
				TravelTimeFromPrevious: travel.duration,
			}
			shift.Jobs = append(shift.Jobs, sj)
			remaining = append(remaining[:idx], remaining[idx+1:]...)
		}

		shifts = append(shifts, shift)
		nextIndex++
	}

	unassigned = collectUnassigned(shifts, jobs, reasons)
	return shifts, unassigned
}

// sortCandidates orders jobs by earliest ascending, then window width
// ascending (inflexible jobs first), per spec §4.6 pre-filter.
func sortCandidates(jobs []domain.Job) {
	sort.Slice(jobs, func(i, j int) bool {
		if !jobs[i].Window.Earliest.Equal(jobs[j].Window.Earliest) {
			return jobs[i].Window.Earliest.Before(jobs[j].Window.Earliest)
		}
		if jobs[i].WindowWidth() != jobs[j].WindowWidth() {
			return jobs[i].WindowWidth() < jobs[j].WindowWidth()
		}
		return jobs[i].ID < jobs[j].ID
	})
}

type travelInfo struct {
	distance float64
	duration time.Duration
}

func travelFromPrevious(shift *domain.Shift, job domain.Job, tryStart time.Time, cfg *config.Config, dist distancematrix.Lookup) travelInfo {
	prev := shift.Last(tryStart)
	if prev == nil {
		return travelInfo{}
	}
	d, ok := dist.Distance(prev.LocationID, job.LocationID)
	if !ok {
		return travelInfo{}
	}
	minutes := geo.TravelTimeMinutes(d, cfg.TechSpeedMph)
	return travelInfo{distance: d, duration: time.Duration(minutes) * time.Minute}
}

// bestExtension considers every remaining candidate reachable from the
// shift's last job within the lookahead window, feasibility-checks each,
// scores the feasible ones, and returns the index (into remaining) and
// tryStart of the winner.
func bestExtension(cfg *config.Config, shift *domain.Shift, remaining []domain.Job, dist distancematrix.Lookup, cache *scorer.Cache, reasons map[string]domain.Reason) (int, time.Time, bool) {
	lastSJ := shift.Jobs[len(shift.Jobs)-1]

	bestIdx := -1
	var bestStart time.Time
	bestScore := negInf()

	for i, candidate := range remaining {
		if !candidate.Window.Latest.After(lastSJ.End) {
			continue
		}
		if candidate.Window.Earliest.After(lastSJ.End.Add(cfg.MaxTimeSearch())) {
			continue
		}

		d, ok := dist.Distance(lastSJ.LocationID, candidate.LocationID)
		if !ok {
			continue
		}
		travel := time.Duration(geo.TravelTimeMinutes(d, cfg.TechSpeedMph)) * time.Minute
		tryStart := lastSJ.End.Add(travel)
		if tryStart.Before(candidate.Window.Earliest) {
			tryStart = candidate.Window.Earliest
		}

		result := feasibility.Check(cfg, shift, candidate, tryStart, dist, nil)
		if !result.Feasible {
			reasons[candidate.ID] = result.Reason
			continue
		}

		var nextUnplaced *domain.Job
		if len(remaining) > 0 {
			for j := range remaining {
				if j != i {
					nextUnplaced = &remaining[j]
					break
				}
			}
		}

		score := scorer.Score(cache, scorer.Inputs{
			Job:          candidate,
			LastJob:      lastSJ,
			TryStart:     tryStart,
			ShiftJobs:    shift.Jobs,
			NextUnplaced: nextUnplaced,
			Dist:         dist,
			Cfg:          cfg,
		})

		if better(score, tryStart, candidate, bestScore, bestStart, remaining, bestIdx) {
			bestIdx = i
			bestStart = tryStart
			bestScore = score
		}
	}

	if bestIdx < 0 {
		return 0, time.Time{}, false
	}
	return bestIdx, bestStart, true
}

// better implements the tie-break rule: higher score wins; ties resolved
// by earlier tryStart, then by narrower window.
func better(score float64, start time.Time, candidate domain.Job, bestScore float64, bestStart time.Time, remaining []domain.Job, bestIdx int) bool {
	if bestIdx < 0 {
		return true
	}
	if score != bestScore {
		return score > bestScore
	}
	if !start.Equal(bestStart) {
		return start.Before(bestStart)
	}
	return candidate.WindowWidth() < remaining[bestIdx].WindowWidth()
}

func negInf() float64 {
	return -1.7976931348623157e+308 // matches scorer's hard-reject sentinel
}

// collectUnassigned reports every input job that never landed in a shift.
// In practice every job placeable at all by Validate can always anchor its
// own shift, so this never fires today; it exists for whatever future
// change might make anchoring itself conditional. reasons holds the most
// recent feasibility failure bestExtension saw for a candidate job; when
// nothing was ever recorded (e.g. the job was never even considered as an
// extension candidate) ReasonNoFeasibleShift is the honest fallback.
func collectUnassigned(shifts []*domain.Shift, all []domain.Job, reasons map[string]domain.Reason) []domain.UnassignedService {
	placed := make(map[string]bool)
	for _, s := range shifts {
		for _, j := range s.Jobs {
			placed[j.ID] = true
		}
	}
	var out []domain.UnassignedService
	for _, j := range all {
		if placed[j.ID] {
			continue
		}
		reason, ok := reasons[j.ID]
		if !ok {
			reason = domain.ReasonNoFeasibleShift
		}
		out = append(out, domain.UnassignedService{Job: j, Reason: reason})
	}
	return out
}
