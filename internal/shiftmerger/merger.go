// Package shiftmerger implements the ShiftMerger component (spec §4.7): a
// time-ordered pass that fuses adjacent shifts when the combined object
// remains feasible, repeating until no merge succeeds.
package shiftmerger

import (
	"sort"
	"time"

	"github.com/pageza/shift-scheduler/internal/config"
	"github.com/pageza/shift-scheduler/internal/distancematrix"
	"github.com/pageza/shift-scheduler/internal/domain"
	"github.com/pageza/shift-scheduler/internal/feasibility"
	"github.com/pageza/shift-scheduler/internal/geo"
)

// Merge repeatedly fuses adjacent shifts until no merge succeeds, then
// returns the resulting shift set. shifts is consumed; the returned slice
// is the only one callers should keep using.
func Merge(cfg *config.Config, shifts []*domain.Shift, dist distancematrix.Lookup) []*domain.Shift {
	for {
		sort.Slice(shifts, func(i, j int) bool {
			return shifts[i].StartTime().Before(shifts[j].StartTime())
		})

		merged := false
		for i := 0; i < len(shifts); i++ {
			a := shifts[i]
			if a.MergeAttempts >= cfg.MaxMergeAttempts {
				continue
			}
			limit := cfg.MergeClosestShifts
			for offset := 1; offset <= limit && i+offset < len(shifts); offset++ {
				j := i + offset
				b := shifts[j]

				combined, ok := tryMerge(cfg, a, b, dist)
				if !ok {
					continue
				}

				combined.MergeAttempts = a.MergeAttempts + 1
				shifts[i] = combined
				shifts = append(shifts[:j], shifts[j+1:]...)
				merged = true
				break
			}
			if merged {
				break
			}
		}

		if !merged {
			break
		}
	}
	return shifts
}

// tryMerge simulates repositioning b's jobs after a's last job and running
// FeasibilityChecker on the combined, resequenced set. Enforced jobs keep
// their start, and shifts holding a long-service job are never merged.
// Neither a nor b is mutated unless the merge is committed by the caller.
func tryMerge(cfg *config.Config, a, b *domain.Shift, dist distancematrix.Lookup) (*domain.Shift, bool) {
	if len(a.Jobs) == 0 || len(b.Jobs) == 0 {
		return nil, false
	}
	for _, s := range []*domain.Shift{a, b} {
		for _, j := range s.Jobs {
			if j.Duration >= cfg.LongServiceThreshold() {
				return nil, false // long-service jobs keep a shift of their own
			}
		}
	}

	candidate := a.Clone()
	bJobs := cloneJobs(b.Jobs)
	sortByStart(bJobs)

	for _, bj := range bJobs {
		tryStart := nextStart(candidate, bj, cfg, dist)
		if bj.Tech.Enforced {
			tryStart = bj.Start // enforced jobs stay at their preferred instant
		}
		result := feasibility.Check(cfg, candidate, bj.Job, tryStart, dist, nil)
		if !result.Feasible {
			return nil, false
		}
		travel := travelFrom(candidate, bj, tryStart, cfg, dist)
		sj := &domain.ScheduledJob{
			Job:                    bj.Job,
			Start:                  tryStart,
			End:                    tryStart.Add(bj.Duration),
			Cluster:                candidate.Cluster,
			DistanceFromPrevious:   travel.distance,
			TravelTimeFromPrevious: travel.duration,
		}
		candidate.Jobs = append(candidate.Jobs, sj)
	}

	if candidate.EnforcedTechCode == "" {
		candidate.EnforcedTechCode = b.EnforcedTechCode
	} else if b.EnforcedTechCode != "" && b.EnforcedTechCode != candidate.EnforcedTechCode {
		return nil, false // can't merge two shifts enforced to different techs
	}

	return candidate, true
}

func nextStart(shift *domain.Shift, next *domain.ScheduledJob, cfg *config.Config, dist distancematrix.Lookup) time.Time {
	prev := shift.Last(shift.EndTime())
	if prev == nil {
		return next.Window.Earliest
	}
	d, ok := dist.Distance(prev.LocationID, next.LocationID)
	travel := time.Duration(0)
	if ok {
		travel = time.Duration(geo.TravelTimeMinutes(d, cfg.TechSpeedMph)) * time.Minute
	}
	start := prev.End.Add(travel)
	if start.Before(next.Window.Earliest) {
		start = next.Window.Earliest
	}
	return start
}

type travelInfo struct {
	distance float64
	duration time.Duration
}

func travelFrom(shift *domain.Shift, next *domain.ScheduledJob, tryStart time.Time, cfg *config.Config, dist distancematrix.Lookup) travelInfo {
	prev := shift.Last(tryStart)
	if prev == nil {
		return travelInfo{}
	}
	d, ok := dist.Distance(prev.LocationID, next.LocationID)
	if !ok {
		return travelInfo{}
	}
	return travelInfo{distance: d, duration: time.Duration(geo.TravelTimeMinutes(d, cfg.TechSpeedMph)) * time.Minute}
}

func cloneJobs(jobs []*domain.ScheduledJob) []*domain.ScheduledJob {
	out := make([]*domain.ScheduledJob, len(jobs))
	for i, j := range jobs {
		cp := *j
		out[i] = &cp
	}
	return out
}

func sortByStart(jobs []*domain.ScheduledJob) {
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Start.Before(jobs[j].Start) })
}
