// Package feasibility implements the FeasibilityChecker (spec §4.4): a pure
// function over a candidate (shift, job, tryStart) that validates window,
// travel, distance, overlap, shift-length, cardinality, rest, and borough
// constraints. It never mutates the shift it is given.
package feasibility

import (
	"time"

	"github.com/pageza/shift-scheduler/internal/config"
	"github.com/pageza/shift-scheduler/internal/distancematrix"
	"github.com/pageza/shift-scheduler/internal/domain"
	"github.com/pageza/shift-scheduler/internal/geo"
	"github.com/pageza/shift-scheduler/internal/timealgebra"
)

// Result is the outcome of one feasibility check.
type Result struct {
	Feasible          bool
	Reason            domain.Reason
	NewWorkingDuration time.Duration
}

func infeasible(reason domain.Reason) Result {
	return Result{Feasible: false, Reason: reason}
}

// RestNeighbor is a same-technician shift from elsewhere in the week, used
// only by the rest-period check (item 7). The checker consults this when
// the candidate shift already carries an EnforcedTechCode — general,
// non-enforced rest enforcement is TechAssigner's job (spec §4.8), since
// tech ids aren't known yet while shifts are being built or merged.
type RestNeighbor struct {
	TechCode string
	Start    time.Time
	End      time.Time
}

// Check validates inserting job into shift at tryStart. shift is never
// mutated. restNeighbors is consulted only in the enforced-tech case
// described above; ShiftBuilder and ShiftMerger both pass nil.
func Check(cfg *config.Config, shift *domain.Shift, job domain.Job, tryStart time.Time, dist distancematrix.Lookup, restNeighbors []RestNeighbor) Result {
	tryEnd := tryStart.Add(job.Duration)

	// 1. Window.
	if tryStart.Before(job.Window.Earliest) || tryStart.After(job.Window.Latest) {
		return infeasible(domain.ReasonWindowViolation)
	}
	windowEndBound := job.Window.Latest.Add(job.Duration)
	if tryEnd.After(windowEndBound) {
		return infeasible(domain.ReasonWindowViolation)
	}

	if len(shift.Jobs) > 0 {
		// 2. Travel from previous.
		if prev := shift.Last(tryStart); prev != nil {
			d, ok := dist.Distance(prev.LocationID, job.LocationID)
			if !ok {
				return infeasible(domain.ReasonTooFar)
			}
			travel := time.Duration(geo.TravelTimeMinutes(d, cfg.TechSpeedMph)) * time.Minute
			if tryStart.Before(prev.End.Add(travel)) {
				return infeasible(domain.ReasonTravelTooShort)
			}
		}

		// 3. Distance cap to all existing jobs in the shift.
		for _, other := range shift.Jobs {
			d, ok := dist.Distance(other.LocationID, job.LocationID)
			if !ok || d > cfg.HardMaxRadiusMiles {
				return infeasible(domain.ReasonTooFar)
			}
			if cfg.EnforceBoroughBoundaries {
				same := geo.SameBorough(other.Latitude, other.Longitude, job.Latitude, job.Longitude)
				if d > cfg.MaxRadiusAcrossBoroughs && !same {
					return infeasible(domain.ReasonCrossBoroughTooFar)
				}
			}
		}

		// 4. Overlap.
		for _, other := range shift.Jobs {
			if timealgebra.Overlaps(tryStart, tryEnd, other.Start, other.End) {
				return infeasible(domain.ReasonTimeConflict)
			}
		}
	}

	// 5 & 6. Shift length and cardinality, simulated with the candidate
	// inserted.
	simulated := make([]*domain.ScheduledJob, 0, len(shift.Jobs)+1)
	for _, existing := range shift.Jobs {
		cp := *existing // checker must not mutate the caller's shift
		simulated = append(simulated, &cp)
	}
	simulated = append(simulated, &domain.ScheduledJob{Job: job, Start: tryStart, End: tryEnd})
	if len(simulated) > cfg.MaxShiftJobs {
		return infeasible(domain.ReasonShiftFull)
	}
	sortByStart(simulated)
	fillTravel(simulated, cfg, dist)
	working := timealgebra.WorkingDuration(simulated)
	if working > cfg.ShiftDuration() {
		return infeasible(domain.ReasonShiftTooLong)
	}

	// 7. Rest periods (enforced-tech shifts only; see RestNeighbor doc).
	if shift.EnforcedTechCode != "" {
		for _, n := range restNeighbors {
			if n.TechCode != shift.EnforcedTechCode {
				continue
			}
			if !restSatisfied(n, tryStart, tryEnd, cfg) {
				return infeasible(domain.ReasonInsufficientRest)
			}
		}
	}

	// 8. Borough boundary: the job's borough is compared with the shift's
	// first job; a different known borough is accepted only within
	// MaxRadiusAcrossBoroughs of that job.
	if cfg.EnforceBoroughBoundaries && len(shift.Jobs) > 0 {
		shiftBorough := geo.BoroughOf(shift.Jobs[0].Latitude, shift.Jobs[0].Longitude)
		jobBorough := geo.BoroughOf(job.Latitude, job.Longitude)
		if shiftBorough != geo.Unknown && jobBorough != geo.Unknown && shiftBorough != jobBorough {
			d, ok := dist.Distance(shift.Jobs[0].LocationID, job.LocationID)
			if !ok || d > cfg.MaxRadiusAcrossBoroughs {
				return infeasible(domain.ReasonCrossBoroughTooFar)
			}
		}
	}

	return Result{Feasible: true, NewWorkingDuration: working}
}

func restSatisfied(n RestNeighbor, tryStart, tryEnd time.Time, cfg *config.Config) bool {
	var rest time.Duration
	if n.End.Before(tryStart) || n.End.Equal(tryStart) {
		rest = tryStart.Sub(n.End)
	} else if tryEnd.Before(n.Start) || tryEnd.Equal(n.Start) {
		rest = n.Start.Sub(tryEnd)
	} else {
		return false // the two shifts overlap outright
	}
	return rest >= cfg.MinRest()
}

func sortByStart(jobs []*domain.ScheduledJob) {
	for i := 1; i < len(jobs); i++ {
		for j := i; j > 0 && jobs[j].Start.Before(jobs[j-1].Start); j-- {
			jobs[j], jobs[j-1] = jobs[j-1], jobs[j]
		}
	}
}

// fillTravel recomputes TravelTimeFromPrevious across a freshly sorted
// simulated slice so WorkingDuration sees realistic travel time, without
// touching the caller's original ScheduledJob values.
func fillTravel(jobs []*domain.ScheduledJob, cfg *config.Config, dist distancematrix.Lookup) {
	for i, j := range jobs {
		if i == 0 {
			j.TravelTimeFromPrevious = 0
			continue
		}
		prev := jobs[i-1]
		d, ok := dist.Distance(prev.LocationID, j.LocationID)
		if !ok {
			j.TravelTimeFromPrevious = 0
			continue
		}
		j.TravelTimeFromPrevious = time.Duration(geo.TravelTimeMinutes(d, cfg.TechSpeedMph)) * time.Minute
	}
}
