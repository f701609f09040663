// Package techassigner implements the TechAssigner component (spec §4.8):
// across the days of one week, binds each shift to a technician id by
// start-time similarity, minting new techs as needed and enforcing rest.
package techassigner

import (
	"fmt"
	"sort"
	"time"

	"github.com/pageza/shift-scheduler/internal/config"
	"github.com/pageza/shift-scheduler/internal/domain"
)

// Assignments builds the clusteringInfo.techAssignments summary (spec §6):
// one entry per tech that appears in counts, with its registered
// start-of-day.
func (r *Registry) Assignments(counts map[string]int) map[string]domain.TechAssignment {
	out := make(map[string]domain.TechAssignment, len(counts))
	for techID, count := range counts {
		out[techID] = domain.TechAssignment{
			Count:             count,
			StartOfDaySeconds: int64(r.startOfDay[techID] / time.Second),
		}
	}
	return out
}

// Registry tracks each tech's preferred start-of-day and the shifts bound to
// them so far this week. It is rebuilt at the start of every orchestration
// run (spec §3, "the tech registry is rebuilt at the start of every
// orchestration").
type Registry struct {
	startOfDay map[string]time.Duration
	weekShifts map[string][]*domain.Shift
	nextID     int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		startOfDay: make(map[string]time.Duration),
		weekShifts: make(map[string][]*domain.Shift),
	}
}

// StartWeek clears the per-week shift bindings (but keeps startOfDay, which
// persists across the whole orchestration per the spec's registry lifecycle)
// so rest enforcement only looks within the current week.
func (r *Registry) StartWeek() {
	r.weekShifts = make(map[string][]*domain.Shift)
}

// AssignDay binds each of the day's shifts (already sorted by start time by
// the caller) to a technician. Enforced shifts bind directly to their code.
func AssignDay(cfg *config.Config, reg *Registry, shifts []*domain.Shift) {
	sort.Slice(shifts, func(i, j int) bool {
		return shifts[i].StartTime().Before(shifts[j].StartTime())
	})

	used := make(map[string]bool)

	for _, shift := range shifts {
		if shift.EnforcedTechCode != "" {
			shift.TechID = shift.EnforcedTechCode
			reg.bind(shift.EnforcedTechCode, shift)
			used[shift.EnforcedTechCode] = true
			continue
		}

		startOfDay := secondsSinceMidnight(shift.StartTime())
		techID, ok := reg.bestMatch(cfg, startOfDay, used, shift)
		if !ok {
			techID = reg.mint(startOfDay)
		}
		shift.TechID = techID
		used[techID] = true
		reg.bind(techID, shift)
	}
}

func (r *Registry) bind(techID string, shift *domain.Shift) {
	if _, ok := r.startOfDay[techID]; !ok {
		r.startOfDay[techID] = secondsSinceMidnight(shift.StartTime())
	}
	r.weekShifts[techID] = append(r.weekShifts[techID], shift)
}

func (r *Registry) mint(startOfDay time.Duration) string {
	r.nextID++
	id := fmt.Sprintf("Tech %d", r.nextID)
	r.startOfDay[id] = startOfDay
	return id
}

// bestMatch finds the unused tech whose registered start-of-day is within
// TechStartTimeVariance of startOfDay and minimal, and whose rest against
// every other shift it already holds this week is >= MinRestHours for the
// candidate shift.
func (r *Registry) bestMatch(cfg *config.Config, startOfDay time.Duration, used map[string]bool, shift *domain.Shift) (string, bool) {
	best := ""
	bestDelta := cfg.TechStartTimeVariance() + time.Second

	techIDs := make([]string, 0, len(r.startOfDay))
	for id := range r.startOfDay {
		techIDs = append(techIDs, id)
	}
	sort.Strings(techIDs)

	for _, id := range techIDs {
		if used[id] {
			continue
		}
		registered := r.startOfDay[id]
		delta := registered - startOfDay
		if delta < 0 {
			delta = -delta
		}
		if delta > cfg.TechStartTimeVariance() {
			continue
		}
		if !restSatisfied(cfg, r.weekShifts[id], shift) {
			continue
		}
		if delta < bestDelta {
			bestDelta = delta
			best = id
		}
	}

	if best == "" {
		return "", false
	}
	return best, true
}

// restSatisfied checks the candidate shift against every shift the tech
// already holds this week: the gap must be >= MinRestHours in whichever
// direction the shifts fall.
func restSatisfied(cfg *config.Config, existing []*domain.Shift, candidate *domain.Shift) bool {
	for _, other := range existing {
		var rest time.Duration
		switch {
		case !other.EndTime().After(candidate.StartTime()):
			rest = candidate.StartTime().Sub(other.EndTime())
		case !candidate.EndTime().After(other.StartTime()):
			rest = other.StartTime().Sub(candidate.EndTime())
		default:
			return false // shifts overlap
		}
		if rest < cfg.MinRest() {
			return false
		}
	}
	return true
}

func secondsSinceMidnight(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute + time.Duration(t.Second())*time.Second
}
