package domain

import (
	"sort"
	"time"
)

// Shift is an ephemeral, ordered collection of ScheduledJobs executed by one
// technician. It exists only within the Orchestrator's per-week loop.
type Shift struct {
	Cluster       int
	Jobs          []*ScheduledJob
	MergeAttempts int

	// TechID is empty until TechAssigner (or an enforced job) binds it.
	TechID string
	// EnforcedTechCode is set when the shift holds a job pinned to a
	// technician via Job.Tech (ShiftMerger keeps it when it fuses such a
	// shift with unpinned ones); TechAssigner binds directly to it instead of
	// matching by start-time similarity.
	EnforcedTechCode string
}

// NewShift creates an empty shift with the given cluster index.
func NewShift(cluster int) *Shift {
	return &Shift{Cluster: cluster}
}

// StartTime is the earliest job start in the shift. Callers must not call
// this on an empty shift.
func (s *Shift) StartTime() time.Time {
	start := s.Jobs[0].Start
	for _, j := range s.Jobs[1:] {
		if j.Start.Before(start) {
			start = j.Start
		}
	}
	return start
}

// EndTime is the latest job end in the shift.
func (s *Shift) EndTime() time.Time {
	end := s.Jobs[0].End
	for _, j := range s.Jobs[1:] {
		if j.End.After(end) {
			end = j.End
		}
	}
	return end
}

// Last returns the chronologically latest job ending at or before t, or nil.
func (s *Shift) Last(t time.Time) *ScheduledJob {
	var best *ScheduledJob
	for _, j := range s.Jobs {
		if j.End.After(t) {
			continue
		}
		if best == nil || j.End.After(best.End) {
			best = j
		}
	}
	return best
}

// SortByStart orders the shift's jobs chronologically in place.
func (s *Shift) SortByStart() {
	sort.Slice(s.Jobs, func(i, j int) bool {
		return s.Jobs[i].Start.Before(s.Jobs[j].Start)
	})
}

// AssignSequence sorts by start and fills SequenceNumber, PreviousService,
// PreviousCompany. Distance/travel-time-from-previous are expected to
// already be set by whatever placed the job (builder or merger); this only
// derives the ordinal fields that depend on final order.
func (s *Shift) AssignSequence() {
	s.SortByStart()
	for i, j := range s.Jobs {
		j.Cluster = s.Cluster
		j.SequenceNumber = i + 1
		if i == 0 {
			j.PreviousService = nil
			j.PreviousCompany = nil
		} else {
			prev := s.Jobs[i-1]
			id := prev.ID
			company := prev.Company
			j.PreviousService = &id
			j.PreviousCompany = &company
		}
	}
}

// Clone returns a shallow copy of the shift with its own Jobs slice, so
// callers can simulate a merge without mutating the original.
func (s *Shift) Clone() *Shift {
	jobs := make([]*ScheduledJob, len(s.Jobs))
	copy(jobs, s.Jobs)
	return &Shift{
		Cluster:          s.Cluster,
		Jobs:             jobs,
		MergeAttempts:    s.MergeAttempts,
		TechID:           s.TechID,
		EnforcedTechCode: s.EnforcedTechCode,
	}
}
