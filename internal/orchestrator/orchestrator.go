// Package orchestrator runs one full scheduling orchestration: week
// grouping, per-week build/merge/sequence/tech-assignment, progress
// reporting, and the final consistency check (spec §4.9).
package orchestrator

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/pageza/shift-scheduler/internal/config"
	"github.com/pageza/shift-scheduler/internal/distancematrix"
	"github.com/pageza/shift-scheduler/internal/domain"
	"github.com/pageza/shift-scheduler/internal/scorer"
	"github.com/pageza/shift-scheduler/internal/shiftbuilder"
	"github.com/pageza/shift-scheduler/internal/shiftmerger"
	"github.com/pageza/shift-scheduler/internal/techassigner"
)

// Sentinel errors, matching the taxonomy in spec §7. Callers distinguish
// them with errors.Is.
var (
	ErrMalformedJob        = errors.New("orchestrator: no valid jobs remained after pre-filter")
	ErrCancelled           = errors.New("orchestrator: run cancelled")
	ErrConsistencyViolation = errors.New("orchestrator: internal consistency violation")
)

// ProgressFunc is invoked at each week boundary with data in [0,1], and once
// more at the end with the final Output.
type ProgressFunc func(event domain.ProgressEvent)

// CancelFunc is polled at each week boundary; returning true aborts the run
// with ErrCancelled.
type CancelFunc func() bool

// Orchestrator wires the pipeline components together for one run.
type Orchestrator struct {
	cfg    *config.Config
	dist   distancematrix.Lookup
	logger *log.Logger
}

// New constructs an Orchestrator. logger may be nil, in which case
// log.Default() is used — matching the teacher's constructor-injected
// *log.Logger convention.
func New(cfg *config.Config, dist distancematrix.Lookup, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.Default()
	}
	return &Orchestrator{cfg: cfg, dist: dist, logger: logger}
}

// Run executes one orchestration over jobs, reporting progress via onProgress
// (nil is fine) and checking cancel at week boundaries (nil never cancels).
func (o *Orchestrator) Run(jobs []domain.Job, onProgress ProgressFunc, cancel CancelFunc) (*domain.Output, error) {
	start := time.Now()

	valid, dropped := dedupeAndValidate(jobs, o.cfg.ShiftDuration())
	if len(valid) == 0 {
		return nil, ErrMalformedJob
	}
	if len(dropped) > 0 {
		o.logger.Printf("orchestrator: dropped %d malformed/duplicate jobs", len(dropped))
	}

	weeks := groupByWeek(valid)
	weekKeys := make([]time.Time, 0, len(weeks))
	for k := range weeks {
		weekKeys = append(weekKeys, k)
	}
	sort.Slice(weekKeys, func(i, j int) bool { return weekKeys[i].Before(weekKeys[j]) })

	cache := scorer.NewCache()
	registry := techassigner.NewRegistry()

	var allScheduled []*domain.ScheduledJob
	var allUnassigned []domain.UnassignedService

	for i, wk := range weekKeys {
		if cancel != nil && cancel() {
			return nil, ErrCancelled
		}

		weekJobs := weeks[wk]
		shifts, unassigned := shiftbuilder.Build(o.cfg, weekJobs, o.dist, cache)
		shifts = shiftmerger.Merge(o.cfg, shifts, o.dist)

		for _, s := range shifts {
			s.AssignSequence()
			fillDistances(s, o.dist)
		}

		byDay := groupByDay(shifts)
		registry.StartWeek()
		dayKeys := make([]time.Time, 0, len(byDay))
		for d := range byDay {
			dayKeys = append(dayKeys, d)
		}
		sort.Slice(dayKeys, func(a, b int) bool { return dayKeys[a].Before(dayKeys[b]) })
		for _, d := range dayKeys {
			techassigner.AssignDay(o.cfg, registry, byDay[d])
		}
		for _, s := range shifts {
			for _, j := range s.Jobs {
				j.TechID = s.TechID
			}
		}

		if err := checkConsistency(shifts); err != nil {
			return nil, err
		}

		for _, s := range shifts {
			allScheduled = append(allScheduled, s.Jobs...)
		}
		allUnassigned = append(allUnassigned, unassigned...)

		if onProgress != nil {
			onProgress(domain.ProgressEvent{Type: "progress", Data: float64(i+1) / float64(len(weekKeys))})
		}
	}

	info := buildClusteringInfo(allScheduled, registry, time.Since(start))
	output := &domain.Output{
		ScheduledServices:  allScheduled,
		UnassignedServices: allUnassigned,
		ClusteringInfo:     info,
	}

	if onProgress != nil {
		onProgress(domain.ProgressEvent{Type: "result", Data: output})
	}
	return output, nil
}

func dedupeAndValidate(jobs []domain.Job, shiftDurationMax time.Duration) (valid []domain.Job, dropped []domain.Job) {
	seen := make(map[string]bool)
	for _, j := range jobs {
		if seen[j.ID] {
			dropped = append(dropped, j)
			continue
		}
		if err := j.Validate(shiftDurationMax); err != nil {
			dropped = append(dropped, j)
			continue
		}
		seen[j.ID] = true
		valid = append(valid, j)
	}
	return valid, dropped
}

// groupByWeek buckets jobs by the Sunday 00:00 local instant that starts
// their calendar week (spec §4.9 step 1).
func groupByWeek(jobs []domain.Job) map[time.Time][]domain.Job {
	out := make(map[time.Time][]domain.Job)
	for _, j := range jobs {
		wk := weekStart(j.Window.Earliest)
		out[wk] = append(out[wk], j)
	}
	return out
}

func weekStart(t time.Time) time.Time {
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := int(t.Weekday())
	return t.AddDate(0, 0, -offset)
}

func groupByDay(shifts []*domain.Shift) map[time.Time][]*domain.Shift {
	out := make(map[time.Time][]*domain.Shift)
	for _, s := range shifts {
		d := dayStart(s.StartTime())
		out[d] = append(out[d], s)
	}
	return out
}

func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// fillDistances recomputes DistanceFromPrevious after AssignSequence has
// fixed final shift order and zeroes both travel fields on the first job.
// TravelTimeFromPrevious on later jobs keeps the value set when the builder
// or merger placed the job — AssignSequence itself only derives ordinal
// fields, per domain.Shift's doc comment.
func fillDistances(s *domain.Shift, dist distancematrix.Lookup) {
	for i, j := range s.Jobs {
		if i == 0 {
			j.DistanceFromPrevious = 0
			j.TravelTimeFromPrevious = 0
			continue
		}
		prev := s.Jobs[i-1]
		d, ok := dist.Distance(prev.LocationID, j.LocationID)
		if !ok {
			continue
		}
		j.DistanceFromPrevious = d
	}
}

func checkConsistency(shifts []*domain.Shift) error {
	for _, s := range shifts {
		for i := 0; i < len(s.Jobs); i++ {
			for j := i + 1; j < len(s.Jobs); j++ {
				if s.Jobs[i].Overlaps(s.Jobs[j]) {
					return fmt.Errorf("%w: shift %d jobs %s and %s overlap", ErrConsistencyViolation, s.Cluster, s.Jobs[i].ID, s.Jobs[j].ID)
				}
			}
		}
	}
	return nil
}

func buildClusteringInfo(scheduled []*domain.ScheduledJob, registry *techassigner.Registry, elapsed time.Duration) domain.ClusteringInfo {
	sizeByCluster := make(map[int]int)
	for _, j := range scheduled {
		sizeByCluster[j.Cluster]++
	}
	clusterIDs := make([]int, 0, len(sizeByCluster))
	for id := range sizeByCluster {
		clusterIDs = append(clusterIDs, id)
	}
	sort.Ints(clusterIDs)

	sizes := make([]int, 0, len(clusterIDs))
	dist := make([]domain.ClusterSize, 0, len(clusterIDs))
	for _, id := range clusterIDs {
		sizes = append(sizes, sizeByCluster[id])
		dist = append(dist, domain.ClusterSize{ClusterID: id, Count: sizeByCluster[id]})
	}

	techCounts := make(map[string]int)
	for _, j := range scheduled {
		techCounts[j.TechID]++
	}

	return domain.ClusteringInfo{
		Algorithm:             "shifts",
		PerformanceDurationMs: elapsed.Milliseconds(),
		ConnectedPointsCount:  len(scheduled),
		TotalClusters:         len(clusterIDs),
		ClusterSizes:          sizes,
		ClusterDistribution:   dist,
		TechAssignments:       registry.Assignments(techCounts),
	}
}
