// Package testutil provides job fixture generation for tests, grounded on
// the teacher's tests/testutils fixture pattern: struct-returning
// constructors with functional options, backed by go-faker for realistic
// placeholder values.
package testutil

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/go-faker/faker/v4"

	"github.com/pageza/shift-scheduler/internal/domain"
)

// JobOption customizes a generated Job after its defaults are filled in.
type JobOption func(*domain.Job)

// NewJob builds a Job with randomized but internally-consistent defaults: a
// two-hour window starting at baseTime, a 30-minute duration, and NYC-area
// coordinates. id must be unique per run; use opts to override any field.
func NewJob(rng *rand.Rand, id string, baseTime time.Time, opts ...JobOption) domain.Job {
	earliest := baseTime
	latest := baseTime.Add(2 * time.Hour)

	j := domain.Job{
		ID:         id,
		LocationID: fmt.Sprintf("loc-%s", id),
		Latitude:   40.70 + rng.Float64()*0.10,
		Longitude:  -74.00 + rng.Float64()*0.10,
		Company:    faker.Company(),
		Window:     domain.TimeWindow{Earliest: earliest, Latest: latest},
		Preferred:  earliest,
		Duration:   30 * time.Minute,
	}

	for _, opt := range opts {
		opt(&j)
	}
	return j
}

// WithDuration overrides the job's duration.
func WithDuration(d time.Duration) JobOption {
	return func(j *domain.Job) { j.Duration = d }
}

// WithWindow overrides the job's time window and clips Preferred into it.
func WithWindow(earliest, latest time.Time) JobOption {
	return func(j *domain.Job) {
		j.Window = domain.TimeWindow{Earliest: earliest, Latest: latest}
		if j.Preferred.Before(earliest) || j.Preferred.After(latest) {
			j.Preferred = earliest
		}
	}
}

// WithCoordinates overrides the job's latitude/longitude.
func WithCoordinates(lat, lon float64) JobOption {
	return func(j *domain.Job) { j.Latitude = lat; j.Longitude = lon }
}

// WithEnforcedTech pins the job to techCode at preferred.
func WithEnforcedTech(techCode string, preferred time.Time) JobOption {
	return func(j *domain.Job) {
		j.Tech = domain.TechEnforcement{Enforced: true, Code: techCode}
		j.Preferred = preferred
	}
}

// Batch generates n jobs in a tight cluster starting at baseTime, each
// chainable after the previous by a small fixed offset — a convenient
// fixture for exercising ShiftBuilder's extension loop.
func Batch(rng *rand.Rand, n int, baseTime time.Time) []domain.Job {
	jobs := make([]domain.Job, n)
	for i := 0; i < n; i++ {
		start := baseTime.Add(time.Duration(i) * 40 * time.Minute)
		jobs[i] = NewJob(rng, fmt.Sprintf("J%d", i+1), start,
			WithWindow(start, start.Add(90*time.Minute)),
			WithDuration(30*time.Minute),
		)
	}
	return jobs
}
