// Package timealgebra implements the small set of interval operations the
// rest of the engine shares: overlap testing, 15-minute rounding, working
// duration, and gap enumeration (spec §4.3).
package timealgebra

import (
	"time"

	"github.com/pageza/shift-scheduler/internal/domain"
)

// Overlaps reports whether [aStart,aEnd) and [bStart,bEnd) intersect.
// Touching endpoints do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// RoundUp15 returns the next instant whose minute is a multiple of 15.
// An instant already on a 15-minute boundary (with zero sub-minute
// remainder) is returned unchanged.
func RoundUp15(t time.Time) time.Time {
	rounded := t.Truncate(15 * time.Minute)
	if rounded.Equal(t) {
		return t
	}
	return rounded.Add(15 * time.Minute)
}

// WorkingDuration is the sum of job durations plus the sum of travel times
// between consecutive jobs, for jobs in execution (start-time) order.
func WorkingDuration(jobs []*domain.ScheduledJob) time.Duration {
	var total time.Duration
	for _, j := range jobs {
		total += j.Duration
		total += j.TravelTimeFromPrevious
	}
	return total
}

// Gap is a span of time with no scheduled job.
type Gap struct {
	Start time.Time
	End   time.Time
}

// FindGaps returns the intervals between start and end during which no job
// in jobs is scheduled. jobs need not be sorted; the result is in
// chronological order.
func FindGaps(start, end time.Time, jobs []*domain.ScheduledJob) []Gap {
	if !start.Before(end) {
		return nil
	}
	ordered := make([]*domain.ScheduledJob, len(jobs))
	copy(ordered, jobs)
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && ordered[j].Start.Before(ordered[j-1].Start); j-- {
			ordered[j], ordered[j-1] = ordered[j-1], ordered[j]
		}
	}

	var gaps []Gap
	cursor := start
	for _, j := range ordered {
		if j.End.Before(start) || !j.Start.Before(end) {
			continue
		}
		jobStart := j.Start
		if jobStart.Before(start) {
			jobStart = start
		}
		if cursor.Before(jobStart) {
			gaps = append(gaps, Gap{Start: cursor, End: jobStart})
		}
		jobEnd := j.End
		if jobEnd.After(end) {
			jobEnd = end
		}
		if jobEnd.After(cursor) {
			cursor = jobEnd
		}
	}
	if cursor.Before(end) {
		gaps = append(gaps, Gap{Start: cursor, End: end})
	}
	return gaps
}
