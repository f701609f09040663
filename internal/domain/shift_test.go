package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/shift-scheduler/internal/domain"
)

func scheduledJob(id string, start, end time.Time) *domain.ScheduledJob {
	return &domain.ScheduledJob{
		Job:   domain.Job{ID: id, Company: id + "-co"},
		Start: start,
		End:   end,
	}
}

func TestAssignSequenceOrdersByStartAndFillsOrdinals(t *testing.T) {
	shift := domain.NewShift(3)
	// Appended out of order; AssignSequence must sort before numbering.
	shift.Jobs = []*domain.ScheduledJob{
		scheduledJob("b", at(10, 0), at(10, 30)),
		scheduledJob("a", at(9, 0), at(9, 30)),
		scheduledJob("c", at(11, 0), at(11, 30)),
	}

	shift.AssignSequence()

	require.Len(t, shift.Jobs, 3)
	assert.Equal(t, "a", shift.Jobs[0].ID)
	assert.Equal(t, "b", shift.Jobs[1].ID)
	assert.Equal(t, "c", shift.Jobs[2].ID)

	for i, j := range shift.Jobs {
		assert.Equal(t, i+1, j.SequenceNumber)
		assert.Equal(t, 3, j.Cluster)
	}

	assert.Nil(t, shift.Jobs[0].PreviousService)
	assert.Nil(t, shift.Jobs[0].PreviousCompany)

	require.NotNil(t, shift.Jobs[1].PreviousService)
	assert.Equal(t, "a", *shift.Jobs[1].PreviousService)
	require.NotNil(t, shift.Jobs[1].PreviousCompany)
	assert.Equal(t, "a-co", *shift.Jobs[1].PreviousCompany)

	require.NotNil(t, shift.Jobs[2].PreviousService)
	assert.Equal(t, "b", *shift.Jobs[2].PreviousService)
}

func TestAssignSequenceDoesNotTouchTravelFields(t *testing.T) {
	shift := domain.NewShift(0)
	sj := scheduledJob("a", at(9, 0), at(9, 30))
	sj.DistanceFromPrevious = 4.2
	sj.TravelTimeFromPrevious = 7 * time.Minute
	shift.Jobs = []*domain.ScheduledJob{sj}

	shift.AssignSequence()

	assert.Equal(t, 4.2, shift.Jobs[0].DistanceFromPrevious)
	assert.Equal(t, 7*time.Minute, shift.Jobs[0].TravelTimeFromPrevious)
}

func TestStartTimeAndEndTimeSpanAllJobs(t *testing.T) {
	shift := domain.NewShift(0)
	shift.Jobs = []*domain.ScheduledJob{
		scheduledJob("a", at(10, 0), at(10, 30)),
		scheduledJob("b", at(9, 0), at(9, 45)),
		scheduledJob("c", at(11, 0), at(11, 15)),
	}

	assert.True(t, shift.StartTime().Equal(at(9, 0)))
	assert.True(t, shift.EndTime().Equal(at(11, 15)))
}

func TestLastReturnsLatestJobEndingAtOrBeforeT(t *testing.T) {
	shift := domain.NewShift(0)
	shift.Jobs = []*domain.ScheduledJob{
		scheduledJob("a", at(9, 0), at(9, 30)),
		scheduledJob("b", at(10, 0), at(10, 30)),
	}

	got := shift.Last(at(10, 30))
	require.NotNil(t, got)
	assert.Equal(t, "b", got.ID)

	got = shift.Last(at(9, 45))
	require.NotNil(t, got)
	assert.Equal(t, "a", got.ID)

	assert.Nil(t, shift.Last(at(8, 0)))
}

func TestCloneCopiesShiftFieldsIntoAnIndependentJobsSlice(t *testing.T) {
	shift := domain.NewShift(2)
	shift.TechID = "Tech 1"
	shift.EnforcedTechCode = "T42"
	shift.MergeAttempts = 1
	shift.Jobs = []*domain.ScheduledJob{scheduledJob("a", at(9, 0), at(9, 30))}

	clone := shift.Clone()

	assert.Equal(t, shift.Cluster, clone.Cluster)
	assert.Equal(t, shift.TechID, clone.TechID)
	assert.Equal(t, shift.EnforcedTechCode, clone.EnforcedTechCode)
	assert.Equal(t, shift.MergeAttempts, clone.MergeAttempts)
	require.Len(t, clone.Jobs, 1)

	clone.Jobs = append(clone.Jobs, scheduledJob("b", at(10, 0), at(10, 30)))
	assert.Len(t, shift.Jobs, 1, "appending to the clone's slice must not affect the original")
}

func TestOverlapsDetectsIntersectionButNotTouchingEndpoints(t *testing.T) {
	a := scheduledJob("a", at(9, 0), at(10, 0))
	b := scheduledJob("b", at(9, 30), at(10, 30))
	c := scheduledJob("c", at(10, 0), at(10, 30))

	assert.True(t, a.Overlaps(b))
	assert.True(t, b.Overlaps(a))
	assert.False(t, a.Overlaps(c), "touching endpoints must not count as overlap")
}
