package techassigner_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/shift-scheduler/internal/config"
	"github.com/pageza/shift-scheduler/internal/domain"
	"github.com/pageza/shift-scheduler/internal/techassigner"
)

func at(day, h, m int) time.Time {
	return time.Date(2026, 7, day, h, m, 0, 0, time.UTC)
}

func testConfig() *config.Config {
	return &config.Config{
		TechStartTimeVarianceMinutes: 45,
		MinRestHours:                 14,
		TargetRestHours:              16,
	}
}

func shiftAt(cluster int, start, end time.Time) *domain.Shift {
	s := domain.NewShift(cluster)
	s.Jobs = append(s.Jobs, &domain.ScheduledJob{
		Job:   domain.Job{ID: "J", LocationID: "L"},
		Start: start, End: end,
	})
	return s
}

func TestAssignDayMintsNewTechsOnFirstDay(t *testing.T) {
	cfg := testConfig()
	reg := techassigner.NewRegistry()
	reg.StartWeek()
	shifts := []*domain.Shift{
		shiftAt(0, at(27, 9, 0), at(27, 12, 0)),
		shiftAt(1, at(27, 10, 0), at(27, 13, 0)),
	}
	techassigner.AssignDay(cfg, reg, shifts)

	assert.Equal(t, "Tech 1", shifts[0].TechID)
	assert.Equal(t, "Tech 2", shifts[1].TechID)
}

func TestAssignDayRebindsSameTechByStartTimeSimilarity(t *testing.T) {
	cfg := testConfig()
	reg := techassigner.NewRegistry()

	reg.StartWeek()
	day1 := []*domain.Shift{shiftAt(0, at(27, 9, 0), at(27, 12, 0))}
	techassigner.AssignDay(cfg, reg, day1)
	require.Equal(t, "Tech 1", day1[0].TechID)

	reg.StartWeek()
	day2 := []*domain.Shift{shiftAt(1, at(28, 9, 10), at(28, 12, 0))}
	techassigner.AssignDay(cfg, reg, day2)
	assert.Equal(t, "Tech 1", day2[0].TechID)
}

func TestAssignDayFallsBackToNewTechWhenRestInsufficient(t *testing.T) {
	cfg := testConfig()
	reg := techassigner.NewRegistry()
	reg.StartWeek() // one call covers the whole week below

	day1 := []*domain.Shift{shiftAt(0, at(27, 9, 0), at(27, 23, 0))}
	techassigner.AssignDay(cfg, reg, day1)
	require.Equal(t, "Tech 1", day1[0].TechID)

	// Only 10 hours between day1's end (23:00) and day2's start (09:00) —
	// below MinRestHours, so Tech 1 cannot be reused even though the start
	// times match.
	day2 := []*domain.Shift{shiftAt(1, at(28, 9, 0), at(28, 14, 0))}
	techassigner.AssignDay(cfg, reg, day2)
	assert.NotEqual(t, "Tech 1", day2[0].TechID)
}
