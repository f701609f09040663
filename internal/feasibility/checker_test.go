package feasibility_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/shift-scheduler/internal/config"
	"github.com/pageza/shift-scheduler/internal/distancematrix"
	"github.com/pageza/shift-scheduler/internal/domain"
	"github.com/pageza/shift-scheduler/internal/feasibility"
)

func at(h, m int) time.Time {
	return time.Date(2026, 7, 30, h, m, 0, 0, time.UTC)
}

func testConfig() *config.Config {
	return &config.Config{
		HardMaxRadiusMiles:       5,
		MaxRadiusAcrossBoroughs:  3,
		EnforceBoroughBoundaries: true,
		TechSpeedMph:             10,
		ShiftDurationMinutes:     480,
		MaxShiftJobs:             14,
		MinRestHours:             14,
		TargetRestHours:          16,
	}
}

func job(id, loc string, earliest, latest time.Time, dur time.Duration, lat, lon float64) domain.Job {
	return domain.Job{
		ID: id, LocationID: loc,
		Window:   domain.TimeWindow{Earliest: earliest, Latest: latest},
		Duration: dur,
		Latitude: lat, Longitude: lon,
	}
}

func TestCheckEmptyShiftWindowOK(t *testing.T) {
	cfg := testConfig()
	dist := distancematrix.NewMatrix(nil, nil, cfg.HardMaxRadiusMiles)
	j := job("J1", "L1", at(9, 0), at(11, 0), 30*time.Minute, 40.75, -73.98)

	result := feasibility.Check(cfg, domain.NewShift(0), j, at(9, 0), dist, nil)
	assert.True(t, result.Feasible)
}

func TestCheckWindowViolationBeforeEarliest(t *testing.T) {
	cfg := testConfig()
	dist := distancematrix.NewMatrix(nil, nil, cfg.HardMaxRadiusMiles)
	j := job("J1", "L1", at(9, 0), at(11, 0), 30*time.Minute, 40.75, -73.98)

	result := feasibility.Check(cfg, domain.NewShift(0), j, at(8, 30), dist, nil)
	require.False(t, result.Feasible)
	assert.Equal(t, domain.ReasonWindowViolation, result.Reason)
}

func TestCheckTravelTooShort(t *testing.T) {
	cfg := testConfig()
	dist := distancematrix.NewMatrix([]distancematrix.Entry{{A: "L1", B: "L2", Miles: 1}}, nil, cfg.HardMaxRadiusMiles)

	shift := domain.NewShift(0)
	shift.Jobs = append(shift.Jobs, &domain.ScheduledJob{
		Job: job("J1", "L1", at(9, 0), at(10, 0), 30*time.Minute, 40.75, -73.98),
		Start: at(9, 0), End: at(9, 30),
	})

	j2 := job("J2", "L2", at(9, 30), at(11, 0), 30*time.Minute, 40.75, -73.97)
	// 1 mile at 10mph = 6 minutes travel; trying to start right at prev.End
	// leaves no travel time at all.
	result := feasibility.Check(cfg, shift, j2, at(9, 30), dist, nil)
	require.False(t, result.Feasible)
	assert.Equal(t, domain.ReasonTravelTooShort, result.Reason)
}

func TestCheckTravelRespectedSucceeds(t *testing.T) {
	cfg := testConfig()
	dist := distancematrix.NewMatrix([]distancematrix.Entry{{A: "L1", B: "L2", Miles: 1}}, nil, cfg.HardMaxRadiusMiles)

	shift := domain.NewShift(0)
	shift.Jobs = append(shift.Jobs, &domain.ScheduledJob{
		Job: job("J1", "L1", at(9, 0), at(10, 0), 30*time.Minute, 40.75, -73.98),
		Start: at(9, 0), End: at(9, 30),
	})

	j2 := job("J2", "L2", at(9, 30), at(11, 0), 30*time.Minute, 40.75, -73.97)
	result := feasibility.Check(cfg, shift, j2, at(9, 36), dist, nil)
	assert.True(t, result.Feasible)
}

func TestCheckTooFarBeyondHardCap(t *testing.T) {
	cfg := testConfig()
	dist := distancematrix.NewMatrix([]distancematrix.Entry{{A: "L1", B: "L2", Miles: 10}}, nil, cfg.HardMaxRadiusMiles)

	shift := domain.NewShift(0)
	shift.Jobs = append(shift.Jobs, &domain.ScheduledJob{
		Job: job("J1", "L1", at(9, 0), at(10, 0), 30*time.Minute, 40.75, -73.98),
		Start: at(9, 0), End: at(9, 30),
	})

	j2 := job("J2", "L2", at(9, 30), at(11, 0), 30*time.Minute, 40.80, -73.70)
	result := feasibility.Check(cfg, shift, j2, at(10, 0), dist, nil)
	require.False(t, result.Feasible)
	assert.Equal(t, domain.ReasonTooFar, result.Reason)
}

func TestCheckOverlapRejected(t *testing.T) {
	cfg := testConfig()
	dist := distancematrix.NewMatrix([]distancematrix.Entry{{A: "L1", B: "L2", Miles: 0.1}}, nil, cfg.HardMaxRadiusMiles)

	shift := domain.NewShift(0)
	shift.Jobs = append(shift.Jobs, &domain.ScheduledJob{
		Job: job("J1", "L1", at(9, 0), at(10, 0), 60*time.Minute, 40.75, -73.98),
		Start: at(9, 0), End: at(10, 0),
	})

	j2 := job("J2", "L2", at(9, 30), at(11, 0), 30*time.Minute, 40.75, -73.98)
	result := feasibility.Check(cfg, shift, j2, at(9, 30), dist, nil)
	require.False(t, result.Feasible)
	assert.Equal(t, domain.ReasonTimeConflict, result.Reason)
}

func TestCheckShiftFullAtCardinalityCap(t *testing.T) {
	cfg := testConfig()
	cfg.MaxShiftJobs = 1
	dist := distancematrix.NewMatrix([]distancematrix.Entry{{A: "L1", B: "L2", Miles: 0.1}}, nil, cfg.HardMaxRadiusMiles)

	shift := domain.NewShift(0)
	shift.Jobs = append(shift.Jobs, &domain.ScheduledJob{
		Job: job("J1", "L1", at(9, 0), at(10, 0), 30*time.Minute, 40.75, -73.98),
		Start: at(9, 0), End: at(9, 30),
	})

	j2 := job("J2", "L2", at(9, 30), at(11, 0), 30*time.Minute, 40.75, -73.98)
	result := feasibility.Check(cfg, shift, j2, at(9, 36), dist, nil)
	require.False(t, result.Feasible)
	assert.Equal(t, domain.ReasonShiftFull, result.Reason)
}

func TestCheckDoesNotMutateShift(t *testing.T) {
	cfg := testConfig()
	dist := distancematrix.NewMatrix([]distancematrix.Entry{{A: "L1", B: "L2", Miles: 1}}, nil, cfg.HardMaxRadiusMiles)

	shift := domain.NewShift(0)
	shift.Jobs = append(shift.Jobs, &domain.ScheduledJob{
		Job: job("J1", "L1", at(9, 0), at(10, 0), 30*time.Minute, 40.75, -73.98),
		Start: at(9, 0), End: at(9, 30),
		TravelTimeFromPrevious: 0,
	})

	j2 := job("J2", "L2", at(9, 30), at(11, 0), 30*time.Minute, 40.75, -73.97)
	_ = feasibility.Check(cfg, shift, j2, at(9, 36), dist, nil)

	assert.Equal(t, time.Duration(0), shift.Jobs[0].TravelTimeFromPrevious)
	assert.Len(t, shift.Jobs, 1)
}
