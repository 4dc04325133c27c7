package window

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstWindowAlignsToGrid(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 7, 30, 0, time.UTC)
	s := NewScheduler(Grid, 900*time.Second, start)

	require.Equal(t, time.Date(2025, 6, 1, 12, 15, 0, 0, time.UTC), s.WindowEnd())
	assert.Equal(t, 450*time.Second, s.WindowEnd().Sub(start))
	assert.False(t, s.Steady())

	s.Advance()
	assert.Equal(t, time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC), s.WindowEnd())
	assert.True(t, s.Steady())
}

func TestStartExactlyOnGridMarkGetsFullWindow(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 15, 0, 0, time.UTC)
	s := NewScheduler(Grid, 900*time.Second, start)

	assert.Equal(t, time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC), s.WindowEnd())
	assert.False(t, s.Due(start))
}

func TestSteadyWindowsStayOnGrid(t *testing.T) {
	start := time.Date(2025, 6, 1, 23, 58, 11, 0, time.UTC)
	s := NewScheduler(Grid, 900*time.Second, start)

	prev := s.WindowEnd()
	for i := 0; i < 200; i++ {
		require.Zero(t, s.WindowEnd().Minute()%15, "end %s off grid", s.WindowEnd())
		require.Zero(t, s.WindowEnd().Second())
		s.Advance()
		require.Equal(t, 900*time.Second, s.WindowEnd().Sub(prev))
		prev = s.WindowEnd()
	}
}

func TestAdvanceRoundsForwardWhenNominalIsOffGrid(t *testing.T) {
	// A nominal duration that is not a grid multiple drifts the end off the
	// grid; Advance must round forward, never backward.
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := NewScheduler(Grid, 10*time.Minute, start)
	require.Equal(t, time.Date(2025, 6, 1, 12, 15, 0, 0, time.UTC), s.WindowEnd())

	s.Advance() // 12:25 -> 12:30
	assert.Equal(t, time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC), s.WindowEnd())
	s.Advance() // 12:40 -> 12:45
	assert.Equal(t, time.Date(2025, 6, 1, 12, 45, 0, 0, time.UTC), s.WindowEnd())
}

func TestLateFlushKeepsScheduledEnd(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 7, 30, 0, time.UTC)
	s := NewScheduler(Grid, 900*time.Second, start)

	late := s.WindowEnd().Add(3 * time.Minute)
	require.True(t, s.Due(late))
	// The partition key still comes from the scheduled end.
	assert.Equal(t, time.Date(2025, 6, 1, 12, 15, 0, 0, time.UTC), s.WindowEnd())

	s.Advance()
	assert.Equal(t, time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC), s.WindowEnd())
}

func TestDue(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 7, 30, 0, time.UTC)
	s := NewScheduler(Grid, 900*time.Second, start)

	assert.False(t, s.Due(start))
	assert.False(t, s.Due(s.WindowEnd().Add(-time.Second)))
	assert.True(t, s.Due(s.WindowEnd()))
	assert.True(t, s.Due(s.WindowEnd().Add(time.Hour)))
}

func TestSleepIsCappedAndNeverNegative(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 14, 57, 0, time.UTC)
	s := NewScheduler(Grid, 900*time.Second, start)

	assert.Equal(t, 3*time.Second, s.Sleep(start, 5*time.Second))
	assert.Equal(t, 5*time.Second, s.Sleep(start.Add(-time.Minute), 5*time.Second))
	assert.Equal(t, time.Duration(0), s.Sleep(s.WindowEnd().Add(time.Second), 5*time.Second))
}

func TestAlignForwardIdempotent(t *testing.T) {
	on := time.Date(2025, 6, 1, 12, 45, 0, 0, time.UTC)
	assert.Equal(t, on, alignForward(on, Grid))

	off := time.Date(2025, 6, 1, 12, 45, 0, 1, time.UTC)
	assert.Equal(t, time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC), alignForward(off, Grid))
}
