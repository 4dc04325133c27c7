package window

import "time"

// Grid is the wall-clock alignment for window boundaries and partition
// buckets: every 15 minutes past the hour, in UTC.
const Grid = 15 * time.Minute

// Scheduler tracks the end of the current batch window. Window ends always
// land on the wall-clock grid; the first window after process start is
// shortened so that its end hits the next grid mark, and every later window
// advances by the nominal duration, re-aligned forward if it ever drifts off
// the grid.
type Scheduler struct {
	grid    time.Duration
	nominal time.Duration
	end     time.Time
	steady  bool
}

// NewScheduler computes the first window from the current instant. Starting
// exactly on a grid mark yields a full nominal window rather than a
// degenerate zero-length one.
func NewScheduler(grid, nominal time.Duration, now time.Time) *Scheduler {
	now = now.UTC()
	end := alignForward(now, grid)
	if end.Equal(now) {
		end = alignForward(now.Add(nominal), grid)
	}
	return &Scheduler{grid: grid, nominal: nominal, end: end}
}

// Due reports whether the current window has closed.
func (s *Scheduler) Due(now time.Time) bool {
	return !now.UTC().Before(s.end)
}

// WindowEnd returns the scheduled end of the current window. The partition
// key is always derived from this instant, even when the flush runs late.
func (s *Scheduler) WindowEnd() time.Time {
	return s.end
}

// Advance moves to the next window: previous end plus the nominal duration,
// rounded forward to the grid if the arithmetic pushed it off. The correction
// is idempotent and never rounds backward. Windows that elapsed while the
// process was stalled are skipped, not backfilled.
func (s *Scheduler) Advance() {
	s.end = alignForward(s.end.Add(s.nominal), s.grid)
	s.steady = true
}

// Steady reports whether the first (alignment) window has already closed.
func (s *Scheduler) Steady() bool {
	return s.steady
}

// Sleep returns how long the loop may sleep before the next read: the read
// interval, capped by the time remaining in the window, never negative.
func (s *Scheduler) Sleep(now time.Time, readInterval time.Duration) time.Duration {
	remaining := s.end.Sub(now.UTC())
	if remaining < 0 {
		remaining = 0
	}
	if readInterval < remaining {
		return readInterval
	}
	return remaining
}

func alignForward(t time.Time, grid time.Duration) time.Time {
	aligned := t.Truncate(grid)
	if aligned.Equal(t) {
		return t
	}
	return aligned.Add(grid)
}
