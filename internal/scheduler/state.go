package scheduler

import (
	"maps"
	"time"
)

// Mode selects how far back a pass starts.
type Mode int

const (
	Backfill Mode = iota
	Delta
)

func (m Mode) String() string {
	if m == Backfill {
		return "backfill"
	}
	return "delta"
}

// Phase is the operator-visible scheduler state.
type Phase string

const (
	PhaseInitialBackfill Phase = "INITIAL_BACKFILL"
	PhaseDailyDelta      Phase = "DAILY_DELTA"
	PhaseSleeping        Phase = "SLEEPING"
)

// Phase returns the running phase for passes in this mode.
func (m Mode) Phase() Phase {
	if m == Backfill {
		return PhaseInitialBackfill
	}
	return PhaseDailyDelta
}

// WindowState is the per-keyword start cursor for the next pass. It is owned by
// the control loop and passed from one pass to the next.
type WindowState struct {
	Mode    Mode
	Cursors map[string]time.Time
}

// InitialState starts every keyword backfillDays calendar days before now.
func InitialState(keywords []string, now time.Time, backfillDays int) WindowState {
	start := now.AddDate(0, 0, -backfillDays)
	cursors := make(map[string]time.Time, len(keywords))
	for _, kw := range keywords {
		cursors[kw] = start
	}
	return WindowState{Mode: Backfill, Cursors: cursors}
}

// Next returns the delta state that follows a completed pass: every keyword the
// state tracks restarts one calendar day before now.
func (s WindowState) Next(now time.Time) WindowState {
	start := now.AddDate(0, 0, -1)
	cursors := make(map[string]time.Time, len(s.Cursors))
	for kw := range s.Cursors {
		cursors[kw] = start
	}
	return WindowState{Mode: Delta, Cursors: cursors}
}

// Cursor returns the start of the next window for keyword.
func (s WindowState) Cursor(keyword string) time.Time {
	return s.Cursors[keyword]
}

func (s WindowState) clone() WindowState {
	return WindowState{Mode: s.Mode, Cursors: maps.Clone(s.Cursors)}
}
