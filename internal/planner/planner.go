// Package planner produces the sequence of date windows submitted as feed
// queries. Windows are disjoint, contiguous and computed statelessly from the
// plan inputs, so a run can resume from an explicit offset after a crash.
package planner

import (
	"fmt"
	"time"

	apperrors "github.com/neo-scanner/internal/errors"
)

// DateLayout is the wire format for window boundaries
const DateLayout = "2006-01-02"

// Window is a contiguous date range, both ends inclusive
type Window struct {
	Start time.Time
	End   time.Time
}

// Days returns the number of calendar days covered by the window
func (w Window) Days() int {
	return int(w.End.Sub(w.Start).Hours()/24) + 1
}

// StartDate returns the wire-format start boundary
func (w Window) StartDate() string {
	return w.Start.Format(DateLayout)
}

// EndDate returns the wire-format end boundary
func (w Window) EndDate() string {
	return w.End.Format(DateLayout)
}

func (w Window) String() string {
	return fmt.Sprintf("%s..%s", w.StartDate(), w.EndDate())
}

// Plan is a lazy, finite sequence of windows. It holds no mutable state;
// every window is a pure function of (start, end, windowDays, offset).
type Plan struct {
	start      time.Time
	end        time.Time
	windowDays int
}

// New creates a plan covering [start, end] in windows of windowDays days.
// The final window is clipped at the end boundary.
func New(start, end time.Time, windowDays int) (*Plan, error) {
	if windowDays < 1 {
		return nil, apperrors.NewConfigError("windowDays", "must be at least 1")
	}

	start = truncateToDay(start)
	end = truncateToDay(end)

	if end.Before(start) {
		return nil, apperrors.NewConfigError("end", "must not be before start")
	}

	return &Plan{start: start, end: end, windowDays: windowDays}, nil
}

// WindowAt returns the window at the given offset, or false when the offset
// is past the end of the planned range
func (p *Plan) WindowAt(offset int) (Window, bool) {
	if offset < 0 {
		return Window{}, false
	}

	start := p.start.AddDate(0, 0, offset*p.windowDays)
	if start.After(p.end) {
		return Window{}, false
	}

	end := start.AddDate(0, 0, p.windowDays-1)
	if end.After(p.end) {
		end = p.end
	}

	return Window{Start: start, End: end}, true
}

// Count returns the total number of windows in the plan
func (p *Plan) Count() int {
	totalDays := int(p.end.Sub(p.start).Hours()/24) + 1
	return (totalDays + p.windowDays - 1) / p.windowDays
}

// Iterator walks the plan from the given offset
type Iterator struct {
	plan *Plan
	next int
}

// Iterator returns an iterator positioned at the given window offset
func (p *Plan) Iterator(offset int) *Iterator {
	if offset < 0 {
		offset = 0
	}
	return &Iterator{plan: p, next: offset}
}

// Next returns the next window, or false when the range is exhausted
func (it *Iterator) Next() (Window, bool) {
	w, ok := it.plan.WindowAt(it.next)
	if ok {
		it.next++
	}
	return w, ok
}

// Offset returns the offset of the window Next would return
func (it *Iterator) Offset() int {
	return it.next
}

// truncateToDay normalizes a timestamp to UTC midnight so day arithmetic is
// exact regardless of the caller's location
func truncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
