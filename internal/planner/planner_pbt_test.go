package planner

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// collect walks the whole plan for the given inputs
func collect(start time.Time, rangeDays, windowDays int) []Window {
	end := start.AddDate(0, 0, rangeDays-1)
	p, err := New(start, end, windowDays)
	if err != nil {
		panic(err)
	}

	var windows []Window
	it := p.Iterator(0)
	for {
		w, ok := it.Next()
		if !ok {
			return windows
		}
		windows = append(windows, w)
	}
}

func TestPlanProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// Property: windows are pairwise disjoint and strictly ordered
	properties.Property("windows are pairwise disjoint", prop.ForAll(
		func(startOffset, rangeDays, windowDays int) bool {
			windows := collect(base.AddDate(0, 0, startOffset), rangeDays, windowDays)
			for i := 1; i < len(windows); i++ {
				if !windows[i].Start.After(windows[i-1].End) {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 365),
		gen.IntRange(1, 400),
		gen.IntRange(1, 30),
	))

	// Property: the union of all windows is a single contiguous interval
	// covering every day of the planned range with no gaps
	properties.Property("union is contiguous and gap-free", prop.ForAll(
		func(startOffset, rangeDays, windowDays int) bool {
			start := base.AddDate(0, 0, startOffset)
			windows := collect(start, rangeDays, windowDays)
			if len(windows) == 0 {
				return false
			}
			if !windows[0].Start.Equal(start) {
				return false
			}
			for i := 1; i < len(windows); i++ {
				if !windows[i].Start.Equal(windows[i-1].End.AddDate(0, 0, 1)) {
					return false
				}
			}
			return windows[len(windows)-1].End.Equal(start.AddDate(0, 0, rangeDays-1))
		},
		gen.IntRange(0, 365),
		gen.IntRange(1, 400),
		gen.IntRange(1, 30),
	))

	// Property: every window except the last spans exactly windowDays
	properties.Property("only the final window may be short", prop.ForAll(
		func(startOffset, rangeDays, windowDays int) bool {
			windows := collect(base.AddDate(0, 0, startOffset), rangeDays, windowDays)
			for i, w := range windows {
				if i < len(windows)-1 && w.Days() != windowDays {
					return false
				}
				if w.Days() > windowDays {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 365),
		gen.IntRange(1, 400),
		gen.IntRange(1, 30),
	))

	// Property: WindowAt is a pure function of its inputs, so resuming at any
	// offset reproduces the original sequence
	properties.Property("restartable from any offset", prop.ForAll(
		func(rangeDays, windowDays, offset int) bool {
			end := base.AddDate(0, 0, rangeDays-1)
			p, err := New(base, end, windowDays)
			if err != nil {
				return false
			}
			w1, ok1 := p.WindowAt(offset)
			w2, ok2 := p.WindowAt(offset)
			return ok1 == ok2 && w1 == w2
		},
		gen.IntRange(1, 400),
		gen.IntRange(1, 30),
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t)
}
