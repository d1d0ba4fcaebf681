package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestNew(t *testing.T) {
	t.Run("rejects zero window size", func(t *testing.T) {
		_, err := New(date("2024-01-01"), date("2024-12-31"), 0)
		assert.Error(t, err)
	})

	t.Run("rejects end before start", func(t *testing.T) {
		_, err := New(date("2024-01-02"), date("2024-01-01"), 7)
		assert.Error(t, err)
	})

	t.Run("single day range is valid", func(t *testing.T) {
		p, err := New(date("2024-01-01"), date("2024-01-01"), 7)
		require.NoError(t, err)
		assert.Equal(t, 1, p.Count())
	})
}

func TestWindowAt(t *testing.T) {
	p, err := New(date("2024-01-01"), date("2024-01-20"), 7)
	require.NoError(t, err)

	tests := []struct {
		name      string
		offset    int
		wantStart string
		wantEnd   string
		wantOK    bool
	}{
		{"first window", 0, "2024-01-01", "2024-01-07", true},
		{"second window starts the day after", 1, "2024-01-08", "2024-01-14", true},
		{"final window clipped at hard boundary", 2, "2024-01-15", "2024-01-20", true},
		{"past the end", 3, "", "", false},
		{"negative offset", -1, "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, ok := p.WindowAt(tt.offset)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantStart, w.StartDate())
				assert.Equal(t, tt.wantEnd, w.EndDate())
			}
		})
	}
}

func TestCount(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		windowDays int
		want       int
	}{
		{"exact multiple", "2024-01-01", "2024-01-14", 7, 2},
		{"partial final window", "2024-01-01", "2024-01-20", 7, 3},
		{"single window", "2024-01-01", "2024-01-03", 7, 1},
		{"one-day windows", "2024-01-01", "2024-01-05", 1, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(date(tt.start), date(tt.end), tt.windowDays)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Count())
		})
	}
}

func TestIteratorWalksFullPlan(t *testing.T) {
	p, err := New(date("2024-01-01"), date("2024-02-15"), 7)
	require.NoError(t, err)

	it := p.Iterator(0)
	var windows []Window
	for {
		w, ok := it.Next()
		if !ok {
			break
		}
		windows = append(windows, w)
	}

	require.Len(t, windows, p.Count())

	// Contiguity: each window starts the day after the previous ends
	for i := 1; i < len(windows); i++ {
		assert.Equal(t, windows[i-1].End.AddDate(0, 0, 1), windows[i].Start,
			"window %d does not start the day after window %d ends", i, i-1)
	}

	assert.Equal(t, date("2024-01-01"), windows[0].Start)
	assert.Equal(t, date("2024-02-15"), windows[len(windows)-1].End)
}

func TestIteratorResumeFromOffset(t *testing.T) {
	p, err := New(date("2024-01-01"), date("2024-03-01"), 7)
	require.NoError(t, err)

	// A fresh iterator at offset n sees exactly what a full walk saw from n
	full := p.Iterator(0)
	for i := 0; i < 3; i++ {
		_, ok := full.Next()
		require.True(t, ok)
	}

	resumed := p.Iterator(3)
	assert.Equal(t, full.Offset(), resumed.Offset())

	wFull, okFull := full.Next()
	wResumed, okResumed := resumed.Next()
	assert.Equal(t, okFull, okResumed)
	assert.Equal(t, wFull, wResumed)
}

func TestWindowAtIgnoresTimeOfDay(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	p1, err := New(time.Date(2024, 1, 1, 23, 30, 0, 0, time.UTC), date("2024-01-31"), 7)
	require.NoError(t, err)
	p2, err := New(time.Date(2024, 1, 1, 4, 0, 0, 0, loc), date("2024-01-31"), 7)
	require.NoError(t, err)

	w1, ok1 := p1.WindowAt(1)
	w2, ok2 := p2.WindowAt(1)
	require.True(t, ok1)
	require.True(t, ok2)
	assert.Equal(t, w1, w2)
}
