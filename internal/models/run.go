package models

import "time"

// RunState is the state of the ingestion run controller
type RunState string

const (
	StatePlanning    RunState = "planning"
	StateFetching    RunState = "fetching"
	StateNormalizing RunState = "normalizing"
	StatePersisting  RunState = "persisting"
	StateDeciding    RunState = "deciding"
	StateCompleted   RunState = "completed"
	StateAborted     RunState = "aborted"
)

// Terminal reports whether the state ends the run
func (s RunState) Terminal() bool {
	return s == StateCompleted || s == StateAborted
}

// WindowState tracks the window currently being processed. It exists only
// for the duration of a run and is never persisted.
type WindowState struct {
	Start         time.Time
	End           time.Time
	Offset        int
	Attempts      int
	AsteroidCount int // cumulative distinct asteroids collected so far
}

// RunReport is the user-visible summary emitted on completion or abort
type RunReport struct {
	RunID             string    `json:"runId"`
	State             RunState  `json:"state"`
	Cause             string    `json:"cause,omitempty"`
	WindowsProcessed  int       `json:"windowsProcessed"`
	WindowsSkipped    int       `json:"windowsSkipped"`
	DistinctAsteroids int       `json:"distinctAsteroids"`
	NewApproaches     int       `json:"newApproaches"`
	StartedAt         time.Time `json:"startedAt"`
	FinishedAt        time.Time `json:"finishedAt"`
}
