package actor

import (
	"sync"
	"time"
)

// Decision is the parent supervisor's response to a child's unhandled
// reception-loop exception.
type Decision int

const (
	// DecisionResume drops the offending message and keeps the actor's
	// existing state.
	DecisionResume Decision = iota
	// DecisionRestart recreates the actor's internal state via its
	// factory, subject to the sliding-window retry budget.
	DecisionRestart
	// DecisionStop tears the cell (and its subtree) down.
	DecisionStop
	// DecisionEscalate re-throws the failure to the grandparent.
	DecisionEscalate
)

func (d Decision) String() string {
	switch d {
	case DecisionResume:
		return "Resume"
	case DecisionRestart:
		return "Restart"
	case DecisionStop:
		return "Stop"
	case DecisionEscalate:
		return "Escalate"
	default:
		return "Unknown"
	}
}

// SupervisorStrategy decides how a parent reacts to a child's failure.
type SupervisorStrategy func(err error) Decision

// RestartStrategy is the spec's default strategy: always Restart, subject
// to the cell's own sliding-window retry budget (applied separately in
// cell.onFailure, since the budget is per-child, not per-decision-function).
func RestartStrategy(err error) Decision {
	return DecisionRestart
}

// StopStrategy always stops the failing child outright.
func StopStrategy(err error) Decision {
	return DecisionStop
}

// ResumeStrategy always drops the offending message and keeps state.
func ResumeStrategy(err error) Decision {
	return DecisionResume
}

// restartStatistics tracks a cell's restart count within a sliding window,
// touched only by supervision logic in the cell's own onFailure, which runs
// on the cell's own worker (per the owning-worker-only invariant).
type restartStatistics struct {
	mu          sync.Mutex
	count       int
	windowStart time.Time
}

// recordAndCheck records a new restart attempt and reports whether it is
// still within the maxRetries budget for the current withinTimeRange
// window. The window resets when more than withinTimeRange has elapsed
// since it started.
func (r *restartStatistics) recordAndCheck(maxRetries int, withinTimeRange time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	if r.windowStart.IsZero() || now.Sub(r.windowStart) > withinTimeRange {
		r.windowStart = now
		r.count = 0
	}
	r.count++
	return r.count <= maxRetries
}

func (r *restartStatistics) reset() {
	r.mu.Lock()
	r.count = 0
	r.windowStart = time.Time{}
	r.mu.Unlock()
}
