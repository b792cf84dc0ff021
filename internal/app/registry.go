package app

import (
	"context"
	"sync"
	"time"
)

// ActiveRun is one in-flight scrape run tracked by the registry.
type ActiveRun struct {
	RunID     int64
	Domain    string
	StartedAt time.Time
	cancel    context.CancelFunc
}

// RunRegistry tracks in-flight runs so they can be listed and cancelled.
type RunRegistry struct {
	mu   sync.Mutex
	runs map[int64]*ActiveRun
}

func NewRunRegistry() *RunRegistry {
	return &RunRegistry{
		runs: make(map[int64]*ActiveRun),
	}
}

func (r *RunRegistry) Register(runID int64, domain string, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[runID] = &ActiveRun{
		RunID:     runID,
		Domain:    domain,
		StartedAt: time.Now().UTC(),
		cancel:    cancel,
	}
}

// Cancel stops a run if it is still active. Returns false for unknown runs.
func (r *RunRegistry) Cancel(runID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[runID]
	if !ok {
		return false
	}
	run.cancel()
	return true
}

func (r *RunRegistry) Remove(runID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.runs, runID)
}

// Active returns a snapshot of the currently tracked runs.
func (r *RunRegistry) Active() []ActiveRun {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ActiveRun, 0, len(r.runs))
	for _, run := range r.runs {
		out = append(out, *run)
	}
	return out
}

// CancelAll stops every tracked run, used during shutdown.
func (r *RunRegistry) CancelAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, run := range r.runs {
		run.cancel()
	}
}
