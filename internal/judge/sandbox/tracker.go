package sandbox

import (
	"sync"

	"github.com/DGSSZ-PLIELab/SSL-OJ-sub000/internal/judge/proc"
)

// Tracker maps in-flight task IDs to their live child process groups so an
// external cancellation can terminate them. Each handle is registered and
// released by the executor call that owns it.
type Tracker struct {
	mu     sync.Mutex
	procs  map[string]map[int]struct{}
	killed map[string]struct{}
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		procs:  make(map[string]map[int]struct{}),
		killed: make(map[string]struct{}),
	}
}

// Register records a live child for the task. If the task was already killed
// the child is terminated immediately to close the start/kill race.
func (t *Tracker) Register(taskID string, pid int) {
	t.mu.Lock()
	_, dead := t.killed[taskID]
	if !dead {
		if t.procs[taskID] == nil {
			t.procs[taskID] = make(map[int]struct{})
		}
		t.procs[taskID][pid] = struct{}{}
	}
	t.mu.Unlock()
	if dead {
		proc.KillGroup(pid)
	}
}

// Unregister removes a child handle after it has been reaped.
func (t *Tracker) Unregister(taskID string, pid int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if pids, ok := t.procs[taskID]; ok {
		delete(pids, pid)
		if len(pids) == 0 {
			delete(t.procs, taskID)
		}
	}
}

// Kill marks the task as killed and terminates all its live children.
func (t *Tracker) Kill(taskID string) {
	t.mu.Lock()
	t.killed[taskID] = struct{}{}
	var pids []int
	for pid := range t.procs[taskID] {
		pids = append(pids, pid)
	}
	t.mu.Unlock()
	for _, pid := range pids {
		proc.KillGroup(pid)
	}
}

// Killed reports whether the task has been externally killed.
func (t *Tracker) Killed(taskID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.killed[taskID]
	return ok
}

// Forget drops all bookkeeping for a finished task.
func (t *Tracker) Forget(taskID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.procs, taskID)
	delete(t.killed, taskID)
}
