package testutil

import (
	"sync"

	"dataroom/internal/dataroom"
)

// TaskRecorder collects every task list snapshot an Uploader publishes.
// Register its Observe method as the task observer.
type TaskRecorder struct {
	mu        sync.Mutex
	snapshots [][]dataroom.Task
}

func NewTaskRecorder() *TaskRecorder {
	return &TaskRecorder{}
}

func (r *TaskRecorder) Observe(tasks []dataroom.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, tasks)
}

// Snapshots returns the recorded snapshots in delivery order.
func (r *TaskRecorder) Snapshots() [][]dataroom.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]dataroom.Task(nil), r.snapshots...)
}

// Last returns the most recent snapshot, or nil if none arrived yet.
func (r *TaskRecorder) Last() []dataroom.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snapshots) == 0 {
		return nil
	}
	return r.snapshots[len(r.snapshots)-1]
}
