package dataroom

// TaskStatus is the lifecycle state of a single upload task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in-progress"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// Terminal reports whether the status is a final one.
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed
}

// Task is an observable snapshot of one file's upload. Name is the local
// display name, Destination the computed store path. Progress runs 0-100
// and never decreases; a failed task's progress is reset to 0 and Err
// holds the cause.
type Task struct {
	Name        string
	Destination string
	Progress    int
	Status      TaskStatus
	Err         error
}

// BatchResult summarizes a finished batch. Failed holds the display names
// of the files whose upload failed, in submission order; an empty Failed
// set means full success. A batch where every file failed is still
// reported this way rather than as an error.
type BatchResult struct {
	Uploaded int
	Failed   []string
}

// PartialFailure reports whether at least one file in the batch failed.
func (r BatchResult) PartialFailure() bool { return len(r.Failed) > 0 }

// TaskObserver receives a copy of the full published task list every time
// any task changes. The slice and its elements are snapshots; the observer
// may retain them.
type TaskObserver func(tasks []Task)

// task is the internal mutable state behind a Task snapshot. All access
// goes through the owning Uploader's mutex.
type task struct {
	name        string
	destination string
	progress    int
	status      TaskStatus
	err         error
}

func (t *task) snapshot() Task {
	return Task{
		Name:        t.name,
		Destination: t.destination,
		Progress:    t.progress,
		Status:      t.status,
		Err:         t.err,
	}
}
