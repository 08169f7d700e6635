package dataroom

import (
	"context"
	"fmt"
	"io"
	"math"
	"sync"
	"time"
)

const (
	// DefaultConcurrency bounds the number of files transferred at once
	// when the caller does not configure a pool size.
	DefaultConcurrency = 4

	// DefaultLinger is how long terminal tasks stay in the published list
	// before they are cleared.
	DefaultLinger = 3 * time.Second
)

// Uploader runs upload batches against an ObjectStore. Each batch fans its
// files out over a bounded worker pool, publishes per-file progress through
// an observer, and resolves the identity token exactly once. A failed file
// never aborts its siblings.
type Uploader struct {
	store    ObjectStore
	identity TokenProvider
	idgen    IDGenerator
	logger   Logger

	concurrency int
	linger      time.Duration
	afterBatch  func(BatchResult)

	mu       sync.Mutex
	tasks    []*task
	observer TaskObserver
}

// NewUploader creates an Uploader. Non-positive concurrency or linger fall
// back to the defaults.
func NewUploader(store ObjectStore, identity TokenProvider, idgen IDGenerator, logger Logger, concurrency int, linger time.Duration) *Uploader {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if linger <= 0 {
		linger = DefaultLinger
	}
	return &Uploader{
		store:       store,
		identity:    identity,
		idgen:       idgen,
		logger:      logger,
		concurrency: concurrency,
		linger:      linger,
	}
}

// WithAfterBatch registers a hook that runs once per batch, after every
// task has reached a terminal state and before the batch is marked done.
// Must be called before the first Submit.
func (u *Uploader) WithAfterBatch(fn func(BatchResult)) *Uploader {
	u.afterBatch = fn
	return u
}

// SetObserver registers fn to receive a snapshot of the full task list on
// every state change. Snapshots are delivered in the order the changes
// happen; fn runs with the uploader's lock held, so it must return quickly
// and must not call back into the Uploader.
func (u *Uploader) SetObserver(fn TaskObserver) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.observer = fn
}

// Tasks returns a snapshot of the published task list.
func (u *Uploader) Tasks() []Task {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.snapshotLocked()
}

// Batch tracks one submitted group of uploads. Its methods are safe for
// concurrent use.
type Batch struct {
	uploader *Uploader
	tasks    []*task
	cancels  []context.CancelFunc
	cancel   context.CancelFunc
	done     chan struct{}
	result   BatchResult
}

// Submit starts uploading files under the given scope and returns
// immediately with a Batch handle. The identity token is resolved once for
// the whole batch; if that fails, no tasks are created and the error wraps
// ErrAuthRequired. An empty files slice yields an already-completed batch
// without touching the store.
func (u *Uploader) Submit(ctx context.Context, files []LocalFile, scope Scope) (*Batch, error) {
	if len(files) == 0 {
		b := &Batch{uploader: u, cancel: func() {}, done: make(chan struct{})}
		close(b.done)
		return b, nil
	}

	token, err := u.identity.IdentityToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthRequired, err)
	}

	batchCtx, cancel := context.WithCancel(ctx)
	b := &Batch{uploader: u, cancel: cancel, done: make(chan struct{})}

	namespace := Namespace(token)
	taskCtxs := make([]context.Context, len(files))
	for i, file := range files {
		taskCtx, taskCancel := context.WithCancel(batchCtx)
		taskCtxs[i] = taskCtx
		b.cancels = append(b.cancels, taskCancel)
		b.tasks = append(b.tasks, &task{
			name:        file.Name,
			destination: namespace + scope.Prefix + u.idgen.New() + "-" + file.Name,
			status:      TaskPending,
		})
	}

	u.mu.Lock()
	u.tasks = append(u.tasks, b.tasks...)
	u.publishLocked()
	u.mu.Unlock()

	u.logger.Info("upload batch submitted", "files", len(files), "folder", scope.Prefix)

	go u.run(b, files, taskCtxs)

	return b, nil
}

// run drives a batch to completion: it admits tasks through the worker
// pool, waits for all of them to settle, fires the after-batch hook, and
// schedules the linger cleanup.
func (u *Uploader) run(b *Batch, files []LocalFile, taskCtxs []context.Context) {
	defer b.cancel()

	sem := make(chan struct{}, u.concurrency)
	var wg sync.WaitGroup

	for i := range files {
		taskCtx, t, file := taskCtxs[i], b.tasks[i], files[i]

		select {
		case sem <- struct{}{}:
		case <-taskCtx.Done():
			u.failTask(t, taskCtx.Err(), file.Body)
			continue
		}

		wg.Add(1)
		go func() {
			defer func() {
				<-sem
				wg.Done()
			}()
			u.runTask(taskCtx, t, file)
		}()
	}

	wg.Wait()

	var result BatchResult
	u.mu.Lock()
	for _, t := range b.tasks {
		switch t.status {
		case TaskCompleted:
			result.Uploaded++
		case TaskFailed:
			result.Failed = append(result.Failed, t.name)
		}
	}
	u.mu.Unlock()

	b.result = result
	if u.afterBatch != nil {
		u.afterBatch(result)
	}
	close(b.done)

	time.AfterFunc(u.linger, func() { u.clearTasks(b.tasks) })
}

// runTask performs a single file transfer and moves its task through the
// in-progress state to a terminal one.
func (u *Uploader) runTask(ctx context.Context, t *task, file LocalFile) {
	if err := ctx.Err(); err != nil {
		u.failTask(t, err, file.Body)
		return
	}

	u.mu.Lock()
	t.status = TaskInProgress
	u.publishLocked()
	u.mu.Unlock()

	progress := func(transferred, total int64) {
		u.advance(t, transferred, total, file.Size)
	}

	if err := u.store.Put(ctx, t.destination, file.Body, file.Size, progress); err != nil {
		u.failTask(t, err, file.Body)
		return
	}

	u.mu.Lock()
	t.status = TaskCompleted
	t.progress = 100
	u.publishLocked()
	u.mu.Unlock()

	closeBody(file.Body)
	u.logger.Debug("file uploaded", "name", t.name, "path", t.destination)
}

// failTask marks a task failed, resets its progress, and releases its
// local file.
func (u *Uploader) failTask(t *task, cause error, body io.Reader) {
	uploadErr := &UploadError{Name: t.name, Err: cause}

	u.mu.Lock()
	t.status = TaskFailed
	t.progress = 0
	t.err = uploadErr
	u.publishLocked()
	u.mu.Unlock()

	closeBody(body)
	u.logger.Warn("file upload failed", "name", t.name, "error", cause)
}

// advance updates a task's progress percentage. The percentage never moves
// backwards, and uses the file size as the denominator when the store
// reports an unknown total.
func (u *Uploader) advance(t *task, transferred, total, fallbackSize int64) {
	if total <= 0 {
		total = fallbackSize
	}
	if total <= 0 {
		return
	}

	percent := int(math.Round(float64(transferred) / float64(total) * 100))
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if t.status != TaskInProgress || percent <= t.progress {
		return
	}
	t.progress = percent
	u.publishLocked()
}

// clearTasks drops a batch's tasks from the published list once the linger
// window has passed.
func (u *Uploader) clearTasks(batch []*task) {
	done := make(map[*task]bool, len(batch))
	for _, t := range batch {
		done[t] = true
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	kept := u.tasks[:0]
	for _, t := range u.tasks {
		if !done[t] {
			kept = append(kept, t)
		}
	}
	u.tasks = kept
	u.publishLocked()
}

func (u *Uploader) publishLocked() {
	if u.observer == nil {
		return
	}
	u.observer(u.snapshotLocked())
}

func (u *Uploader) snapshotLocked() []Task {
	out := make([]Task, len(u.tasks))
	for i, t := range u.tasks {
		out[i] = t.snapshot()
	}
	return out
}

// closeBody releases a local file once its task is terminal, for files
// whose reader is also a closer.
func closeBody(r io.Reader) {
	if c, ok := r.(io.Closer); ok {
		c.Close()
	}
}

// Done returns a channel that closes once every task in the batch has
// reached a terminal state and the after-batch hook has run.
func (b *Batch) Done() <-chan struct{} { return b.done }

// Wait blocks until the batch completes and returns its result, or returns
// early with the context's error.
func (b *Batch) Wait(ctx context.Context) (BatchResult, error) {
	select {
	case <-b.done:
		return b.result, nil
	case <-ctx.Done():
		return BatchResult{}, ctx.Err()
	}
}

// Result returns the batch outcome. Before Done closes it returns the zero
// value.
func (b *Batch) Result() BatchResult {
	select {
	case <-b.done:
		return b.result
	default:
		return BatchResult{}
	}
}

// Tasks returns snapshots of this batch's tasks in submission order.
func (b *Batch) Tasks() []Task {
	b.uploader.mu.Lock()
	defer b.uploader.mu.Unlock()
	out := make([]Task, len(b.tasks))
	for i, t := range b.tasks {
		out[i] = t.snapshot()
	}
	return out
}

// Cancel aborts every task in the batch that has not yet finished.
// Completed and failed tasks keep their state.
func (b *Batch) Cancel() { b.cancel() }

// CancelTask aborts the i'th task in the batch, counting from zero in
// submission order. Out-of-range indexes are ignored.
func (b *Batch) CancelTask(i int) {
	if i < 0 || i >= len(b.cancels) {
		return
	}
	b.cancels[i]()
}
