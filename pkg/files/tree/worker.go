package tree

import (
	"context"
	"sync"
)

type task struct {
	ctx context.Context
	fn  func(ctx context.Context)

	// barrier tasks run even when their generation was cancelled.
	barrier bool
}

// worker runs submitted tasks one at a time, in submission order, on a
// single goroutine. Tasks are grouped into generations: cancelPending
// cancels the context of every task submitted so far, so queued tasks are
// skipped and a running one sees ctx.Done.
type worker struct {
	mu     sync.Mutex
	queue  []task
	ctx    context.Context
	cancel context.CancelFunc
	closed bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

func newWorker() *worker {
	w := &worker{
		wake: make(chan struct{}, 1),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	w.ctx, w.cancel = context.WithCancel(context.Background())
	go w.run()
	return w
}

// submit enqueues fn in the current generation. It reports false once the
// worker is closed.
func (w *worker) submit(fn func(ctx context.Context)) bool {
	return w.enqueue(fn, false)
}

func (w *worker) enqueue(fn func(ctx context.Context), barrier bool) bool {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return false
	}
	w.queue = append(w.queue, task{ctx: w.ctx, fn: fn, barrier: barrier})
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
	return true
}

// cancelPending cancels the current generation and starts a new one.
func (w *worker) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.cancel()
	w.ctx, w.cancel = context.WithCancel(context.Background())
}

// sync blocks until every task submitted before it has run or been skipped.
func (w *worker) sync(ctx context.Context) error {
	reached := make(chan struct{})
	if !w.enqueue(func(context.Context) { close(reached) }, true) {
		return ErrDestroyed
	}
	select {
	case <-reached:
		return nil
	case <-w.done:
		return ErrDestroyed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close stops the worker; queued tasks are dropped. A task already running
// is allowed to finish. It is idempotent.
func (w *worker) close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.cancel()
	w.queue = nil
	w.mu.Unlock()

	close(w.stop)
}

func (w *worker) run() {
	defer close(w.done)
	for {
		select {
		case <-w.stop:
			return
		case <-w.wake:
		}

		for {
			t, ok := w.next()
			if !ok {
				break
			}
			if t.barrier || t.ctx.Err() == nil {
				t.fn(t.ctx)
			}
		}
	}
}

func (w *worker) next() (task, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || len(w.queue) == 0 {
		return task{}, false
	}
	t := w.queue[0]
	w.queue[0] = task{}
	w.queue = w.queue[1:]
	return t, true
}
