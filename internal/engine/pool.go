// Package engine implements the three record-producing drivers from
// spec.md §4.5 — quantity, hourly-range, and replay — sharing one
// worker-pool execution model, a pluggable record factory, and the
// two-phase shutdown contract from spec.md §5.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/edwingeng/deque"
	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/johnny-stegall/dynamo-go/internal/dynerr"
)

// task is one unit of work submitted to a pool: produce (or replay) a
// single record and deliver it.
type task func(ctx context.Context) error

// boundedQueue is a FIFO task queue with a fixed capacity, giving the
// submission loop backpressure against a slow sink (spec.md §5: "the
// spec requires the queue to be bounded to prevent unbounded memory
// growth under slow sinks"). Storage is an edwingeng/deque.Deque guarded
// by a mutex; capacity is enforced with a counting semaphore so a full
// queue blocks the submitter instead of growing without bound.
type boundedQueue struct {
	mu    sync.Mutex
	items *deque.Deque

	slots chan struct{}
	ready chan struct{}

	closeOnce sync.Once
	closeCh   chan struct{}
	closed    atomic.Bool
}

func newBoundedQueue(capacity int) *boundedQueue {
	if capacity <= 0 {
		capacity = 1
	}
	return &boundedQueue{
		items:   deque.NewDeque(),
		slots:   make(chan struct{}, capacity),
		ready:   make(chan struct{}, capacity),
		closeCh: make(chan struct{}),
	}
}

// push blocks until a slot is free, ctx is cancelled, or the queue has
// stopped accepting submissions.
func (q *boundedQueue) push(ctx context.Context, t task) error {
	if q.closed.Load() {
		return dynerr.Newf(dynerr.KindInterrupted, "task queue is no longer accepting submissions")
	}

	select {
	case q.slots <- struct{}{}:
	case <-ctx.Done():
		return errors.Trace(ctx.Err())
	case <-q.closeCh:
		return dynerr.Newf(dynerr.KindInterrupted, "task queue is no longer accepting submissions")
	}

	q.mu.Lock()
	q.items.PushBack(t)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
	return nil
}

// pop returns the next task, or (nil, false) once the queue is both
// closed to new submissions and drained, or ctx is cancelled.
func (q *boundedQueue) pop(ctx context.Context) (task, bool) {
	for {
		q.mu.Lock()
		if q.items.Len() > 0 {
			v := q.items.PopFront()
			q.mu.Unlock()
			<-q.slots
			return v.(task), true
		}
		closed := q.closed.Load()
		q.mu.Unlock()

		if closed {
			return nil, false
		}

		select {
		case <-ctx.Done():
			return nil, false
		case <-q.ready:
		case <-q.closeCh:
		}
	}
}

// closeSubmissions stops accepting new pushes; tasks already queued are
// still drained by pop. This is phase one of spec.md §5's two-phase
// shutdown ("stop accepting tasks, then await termination").
func (q *boundedQueue) closeSubmissions() {
	q.closeOnce.Do(func() {
		q.closed.Store(true)
		close(q.closeCh)
	})
}

// pool is a fixed-size set of workers draining a boundedQueue, modeled on
// the teacher's mqSink.run/runWorker split (errgroup-managed workers
// pulling from a shared input). A task's error is logged and swallowed —
// spec.md §5: "errors inside a worker task are captured at the task
// boundary and logged; they never kill the pool."
type pool struct {
	queue   *boundedQueue
	group   *errgroup.Group
	cancel  context.CancelFunc
}

func newPool(parent context.Context, workers, queueCapacity int) *pool {
	ctx, cancel := context.WithCancel(parent)
	group, gctx := errgroup.WithContext(ctx)

	p := &pool{queue: newBoundedQueue(queueCapacity), group: group, cancel: cancel}
	for i := 0; i < workers; i++ {
		group.Go(func() error {
			p.runWorker(gctx)
			return nil
		})
	}
	return p
}

func (p *pool) runWorker(ctx context.Context) {
	for {
		t, ok := p.queue.pop(ctx)
		if !ok {
			return
		}
		if err := t(ctx); err != nil {
			log.Warn("engine task failed", zap.Error(err))
		}
	}
}

// submit enqueues t, blocking for backpressure per the bounded queue.
func (p *pool) submit(ctx context.Context, t task) error {
	return p.queue.push(ctx, t)
}

// shutdown implements spec.md §5's bounded-wait teardown: stop accepting
// submissions, then wait up to graceTimeout for in-flight and already
// queued tasks to finish. On timeout it cancels the pool's context, waits
// for the workers to return (in-flight retries observe cancellation
// between attempts, spec.md §5), and then returns a KindInterrupted error.
func (p *pool) shutdown(graceTimeout time.Duration) error {
	p.queue.closeSubmissions()

	done := make(chan error, 1)
	go func() { done <- p.group.Wait() }()

	select {
	case err := <-done:
		p.cancel()
		return err
	case <-time.After(graceTimeout):
		log.Warn("worker pool shutdown grace period exceeded, cancelling in-flight tasks",
			zap.Duration("graceTimeout", graceTimeout))
		p.cancel()
		<-done
		return dynerr.New(dynerr.KindInterrupted, errors.Errorf("worker pool did not drain within %s", graceTimeout))
	}
}
