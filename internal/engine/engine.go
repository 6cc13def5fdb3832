package engine

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/johnny-stegall/dynamo-go/internal/retry"
)

// poolHolder guards an engine's lazily-created pool so Shutdown can be
// called concurrently with Produce's own assignment of it (the signal
// handler in cmd/dynamo races with the engine's normal run-to-completion
// path, per SPEC_FULL.md §12).
type poolHolder struct {
	mu sync.Mutex
	p  *pool
}

func (h *poolHolder) set(p *pool) {
	h.mu.Lock()
	h.p = p
	h.mu.Unlock()
}

func (h *poolHolder) shutdown(graceTimeout time.Duration) error {
	h.mu.Lock()
	p := h.p
	h.mu.Unlock()
	if p == nil {
		return nil
	}
	return p.shutdown(graceTimeout)
}

// Engine is the contract every record-producing driver satisfies
// (spec.md §4.5). Produce runs to completion or until ctx is cancelled;
// Shutdown offers the coarse control described in spec.md §5.
type Engine interface {
	Produce(ctx context.Context) error
	Shutdown(graceTimeout time.Duration) error
}

// DefaultShutdownCeiling is the 12-hour bounded wait spec.md §4.5 gives
// the quantity engine's post-submission pool drain.
const DefaultShutdownCeiling = 12 * time.Hour

// deliverFunc sends one record through an engine's sink, wrapped by its
// retry executor. Engines close over a concrete sink.Sink[T] or
// sink.PathSink[T] to build this.
type deliverFunc func(ctx context.Context) error

// throttle wraps golang.org/x/time/rate to implement spec.md §4.5's
// sleepyTime submission throttle: a zero interval disables pacing
// entirely so sleepyTime's documented default (0) costs nothing.
type throttle struct {
	limiter *rate.Limiter
}

func newThrottle(interval time.Duration) *throttle {
	if interval <= 0 {
		return &throttle{}
	}
	// One submission permitted per interval, no burst — this is a pacing
	// delay between submissions, not a rate cap on delivery.
	return &throttle{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

func (t *throttle) wait(ctx context.Context) error {
	if t.limiter == nil {
		return nil
	}
	return t.limiter.Wait(ctx)
}

// defaultWorkers returns a CPU-scaled worker count, per spec.md §4.5:
// "an engine's default must be documented; e.g., quantity engine uses
// 2×CPU, replay engine uses ½×CPU."
func defaultWorkers(multiplier float64) int {
	n := int(float64(runtime.NumCPU()) * multiplier)
	if n < 1 {
		n = 1
	}
	return n
}

// runTask executes fn through executor and returns the executor's final
// error, traced. runTask itself logs nothing: the executor logs each
// failure, and a task's returned error is logged by the pool worker, per
// spec.md §5's propagation policy: a task's error never escapes the pool.
func runTask(ctx context.Context, executor *retry.Executor, fn deliverFunc) error {
	err := executor.Deliver(ctx, retry.Sendable(fn))
	if err != nil {
		return errors.Trace(err)
	}
	return nil
}

// closeSinkLogged calls Close on s and logs any failure, used on every
// engine's Produce exit path (spec.md §5: "close must be called on every
// success and every failure path").
func closeSinkLogged(s interface{ Close() error }, component string) {
	if err := s.Close(); err != nil {
		log.Warn("sink close failed", zap.String("component", component), zap.Error(err))
	}
}
