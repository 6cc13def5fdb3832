// Package retry implements the fault-tolerance executor from spec.md §4.4:
// bounded retries under a backoff policy and an allow/deny exception
// matcher. The executor is immutable after construction and safe to share
// across worker-pool goroutines (spec.md §5).
package retry

import (
	"context"
	"time"

	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/johnny-stegall/dynamo-go/internal/dynerr"
	"github.com/johnny-stegall/dynamo-go/internal/metrics"
)

// Config holds the enumerated retry options from spec.md §4.4.
type Config struct {
	Attempts       int
	Backoff        Backoff
	FailKinds      []dynerr.Kind
	RetryKinds     []dynerr.Kind
	Sleep          time.Duration
	ShowStackTrace bool

	// SinkName labels this executor's retry/failure metrics. Empty is
	// valid for ad-hoc executors that don't need to be distinguished.
	SinkName string
}

// DefaultConfig returns the spec.md default: 3 attempts, STATIC backoff,
// zero sleep.
func DefaultConfig() Config {
	return Config{
		Attempts: 3,
		Backoff:  Static,
	}
}

// Sendable is anything the executor can attempt delivery through: a sink's
// Send method, or any other single-shot fallible operation.
type Sendable func(ctx context.Context) error

// Executor wraps Sendable calls with the bounded retry-with-backoff state
// machine from spec.md §4.4.
type Executor struct {
	cfg     Config
	matcher *Matcher

	attemptsTotal atomic.Int64
	retriesTotal  atomic.Int64
	failuresTotal atomic.Int64
}

// New builds an Executor from cfg. Construction never fails: an invalid
// backoff name surfaces lazily, as an error from the first Deliver call
// that needs a sleep before retrying, consistent with
// every other component's "construction returns (T, error); only the
// launcher exits" policy for errors that are really configuration bugs
// that should have been caught at cfg-parse time.
func New(cfg Config) *Executor {
	if cfg.Attempts <= 0 {
		cfg.Attempts = 3
	}
	if cfg.Backoff == "" {
		cfg.Backoff = Static
	}
	return &Executor{
		cfg:     cfg,
		matcher: NewMatcher(cfg.FailKinds, cfg.RetryKinds),
	}
}

// Deliver runs fn, retrying per the configured backoff and matcher until
// it succeeds, fails fast, or exhausts attempts. It implements exactly the
// state machine in spec.md §4.4.
func (e *Executor) Deliver(ctx context.Context, fn Sendable) error {
	var lastErr error

	for attempt := 1; attempt <= e.cfg.Attempts; attempt++ {
		e.attemptsTotal.Inc()

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		kind := string(dynerr.KindOf(err))

		if !e.matcher.Retryable(err) {
			e.failuresTotal.Inc()
			metrics.RecordsFailed.WithLabelValues(e.cfg.SinkName, kind).Inc()
			e.logFailure(err, "non-retryable error, failing fast")
			return errors.Trace(err)
		}

		if attempt == e.cfg.Attempts {
			e.failuresTotal.Inc()
			metrics.RecordsFailed.WithLabelValues(e.cfg.SinkName, kind).Inc()
			log.Error("maximum attempts reached",
				zap.Int("attempts", e.cfg.Attempts),
				zap.Error(err))
			return errors.Annotatef(err, "Maximum attempts of %d reached", e.cfg.Attempts)
		}

		sleep, sleepErr := SleepFor(e.cfg.Backoff, e.cfg.Sleep, attempt)
		if sleepErr != nil {
			return errors.Trace(sleepErr)
		}

		e.retriesTotal.Inc()
		metrics.RetryAttempts.WithLabelValues(e.cfg.SinkName, kind).Inc()
		e.logRetry(err, attempt, sleep)

		select {
		case <-ctx.Done():
			// Cancellation is observed between attempts, not mid-sleep,
			// per spec.md §5.
			return errors.Trace(ctx.Err())
		case <-time.After(sleep):
		}
	}

	return errors.Trace(lastErr)
}

func (e *Executor) logFailure(err error, msg string) {
	if e.cfg.ShowStackTrace {
		log.Warn(msg, zap.String("cause", errors.ErrorStack(err)))
		return
	}
	log.Warn(msg, zap.Error(err))
}

func (e *Executor) logRetry(err error, attempt int, sleep time.Duration) {
	fields := []zap.Field{
		zap.Int("attempt", attempt),
		zap.Duration("nextSleep", sleep),
	}
	if e.cfg.ShowStackTrace {
		fields = append(fields, zap.String("cause", errors.ErrorStack(err)))
	} else {
		fields = append(fields, zap.String("cause", err.Error()))
	}
	log.Info("delivery failed, will retry", fields...)
}

// Stats returns point-in-time counters, surfaced by internal/metrics.
func (e *Executor) Stats() (attempts, retries, failures int64) {
	return e.attemptsTotal.Load(), e.retriesTotal.Load(), e.failuresTotal.Load()
}
