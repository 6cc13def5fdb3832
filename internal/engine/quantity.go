package engine

import (
	"context"
	"time"

	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/johnny-stegall/dynamo-go/internal/config"
	"github.com/johnny-stegall/dynamo-go/internal/factory"
	"github.com/johnny-stegall/dynamo-go/internal/metrics"
	"github.com/johnny-stegall/dynamo-go/internal/retry"
	"github.com/johnny-stegall/dynamo-go/internal/sink"
)

// QuantityEngine submits a fixed number of produce-and-deliver tasks to a
// worker pool, per spec.md §4.5.
type QuantityEngine[T any] struct {
	factory  factory.RecordFactory[T]
	sink     sink.Sink[T]
	executor *retry.Executor

	quantity       int
	threads        int
	sleepyTime     time.Duration
	recordTypeName string
	sinkName       string

	poolHolder
}

// NewQuantityEngine builds a quantity engine from cfg, which must already
// be sliced to the `Engines.Quantity` prefix (spec.md §6). Threads default
// to 2×CPU, sleepyTime defaults to 0 (no throttle).
func NewQuantityEngine[T any](f factory.RecordFactory[T], s sink.Sink[T], executor *retry.Executor, cfg *config.Config, recordTypeName, sinkName string) *QuantityEngine[T] {
	return &QuantityEngine[T]{
		factory:        f,
		sink:           s,
		executor:       executor,
		quantity:       cfg.Int("Quantity", 0),
		threads:        cfg.Int("Threads", defaultWorkers(2)),
		sleepyTime:     cfg.Duration("SleepyTime", "SleepyTimeUnit", 0),
		recordTypeName: recordTypeName,
		sinkName:       sinkName,
	}
}

// Produce submits exactly e.quantity tasks, then drains the pool with the
// 12-hour shutdown ceiling from spec.md §4.5.
func (e *QuantityEngine[T]) Produce(ctx context.Context) error {
	defer closeSinkLogged(e.sink, "quantity-engine")

	p := newPool(ctx, e.threads, e.threads*4)
	e.set(p)
	pace := newThrottle(e.sleepyTime)

	log.Info("quantity engine starting",
		zap.Int("quantity", e.quantity),
		zap.Int("threads", e.threads),
		zap.Duration("sleepyTime", e.sleepyTime))

	for i := 0; i < e.quantity; i++ {
		if err := pace.wait(ctx); err != nil {
			break
		}
		if err := p.submit(ctx, e.deliverOne); err != nil {
			log.Warn("quantity engine stopped submitting early", zap.Error(err))
			break
		}
	}

	return e.Shutdown(DefaultShutdownCeiling)
}

func (e *QuantityEngine[T]) deliverOne(ctx context.Context) error {
	record, err := e.factory.Create()
	if err != nil {
		return err
	}
	metrics.RecordsProduced.WithLabelValues(e.recordTypeName).Inc()

	err = runTask(ctx, e.executor, func(ctx context.Context) error {
		return e.sink.Send(ctx, record)
	})
	if err != nil {
		return err
	}
	metrics.RecordsDelivered.WithLabelValues(e.sinkName).Inc()
	return nil
}

// Shutdown drains the pool with the given grace timeout.
func (e *QuantityEngine[T]) Shutdown(graceTimeout time.Duration) error {
	return e.poolHolder.shutdown(graceTimeout)
}
