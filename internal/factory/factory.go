// Package factory provides RecordFactory implementations. A factory is a
// zero-argument producer: deterministic in signature, non-deterministic in
// value (it may draw from randomness or the clock).
package factory

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/johnny-stegall/dynamo-go/internal/model"
)

// RecordFactory produces one fresh T per call to Create.
type RecordFactory[T any] interface {
	Create() (T, error)
}

// TimeAwareFactory is implemented by factories that can stamp a record
// with a caller-chosen time instead of time.Now(). The hourly-range
// engine uses this to tag every record it generates for an hour bucket
// with that bucket's timestamp (spec.md §4.5); factories that don't
// implement it are used with plain Create and are not hour-tagged.
type TimeAwareFactory[T any] interface {
	RecordFactory[T]
	CreateAt(t time.Time) (T, error)
}

// ObjectFactory is the sentinel factory named in spec.md §6: "no factory,
// create blank values". It satisfies RecordFactory[T] for any T by
// returning the zero value.
type ObjectFactory[T any] struct{}

func (ObjectFactory[T]) Create() (T, error) {
	var zero T
	return zero, nil
}

// CreateAt ignores at and returns the same zero value as Create,
// satisfying TimeAwareFactory for engines that hour-tag records.
func (ObjectFactory[T]) CreateAt(time.Time) (T, error) {
	var zero T
	return zero, nil
}

// TelemetryEventFactory produces randomized device telemetry readings.
type TelemetryEventFactory struct {
	devices []string
	metrics []string
}

// NewTelemetryEventFactory builds a factory drawing from a small fixed
// population of device IDs and metric names, so repeated runs produce
// recognizable, groupable output.
func NewTelemetryEventFactory() *TelemetryEventFactory {
	return &TelemetryEventFactory{
		devices: []string{"sensor-001", "sensor-002", "sensor-003", "sensor-004"},
		metrics: []string{"temperature", "humidity", "pressure"},
	}
}

func (f *TelemetryEventFactory) Create() (model.TelemetryEvent, error) {
	return f.CreateAt(time.Now())
}

// CreateAt produces a reading stamped with at rather than time.Now(),
// satisfying TimeAwareFactory for the hourly-range engine.
func (f *TelemetryEventFactory) CreateAt(at time.Time) (model.TelemetryEvent, error) {
	device, err := pick(f.devices)
	if err != nil {
		return model.TelemetryEvent{}, err
	}
	metric, err := pick(f.metrics)
	if err != nil {
		return model.TelemetryEvent{}, err
	}
	value, err := randomValue(-40, 140)
	if err != nil {
		return model.TelemetryEvent{}, err
	}
	seq, err := randomValue(0, 1_000_000)
	if err != nil {
		return model.TelemetryEvent{}, err
	}

	return model.TelemetryEvent{
		DeviceID:    device,
		Metric:      metric,
		Value:       fmt.Sprintf("%d", value),
		RecordedAt:  model.NowStamp(at),
		SequenceNum: fmt.Sprintf("%d", seq),
	}, nil
}

// OrderFactory produces randomized order placements.
type OrderFactory struct {
	skus []string
}

// NewOrderFactory builds a factory drawing SKUs from a small fixed catalog.
func NewOrderFactory() *OrderFactory {
	return &OrderFactory{skus: []string{"SKU-100", "SKU-200", "SKU-300"}}
}

func (f *OrderFactory) Create() (model.Order, error) {
	return f.CreateAt(time.Now())
}

// CreateAt produces an order stamped with at rather than time.Now(),
// satisfying TimeAwareFactory for the hourly-range engine.
func (f *OrderFactory) CreateAt(at time.Time) (model.Order, error) {
	sku, err := pick(f.skus)
	if err != nil {
		return model.Order{}, err
	}
	quantity, err := randomValue(1, 10)
	if err != nil {
		return model.Order{}, err
	}

	return model.Order{
		OrderID:    uuid.NewString(),
		CustomerID: uuid.NewString(),
		SKU:        sku,
		Quantity:   fmt.Sprintf("%d", quantity),
		PlacedAt:   model.NowStamp(at),
	}, nil
}

func pick(pool []string) (string, error) {
	idx, err := randomValue(0, int64(len(pool)))
	if err != nil {
		return "", err
	}
	return pool[idx], nil
}

// randomValue draws a cryptographically-strong uniform integer in
// [lo, hi), matching the RANDOM backoff policy's "drawn from a
// cryptographically strong source" requirement used elsewhere in this
// module (see internal/retry).
func randomValue(lo, hi int64) (int64, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(hi-lo))
	if err != nil {
		return 0, err
	}
	return lo + n.Int64(), nil
}
