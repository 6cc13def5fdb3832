// Package sink implements the Handler contract from spec.md §4.3: accept
// one record, deliver it to a destination, classify failures into
// terminal-config / transient / permanent categories.
package sink

import (
	"context"

	"github.com/johnny-stegall/dynamo-go/internal/codec"
)

// Sink delivers one record at a time. Persistent sinks (everything but
// the file sink) are constructed once and shared across the worker pool;
// Send must be safe for concurrent use.
type Sink[T any] interface {
	// Send encodes record and delivers it, classifying any failure per
	// spec.md §4.3.
	Send(ctx context.Context, record T) error
	// Flush blocks until every record previously accepted by Send has
	// been acknowledged by the destination. Sinks that ack synchronously
	// inside Send may make this a no-op.
	Flush(ctx context.Context) error
	// Close releases the sink's underlying resources. Called on every
	// success and every failure path (spec.md §5).
	Close() error
}

// PathSink is additionally implemented by sinks whose destination can
// vary per call — today, only the file sink. The hourly-range engine uses
// it to target a date-partitioned filename without mutating any shared
// sink state (spec.md §9, "Hourly engine's sink mutation" design note).
type PathSink[T any] interface {
	Sink[T]
	SendTo(ctx context.Context, record T, relPath string) error
}

// byteDeliverer is the sink-specific half of spec.md §4.3's "deliverBytes
// is sink-specific" contract. Concrete transports (Kafka, S3, Mongo, ...)
// implement this; codecSink adapts it into a Sink[T].
type byteDeliverer interface {
	deliverBytes(ctx context.Context, payload []byte) error
	flush(ctx context.Context) error
	close() error
}

// codecSink adapts any byteDeliverer into a Sink[T] by running the
// record through a codec first, exactly per spec.md §4.3: "bytes ←
// codec.encode(record); deliverBytes(bytes)".
type codecSink[T any] struct {
	codec codec.RecordCodec[T]
	inner byteDeliverer
}

func newCodecSink[T any](c codec.RecordCodec[T], inner byteDeliverer) *codecSink[T] {
	return &codecSink[T]{codec: c, inner: inner}
}

func (s *codecSink[T]) Send(ctx context.Context, record T) error {
	payload, err := s.codec.Encode(record)
	if err != nil {
		return err // already a *dynerr.Classified with KindEncoding
	}
	return s.inner.deliverBytes(ctx, payload)
}

func (s *codecSink[T]) Flush(ctx context.Context) error { return s.inner.flush(ctx) }
func (s *codecSink[T]) Close() error                    { return s.inner.close() }
