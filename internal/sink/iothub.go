package sink

import (
	"time"

	"github.com/johnny-stegall/dynamo-go/internal/codec"
)

// iotHubSendDeadline is the "IoT-style 5-second expiry per message" named
// in spec.md §5.
const iotHubSendDeadline = 5 * time.Second

// NewIoTHubSink shares the event-bus sink's producer contract, differing
// only in the per-message send deadline it imposes.
func NewIoTHubSink[T any](c codec.RecordCodec[T], serviceURL, topic string) (Sink[T], error) {
	return NewEventBusSink[T](c, serviceURL, topic, iotHubSendDeadline)
}
