package sink

import (
	"context"
	"time"

	"github.com/Shopify/sarama"
	"github.com/cenkalti/backoff"
	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/johnny-stegall/dynamo-go/internal/codec"
	"github.com/johnny-stegall/dynamo-go/internal/dynerr"
)

// kafkaTransport is a persistent sarama.SyncProducer-backed deliverer.
// Send blocks until the broker acknowledges, satisfying spec.md §4.3's
// messaging-sink requirement ("either send blocks until the broker
// acknowledges, or the sink exposes a flush").
type kafkaTransport struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaSink dials brokers and returns a Sink[T] that publishes to
// topic. Connection establishment is retried with
// github.com/cenkalti/backoff — a concern distinct from, and beneath, the
// spec's per-record retry executor.
func NewKafkaSink[T any](c codec.RecordCodec[T], brokers []string, topic string) (Sink[T], error) {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Return.Successes = true

	var producer sarama.SyncProducer
	connect := func() error {
		p, err := sarama.NewSyncProducer(brokers, cfg)
		if err != nil {
			return err
		}
		producer = p
		return nil
	}

	boff := backoff.NewExponentialBackOff()
	boff.MaxElapsedTime = 30 * time.Second
	if err := backoff.Retry(connect, boff); err != nil {
		return nil, dynerr.New(dynerr.KindConstruction, errors.Annotatef(err, "kafka sink: connecting to %v", brokers))
	}

	log.Info("kafka sink connected", zap.Strings("brokers", brokers), zap.String("topic", topic))

	return newCodecSink[T](c, &kafkaTransport{producer: producer, topic: topic}), nil
}

func (k *kafkaTransport) deliverBytes(ctx context.Context, payload []byte) error {
	msg := &sarama.ProducerMessage{
		Topic: k.topic,
		Value: sarama.ByteEncoder(payload),
	}
	_, _, err := k.producer.SendMessage(msg)
	if err == nil {
		return nil
	}
	if sarama.IsRetriableError(err) {
		return dynerr.New(dynerr.KindTransient, errors.Annotate(err, "kafka sink: send"))
	}
	return dynerr.New(dynerr.KindPermanent, errors.Annotate(err, "kafka sink: send"))
}

func (k *kafkaTransport) flush(ctx context.Context) error { return nil }

func (k *kafkaTransport) close() error {
	if err := k.producer.Close(); err != nil {
		return dynerr.New(dynerr.KindTransient, errors.Annotate(err, "kafka sink: close"))
	}
	return nil
}
