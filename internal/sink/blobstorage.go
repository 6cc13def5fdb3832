package sink

import (
	"context"
	"fmt"

	gcs "cloud.google.com/go/storage"
	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/johnny-stegall/dynamo-go/internal/codec"
	"github.com/johnny-stegall/dynamo-go/internal/dynerr"
)

// blobTransport backs Handlers.BlobStorage. Azure Blob Storage has no
// representative client in the example pack; cloud.google.com/go/storage
// already ships as an indirect dependency of the teacher and presents the
// same "bucket + object key" object-store shape, so it stands in for the
// generic blob-store contract spec.md §1 reduces every object store to.
type blobTransport struct {
	client *gcs.Client
	bucket string
	prefix string
	seq    atomic.Uint64
}

// NewBlobStorageSink builds an object-store-backed Sink[T].
func NewBlobStorageSink[T any](c codec.RecordCodec[T], bucket, prefix string) (Sink[T], error) {
	client, err := gcs.NewClient(context.Background())
	if err != nil {
		return nil, dynerr.New(dynerr.KindConstruction, errors.Annotate(err, "blob storage sink: creating client"))
	}

	log.Info("blob storage sink ready", zap.String("bucket", bucket))

	return newCodecSink[T](c, &blobTransport{client: client, bucket: bucket, prefix: prefix}), nil
}

func (b *blobTransport) deliverBytes(ctx context.Context, payload []byte) error {
	n := b.seq.Add(1)
	key := fmt.Sprintf("%s/%020d", b.prefix, n)

	w := b.client.Bucket(b.bucket).Object(key).NewWriter(ctx)
	if _, err := w.Write(payload); err != nil {
		_ = w.Close()
		return dynerr.New(dynerr.KindTransient, errors.Annotatef(err, "blob storage sink: writing %s", key))
	}
	if err := w.Close(); err != nil {
		return dynerr.New(dynerr.KindTransient, errors.Annotatef(err, "blob storage sink: closing %s", key))
	}
	return nil
}

func (b *blobTransport) flush(ctx context.Context) error { return nil }

func (b *blobTransport) close() error {
	if err := b.client.Close(); err != nil {
		return dynerr.New(dynerr.KindTransient, errors.Annotate(err, "blob storage sink: close"))
	}
	return nil
}
