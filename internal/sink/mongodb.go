package sink

import (
	"context"

	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/zap"
	mgo "gopkg.in/mgo.v2"
	"gopkg.in/mgo.v2/bson"

	"github.com/johnny-stegall/dynamo-go/internal/codec"
	"github.com/johnny-stegall/dynamo-go/internal/dynerr"
)

// mongoTransport backs Handlers.MongoDB. Each delivered record is wrapped
// in a single "payload" document rather than decomposed field-by-field,
// since the sink only ever sees the codec's encoded bytes (spec.md §5's
// document-store sinks store the encoded record, not the record itself).
type mongoTransport struct {
	session    *mgo.Session
	collection string
	database   string
}

// NewMongoDBSink dials addr and returns a Sink[T] writing to
// database.collection.
func NewMongoDBSink[T any](c codec.RecordCodec[T], addr, database, collection string) (Sink[T], error) {
	session, err := mgo.Dial(addr)
	if err != nil {
		return nil, dynerr.New(dynerr.KindConstruction, errors.Annotatef(err, "mongodb sink: dialing %s", addr))
	}
	session.SetMode(mgo.Monotonic, true)

	log.Info("mongodb sink connected", zap.String("addr", addr), zap.String("database", database), zap.String("collection", collection))

	return newCodecSink[T](c, &mongoTransport{session: session, database: database, collection: collection}), nil
}

func (m *mongoTransport) deliverBytes(ctx context.Context, payload []byte) error {
	session := m.session.Copy()
	defer session.Close()

	doc := bson.M{"payload": payload}
	col := session.DB(m.database).C(m.collection)
	if err := col.Insert(doc); err != nil {
		return dynerr.New(dynerr.KindTransient, errors.Annotate(err, "mongodb sink: insert"))
	}
	return nil
}

func (m *mongoTransport) flush(ctx context.Context) error { return nil }

func (m *mongoTransport) close() error {
	m.session.Close()
	return nil
}
