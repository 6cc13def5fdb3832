package sink

import (
	"context"
	"time"

	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/zap"
	db "upper.io/db.v3"
	"upper.io/db.v3/mysql"
	"upper.io/db.v3/sqlite"

	"github.com/johnny-stegall/dynamo-go/internal/codec"
	"github.com/johnny-stegall/dynamo-go/internal/dynerr"
)

// documentRow is the row every DocumentDB sink writes: the encoded payload
// plus a delivery timestamp. Like the Mongo sink, the payload is stored whole rather than
// decomposed, since the sink never sees the record's fields directly.
type documentRow struct {
	Payload   string    `db:"payload"`
	DeliveredAt time.Time `db:"delivered_at"`
}

// docDBTransport backs Handlers.DocumentDB. upper.io/db.v3 abstracts the
// SQL adapter, so the sink can target sqlite (default, zero-config) or
// mysql without changing the query surface — a document-store-over-SQL
// shape standing in for services like DocumentDB/Cosmos that spec.md §1
// specifies only at the "durable keyed store" interface.
type docDBTransport struct {
	session db.Database
	table   string
}

// DocumentDBAdapter selects the SQL adapter upper.io/db.v3 drives.
type DocumentDBAdapter string

const (
	AdapterSQLite DocumentDBAdapter = "sqlite"
	AdapterMySQL  DocumentDBAdapter = "mysql"
)

// NewDocumentDBSink opens a session against adapter using dsn and writes
// records into table, creating nothing — the table is expected to exist
// with a (payload TEXT, delivered_at DATETIME) shape.
func NewDocumentDBSink[T any](c codec.RecordCodec[T], adapter DocumentDBAdapter, dsn, table string) (Sink[T], error) {
	var session db.Database
	var err error

	switch adapter {
	case AdapterMySQL:
		var settings mysql.ConnectionURL
		settings, err = mysql.ParseURL(dsn)
		if err == nil {
			session, err = mysql.Open(settings)
		}
	case AdapterSQLite:
		var settings sqlite.ConnectionURL
		settings, err = sqlite.ParseURL(dsn)
		if err == nil {
			session, err = sqlite.Open(settings)
		}
	default:
		return nil, dynerr.New(dynerr.KindConstruction, errors.Errorf("document db sink: unknown adapter %q", adapter))
	}
	if err != nil {
		return nil, dynerr.New(dynerr.KindConstruction, errors.Annotatef(err, "document db sink: opening %s", adapter))
	}

	log.Info("document db sink connected", zap.String("adapter", string(adapter)), zap.String("table", table))

	return newCodecSink[T](c, &docDBTransport{session: session, table: table}), nil
}

func (d *docDBTransport) deliverBytes(ctx context.Context, payload []byte) error {
	col := d.session.Collection(d.table)
	row := documentRow{Payload: string(payload), DeliveredAt: time.Now()}
	if _, err := col.Insert(row); err != nil {
		return dynerr.New(dynerr.KindTransient, errors.Annotate(err, "document db sink: insert"))
	}
	return nil
}

func (d *docDBTransport) flush(ctx context.Context) error { return nil }

func (d *docDBTransport) close() error {
	if err := d.session.Close(); err != nil {
		return dynerr.New(dynerr.KindTransient, errors.Annotate(err, "document db sink: close"))
	}
	return nil
}
