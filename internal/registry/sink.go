package registry

import (
	"strings"

	"github.com/johnny-stegall/dynamo-go/internal/codec"
	"github.com/johnny-stegall/dynamo-go/internal/config"
	"github.com/johnny-stegall/dynamo-go/internal/dynerr"
	"github.com/johnny-stegall/dynamo-go/internal/sink"
)

// buildSink resolves sinkName against `Handlers.*` configuration, per
// spec.md §4.3's sink table.
func buildSink[T any](sinkName string, cfg *config.Config, c codec.RecordCodec[T]) (sink.Sink[T], error) {
	switch sinkName {
	case "file":
		h := cfg.Slice("Handlers.File")
		path := h.String("Path", ".")
		name := h.String("Filename", "records")
		ext := extensionForFormat(cfg.String("Serialization.Format", "json"), cfg.String("Serialization.Delimiter", "\t"))
		return sink.NewFileSink[T](c, path, name, ext), nil

	case "kafka":
		h := cfg.Slice("Handlers.Kafka")
		brokers, err := h.Require("Brokers")
		if err != nil {
			return nil, err
		}
		topic, err := h.Require("Topic")
		if err != nil {
			return nil, err
		}
		return sink.NewKafkaSink[T](c, strings.Split(brokers, ","), topic)

	case "eventhubs":
		h := cfg.Slice("Handlers.EventHubs")
		url, err := h.Require("ServiceURL")
		if err != nil {
			return nil, err
		}
		topic, err := h.Require("Topic")
		if err != nil {
			return nil, err
		}
		return sink.NewEventBusSink[T](c, url, topic, 0)

	case "iothub":
		h := cfg.Slice("Handlers.IoTHub")
		url, err := h.Require("ServiceURL")
		if err != nil {
			return nil, err
		}
		topic, err := h.Require("Topic")
		if err != nil {
			return nil, err
		}
		return sink.NewIoTHubSink[T](c, url, topic)

	case "kinesis":
		h := cfg.Slice("Handlers.Kinesis")
		region, err := h.Require("Region")
		if err != nil {
			return nil, err
		}
		stream, err := h.Require("StreamName")
		if err != nil {
			return nil, err
		}
		return sink.NewKinesisSink[T](c, region, stream)

	case "s3":
		h := cfg.Slice("Handlers.S3")
		region, err := h.Require("Region")
		if err != nil {
			return nil, err
		}
		bucket, err := h.Require("Bucket")
		if err != nil {
			return nil, err
		}
		prefix := h.String("Prefix", "")
		return sink.NewS3Sink[T](c, region, bucket, prefix)

	case "blobstorage":
		h := cfg.Slice("Handlers.BlobStorage")
		bucket, err := h.Require("Bucket")
		if err != nil {
			return nil, err
		}
		prefix := h.String("Prefix", "")
		return sink.NewBlobStorageSink[T](c, bucket, prefix)

	case "mongodb":
		h := cfg.Slice("Handlers.MongoDB")
		addr, err := h.Require("Addr")
		if err != nil {
			return nil, err
		}
		database, err := h.Require("Database")
		if err != nil {
			return nil, err
		}
		collection, err := h.Require("Collection")
		if err != nil {
			return nil, err
		}
		return sink.NewMongoDBSink[T](c, addr, database, collection)

	case "documentdb":
		h := cfg.Slice("Handlers.DocumentDB")
		adapter := sink.DocumentDBAdapter(h.String("Adapter", string(sink.AdapterSQLite)))
		dsn, err := h.Require("DSN")
		if err != nil {
			return nil, err
		}
		table, err := h.Require("Table")
		if err != nil {
			return nil, err
		}
		return sink.NewDocumentDBSink[T](c, adapter, dsn, table)

	default:
		return nil, dynerr.Newf(dynerr.KindConfig, "unrecognized sink name %q", sinkName)
	}
}

// extensionForFormat picks the file extension spec.md §6's file-format
// table assigns to each serialization format; the text codec's own
// extension further depends on its delimiter (tab vs comma vs other).
func extensionForFormat(format, delim string) string {
	switch format {
	case "avro":
		return "avro"
	case "json":
		return "json"
	case "xml":
		return "xml"
	case "text":
		switch delim {
		case "\t":
			return "tsv"
		case ",":
			return "csv"
		default:
			return "txt"
		}
	default:
		return "txt"
	}
}
