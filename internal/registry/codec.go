// Package registry realizes the launcher's three name-based lookups from
// spec.md §6: engine name, record-type name, and sink name each resolve
// to a constructor. Go's generics can't parameterize a runtime lookup on
// a type argument, so each registered record-type name closes over its
// concrete T and does the full (codec, sink, executor, engine)
// construction itself.
package registry

import (
	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/johnny-stegall/dynamo-go/internal/codec"
	"github.com/johnny-stegall/dynamo-go/internal/config"
	"github.com/johnny-stegall/dynamo-go/internal/dynerr"
)

// buildCodec resolves Serialization.* into a ready RecordCodec[T], per
// spec.md §6's format table.
func buildCodec[T any](cfg *config.Config, typeName string) (codec.RecordCodec[T], error) {
	format := cfg.String("Serialization.Format", "json")
	delim := cfg.String("Serialization.Delimiter", "\t")

	avroSrc := avroSource(cfg, typeName)

	name, err := serializationCodecName(format)
	if err != nil {
		return nil, err
	}

	c, err := codec.Build[T](name, delim, avroSrc)
	if err != nil {
		return nil, dynerr.New(dynerr.KindConfig, errors.Annotatef(err, "building %s codec", format))
	}
	return c, nil
}

func serializationCodecName(format string) (string, error) {
	switch format {
	case "avro":
		return "avro", nil
	case "json":
		return "json", nil
	case "text":
		return "text", nil
	case "xml":
		return "xml", nil
	default:
		return "", dynerr.Newf(dynerr.KindConfig, "unrecognized Serialization.Format %q", format)
	}
}

// avroSource builds the schema-resolution priority chain described in
// SPEC_FULL.md §12: an explicit schema file, then a remote registry, then
// a local cache, then reflection.
func avroSource(cfg *config.Config, typeName string) codec.AvroSchemaSource {
	src := codec.AvroSchemaSource{
		SchemaFile: cfg.String("Serialization.SchemaFile", ""),
		CacheDir:   cfg.String("Serialization.SchemaCacheDir", ""),
		Subject:    cfg.String("Serialization.SchemaSubject", typeName),
		TypeName:   typeName,
	}

	if registryURL := cfg.String("Serialization.SchemaRegistry", ""); registryURL != "" {
		client, err := codec.NewSchemaRegistryClient(registryURL)
		if err != nil {
			log.Warn("schema registry client construction failed, falling back to inference",
				zap.String("url", registryURL), zap.Error(err))
		} else {
			src.Registry = client
		}
	}
	return src
}
