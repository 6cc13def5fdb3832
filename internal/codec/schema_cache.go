package codec

import (
	"os"
	"path/filepath"

	"github.com/pingcap/errors"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/johnny-stegall/dynamo-go/internal/dynerr"
)

// schemaCacheEntry is the on-disk shape of an inferred schema, persisted
// with msgpack so repeated processes against the same record type skip
// the reflection walk. This is schema-cache state, not the engine-run
// state spec.md §1 excludes from persistence.
type schemaCacheEntry struct {
	TypeName   string
	SchemaJSON []byte
}

func cacheFilePath(dir, typeName string) string {
	return filepath.Join(dir, typeName+".schema.msgpack")
}

func loadCachedSchema(dir, typeName string) ([]byte, bool) {
	raw, err := os.ReadFile(cacheFilePath(dir, typeName))
	if err != nil {
		return nil, false
	}
	var entry schemaCacheEntry
	if err := msgpack.Unmarshal(raw, &entry); err != nil {
		return nil, false
	}
	if entry.TypeName != typeName {
		return nil, false
	}
	return entry.SchemaJSON, true
}

func saveCachedSchema(dir, typeName string, schemaJSON []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return dynerr.New(dynerr.KindConfig, errors.Annotate(err, "avro schema cache: creating cache dir"))
	}
	raw, err := msgpack.Marshal(schemaCacheEntry{TypeName: typeName, SchemaJSON: schemaJSON})
	if err != nil {
		return dynerr.New(dynerr.KindEncoding, errors.Annotate(err, "avro schema cache: marshaling"))
	}
	return os.WriteFile(cacheFilePath(dir, typeName), raw, 0o644)
}

func loadSchemaFile(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, dynerr.New(dynerr.KindConfig, errors.Annotatef(err, "avro: reading schema file %s", path))
	}
	return raw, nil
}
