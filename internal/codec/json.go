package codec

import (
	"encoding/json"

	"github.com/johnny-stegall/dynamo-go/internal/dynerr"
	"github.com/pingcap/errors"
)

// JSONCodec encodes/decodes one JSON object per line, via stdlib
// encoding/json — idiomatic across the whole example pack, which never
// reaches for a third-party library to marshal a plain struct.
type JSONCodec[T any] struct{}

func NewJSONCodec[T any]() *JSONCodec[T] {
	return &JSONCodec[T]{}
}

func (c *JSONCodec[T]) Encode(record T) ([]byte, error) {
	b, err := json.Marshal(record)
	if err != nil {
		return nil, dynerr.New(dynerr.KindEncoding, errors.Annotate(err, "json encode"))
	}
	return b, nil
}

func (c *JSONCodec[T]) Decode(line []byte) (T, error) {
	var out T
	if err := json.Unmarshal(line, &out); err != nil {
		return out, dynerr.New(dynerr.KindEncoding, errors.Annotate(err, "json decode"))
	}
	return out, nil
}

func (c *JSONCodec[T]) Separator() []byte { return CRLF }
func (c *JSONCodec[T]) Header() []byte    { return nil }
