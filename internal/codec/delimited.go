package codec

import (
	"reflect"
	"strings"

	"github.com/johnny-stegall/dynamo-go/internal/dynerr"
)

// DelimitedCodec encodes T by walking its exported fields in declaration
// order, joining their string form with Delim and appending a trailing
// delimiter. Decoding splits on the same delimiter and assigns positionally
// — per spec.md §9's Open Question, there is no type coercion: every
// exported field must itself be a string, or codec construction fails.
type DelimitedCodec[T any] struct {
	Delim string
	names []string
}

// NewDelimitedCodec validates that T's exported fields are all strings
// (the only type the positional, no-coercion assignment described in
// spec.md §9 can support) and returns a ready-to-use codec.
func NewDelimitedCodec[T any](delim string) (*DelimitedCodec[T], error) {
	var zero T
	typ := reflect.TypeOf(zero)
	if typ == nil || typ.Kind() != reflect.Struct {
		return nil, dynerr.Newf(dynerr.KindConfig, "delimited codec requires a struct record type")
	}

	names := make([]string, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if field.PkgPath != "" {
			continue // unexported
		}
		if field.Type.Kind() != reflect.String {
			return nil, dynerr.Newf(dynerr.KindEncoding, "delimited codec: field %q is not a string; positional assignment cannot coerce types", field.Name)
		}
		names = append(names, field.Name)
	}
	if len(names) == 0 {
		return nil, dynerr.Newf(dynerr.KindConfig, "delimited codec: record type has no exported string fields")
	}

	return &DelimitedCodec[T]{Delim: delim, names: names}, nil
}

func (c *DelimitedCodec[T]) Encode(record T) ([]byte, error) {
	v := reflect.ValueOf(record)
	var b strings.Builder
	for i := 0; i < v.NumField(); i++ {
		field := v.Type().Field(i)
		if field.PkgPath != "" {
			continue
		}
		b.WriteString(v.Field(i).String())
		b.WriteString(c.Delim)
	}
	return []byte(b.String()), nil
}

func (c *DelimitedCodec[T]) Decode(line []byte) (T, error) {
	var out T
	parts := strings.Split(string(line), c.Delim)
	// Tolerate (but do not require) the trailing delimiter Encode appends.
	if len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	if len(parts) != len(c.names) {
		return out, dynerr.Newf(dynerr.KindEncoding, "delimited codec: expected %d fields, got %d", len(c.names), len(parts))
	}

	v := reflect.ValueOf(&out).Elem()
	fieldIdx := 0
	for i := 0; i < v.NumField(); i++ {
		field := v.Type().Field(i)
		if field.PkgPath != "" {
			continue
		}
		v.Field(i).SetString(parts[fieldIdx])
		fieldIdx++
	}
	return out, nil
}

func (c *DelimitedCodec[T]) Separator() []byte { return CRLF }
func (c *DelimitedCodec[T]) Header() []byte    { return nil }
