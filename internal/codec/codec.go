// Package codec implements the wire formats named in spec.md §3: delimited
// text, JSON, XML, and a binary columnar (Avro-like) format. Every codec is
// stateless after construction, aside from the one schema an Avro codec
// instance may cache.
package codec

import "github.com/johnny-stegall/dynamo-go/internal/dynerr"

// RecordCodec encodes a record of type T to bytes and decodes a logical
// record (one line for text formats, one frame for the binary format) back
// into a fresh T.
type RecordCodec[T any] interface {
	// Encode returns the wire bytes for record, not including any
	// separator between records.
	Encode(record T) ([]byte, error)
	// Decode parses one logical line/frame into a fresh T.
	Decode(line []byte) (T, error)
	// Separator returns the bytes an appendable sink must place between
	// two successive records (spec.md §3's "Appendable record separator"
	// column).
	Separator() []byte
	// Header returns bytes to write once, before the first record, when
	// creating a brand new appendable artifact. Most codecs return nil.
	Header() []byte
}

// CRLF is the record separator shared by the delimited-text, JSON, and XML
// codecs (spec.md §3).
var CRLF = []byte("\r\n")

// ForExtension resolves a file extension (with or without the leading dot)
// to the codec name it implies, per spec.md §4.2's replay mapping. An
// unrecognized extension is a terminal configuration error.
func ForExtension(ext string) (string, error) {
	switch normalizeExt(ext) {
	case "avro":
		return "avro", nil
	case "csv":
		return "text", nil
	case "tsv":
		return "text", nil
	case "json":
		return "json", nil
	case "xml":
		return "xml", nil
	default:
		return "", dynerr.Newf(dynerr.KindConfig, "unrecognized file extension %q for replay codec selection", ext)
	}
}

// DelimiterForExtension returns the delimiter implied by a replay file's
// extension, for the text codec: comma for .csv, tab for .tsv.
func DelimiterForExtension(ext string) string {
	if normalizeExt(ext) == "csv" {
		return ","
	}
	return "\t"
}

func normalizeExt(ext string) string {
	if len(ext) > 0 && ext[0] == '.' {
		ext = ext[1:]
	}
	return ext
}

// Build constructs a RecordCodec[T] by name ("text", "json", "xml",
// "avro"), the four codec identities named throughout spec.md §3/§4.2.
// delim is only consulted for "text"; avroSrc only for "avro".
func Build[T any](name, delim string, avroSrc AvroSchemaSource) (RecordCodec[T], error) {
	switch name {
	case "text":
		return NewDelimitedCodec[T](delim)
	case "json":
		return NewJSONCodec[T](), nil
	case "xml":
		return NewXMLCodec[T](), nil
	case "avro":
		return NewAvroCodec[T](avroSrc)
	default:
		return nil, dynerr.Newf(dynerr.KindConfig, "unrecognized codec name %q", name)
	}
}
