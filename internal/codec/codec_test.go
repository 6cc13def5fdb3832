package codec

import (
	"testing"

	"github.com/r3labs/diff"
	"github.com/stretchr/testify/require"

	"github.com/johnny-stegall/dynamo-go/internal/model"
)

func sampleOrder() model.Order {
	return model.Order{
		OrderID:    "order-1",
		CustomerID: "cust-9",
		SKU:        "SKU-100",
		Quantity:   "3",
		PlacedAt:   "2026-01-01T00:00:00Z",
	}
}

// requireRoundTrip encodes want, decodes the result back, and diffs the
// outcome against want rather than doing a plain field comparison, per
// SPEC_FULL.md §8's codec test convention.
func requireRoundTrip(t *testing.T, c RecordCodec[model.Order], want model.Order) {
	t.Helper()
	payload, err := c.Encode(want)
	require.NoError(t, err)

	got, err := c.Decode(payload)
	require.NoError(t, err)

	changes, err := diff.Diff(want, got)
	require.NoError(t, err)
	require.Empty(t, changes, "round trip changed: %+v", changes)
}

func TestDelimitedCodec_RoundTrip(t *testing.T) {
	c, err := NewDelimitedCodec[model.Order]("|")
	require.NoError(t, err)
	requireRoundTrip(t, c, sampleOrder())
}

func TestDelimitedCodec_RejectsNonStringFields(t *testing.T) {
	type withInt struct {
		Name string
		N    int
	}
	_, err := NewDelimitedCodec[withInt]("|")
	require.Error(t, err)
}

func TestDelimitedCodec_WrongFieldCountFailsDecode(t *testing.T) {
	c, err := NewDelimitedCodec[model.Order]("|")
	require.NoError(t, err)

	_, err = c.Decode([]byte("only|two|"))
	require.Error(t, err)
}

func TestJSONCodec_RoundTrip(t *testing.T) {
	c := NewJSONCodec[model.Order]()
	requireRoundTrip(t, c, sampleOrder())
}

func TestXMLCodec_RoundTrip(t *testing.T) {
	c := NewXMLCodec[model.Order]()
	requireRoundTrip(t, c, sampleOrder())
}

func TestXMLCodec_HeaderIsLiteralXMLLine(t *testing.T) {
	c := NewXMLCodec[model.Order]()
	require.Equal(t, []byte(xmlHeader), c.Header())
}

func TestForExtension(t *testing.T) {
	cases := map[string]string{
		".csv":  "text",
		"tsv":   "text",
		".json": "json",
		"xml":   "xml",
		".avro": "avro",
	}
	for ext, want := range cases {
		got, err := ForExtension(ext)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := ForExtension(".bin")
	require.Error(t, err)
}

func TestDelimiterForExtension(t *testing.T) {
	require.Equal(t, ",", DelimiterForExtension(".csv"))
	require.Equal(t, "\t", DelimiterForExtension(".tsv"))
}

func TestBuild_UnrecognizedNameErrors(t *testing.T) {
	_, err := Build[model.Order]("protobuf", ",", AvroSchemaSource{})
	require.Error(t, err)
}

func TestAvroCodec_RoundTripViaInferredSchema(t *testing.T) {
	c, err := NewAvroCodec[model.Order](AvroSchemaSource{TypeName: "Order"})
	require.NoError(t, err)

	block, err := c.Encode(sampleOrder())
	require.NoError(t, err)

	got, err := c.Decode(block)
	require.NoError(t, err)

	changes, err := diff.Diff(sampleOrder(), got)
	require.NoError(t, err)
	require.Empty(t, changes)
}

func TestAvroCodec_HeaderCarriesMagicAndSchema(t *testing.T) {
	c, err := NewAvroCodec[model.Order](AvroSchemaSource{TypeName: "Order"})
	require.NoError(t, err)

	header := c.Header()
	require.True(t, len(header) > len(avroMagic))
	require.Equal(t, avroMagic, header[:len(avroMagic)])
}

func TestBuild_TextJSONAndXML(t *testing.T) {
	for _, name := range []string{"text", "json", "xml"} {
		c, err := Build[model.Order](name, ",", AvroSchemaSource{})
		require.NoError(t, err)
		require.NotNil(t, c)
	}
}
