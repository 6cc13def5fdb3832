package sink

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/johnny-stegall/dynamo-go/internal/codec"
	"github.com/johnny-stegall/dynamo-go/internal/model"
)

func TestFileSink_WritesHeaderOnceThenSeparatesRecords(t *testing.T) {
	dir := t.TempDir()
	c := codec.NewXMLCodec[model.Order]()
	s := NewFileSink[model.Order](c, dir, "orders", "xml")

	order := model.Order{OrderID: "o1", CustomerID: "c1", SKU: "SKU-1", Quantity: "1", PlacedAt: "2026-01-01T00:00:00Z"}

	require.NoError(t, s.Send(context.Background(), order))
	require.NoError(t, s.Send(context.Background(), order))
	require.NoError(t, s.Close())

	contents, err := os.ReadFile(filepath.Join(dir, "orders.xml"))
	require.NoError(t, err)

	payload, err := c.Encode(order)
	require.NoError(t, err)

	want := append([]byte{}, c.Header()...)
	want = append(want, payload...)
	want = append(want, c.Separator()...)
	want = append(want, payload...)

	require.Equal(t, string(want), string(contents))
}

func TestFileSink_AppendsToPreExistingFileWithoutRewritingHeader(t *testing.T) {
	dir := t.TempDir()
	c := codec.NewJSONCodec[model.Order]()

	path := filepath.Join(dir, "orders.json")
	require.NoError(t, os.WriteFile(path, []byte("PRIOR-CONTENT"), 0o644))

	s := NewFileSink[model.Order](c, dir, "orders", "json")
	order := model.Order{OrderID: "o1", CustomerID: "c1", SKU: "SKU-1", Quantity: "1", PlacedAt: "2026-01-01T00:00:00Z"}
	require.NoError(t, s.Send(context.Background(), order))
	require.NoError(t, s.Close())

	contents, err := os.ReadFile(path)
	require.NoError(t, err)

	payload, err := c.Encode(order)
	require.NoError(t, err)

	// A pre-existing file is treated as already having written a record:
	// no header, but the separator still precedes the new payload.
	want := append(append([]byte{}, c.Separator()...), payload...)
	require.Equal(t, "PRIOR-CONTENT"+string(want), string(contents))
}

func TestFileSink_SendToUsesRelativePathUnderBasePath(t *testing.T) {
	dir := t.TempDir()
	c := codec.NewJSONCodec[model.Order]()
	s := NewFileSink[model.Order](c, dir, "default", "json")

	order := model.Order{OrderID: "o1", CustomerID: "c1", SKU: "SKU-1", Quantity: "1", PlacedAt: "2026-01-01T00:00:00Z"}
	require.NoError(t, s.SendTo(context.Background(), order, "2026/01/01/0300"))
	require.NoError(t, s.Close())

	_, err := os.Stat(filepath.Join(dir, "2026/01/01/0300.json"))
	require.NoError(t, err)
}
