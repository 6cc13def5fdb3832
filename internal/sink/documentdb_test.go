package sink

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/johnny-stegall/dynamo-go/internal/codec"
	"github.com/johnny-stegall/dynamo-go/internal/model"
)

func TestDocumentDBSink_SQLiteInsertsEncodedPayload(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "records.db")

	raw, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	_, err = raw.Exec(`CREATE TABLE records (payload TEXT, delivered_at DATETIME)`)
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	c := codec.NewJSONCodec[model.Order]()
	s, err := NewDocumentDBSink[model.Order](c, AdapterSQLite, "file://"+dbPath, "records")
	require.NoError(t, err)

	order := model.Order{OrderID: "o1", CustomerID: "c1", SKU: "SKU-1", Quantity: "1", PlacedAt: "2026-01-01T00:00:00Z"}
	require.NoError(t, s.Send(context.Background(), order))
	require.NoError(t, s.Close())

	verify, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer verify.Close()

	var count int
	require.NoError(t, verify.QueryRow(`SELECT COUNT(*) FROM records`).Scan(&count))
	require.Equal(t, 1, count)

	payload, err := c.Encode(order)
	require.NoError(t, err)

	var stored string
	require.NoError(t, verify.QueryRow(`SELECT payload FROM records`).Scan(&stored))
	require.Equal(t, string(payload), stored)
}
