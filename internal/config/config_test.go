package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const sample = `
# comment line
Serialization.Format=json
Serialization.Delimiter=\t
Engines.Quantity.Quantity=10000
Engines.Quantity.Threads=4
Handlers.File.Path=/tmp/dynamo
Retry.Sleep=200
Retry.SleepUnit=ms
`

func TestParseAndSlice(t *testing.T) {
	cfg, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)

	require.Equal(t, "json", cfg.String("Serialization.Format", ""))
	require.Equal(t, 10000, cfg.Int("Engines.Quantity.Quantity", 0))

	quantity := cfg.Slice("Engines.Quantity")
	require.Equal(t, "10000", quantity.String("Quantity", ""))
	require.Equal(t, 4, quantity.Int("Threads", 0))
}

func TestRequireMissingKey(t *testing.T) {
	cfg, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)

	_, err = cfg.Require("Does.Not.Exist")
	require.Error(t, err)
}

func TestDuration(t *testing.T) {
	cfg, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)

	d := cfg.Duration("Retry.Sleep", "Retry.SleepUnit", time.Second)
	require.Equal(t, 200*time.Millisecond, d)

	def := cfg.Duration("Missing.Sleep", "Missing.SleepUnit", 3*time.Second)
	require.Equal(t, 3*time.Second, def)
}

func TestMalformedLine(t *testing.T) {
	_, err := Parse(strings.NewReader("not-a-kv-line"))
	require.Error(t, err)
}
