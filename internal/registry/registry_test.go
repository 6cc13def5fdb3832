package registry

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/johnny-stegall/dynamo-go/internal/config"
)

func fileBackedConfig(t *testing.T, extra string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	raw := "Handlers.File.Path=" + dir + "\nHandlers.File.Filename=out\n" + extra
	cfg, err := config.Parse(strings.NewReader(raw))
	require.NoError(t, err)
	return cfg
}

func TestBuild_UnrecognizedRecordTypeErrors(t *testing.T) {
	cfg := fileBackedConfig(t, "")
	_, err := Build("quantity", "NoSuchRecord", "file", cfg)
	require.Error(t, err)
}

func TestBuild_UnrecognizedEngineErrors(t *testing.T) {
	cfg := fileBackedConfig(t, "Engines.Quantity.Quantity=1\n")
	_, err := Build("no-such-engine", "Order", "file", cfg)
	require.Error(t, err)
}

func TestBuild_UnrecognizedSinkErrors(t *testing.T) {
	cfg := fileBackedConfig(t, "Engines.Quantity.Quantity=1\n")
	_, err := Build("quantity", "Order", "no-such-sink", cfg)
	require.Error(t, err)
}

func TestBuild_QuantityEngineOverFileSink(t *testing.T) {
	cfg := fileBackedConfig(t, "Engines.Quantity.Quantity=5\nEngines.Quantity.Threads=2\n")
	eng, err := Build("quantity", "Order", "file", cfg)
	require.NoError(t, err)
	require.NotNil(t, eng)
}

func TestBuild_HourlyRangeAcceptsBothSpellings(t *testing.T) {
	cfg := fileBackedConfig(t, "Engines.HourlyRange.LowerQuantity=0\nEngines.HourlyRange.UpperQuantity=1\n")
	_, err := Build("hourly-range", "TelemetryEvent", "file", cfg)
	require.NoError(t, err)

	_, err = Build("hourlyrange", "TelemetryEvent", "file", cfg)
	require.NoError(t, err)
}

func TestBuild_ObjectFactorySentinelOverridesConcreteFactory(t *testing.T) {
	cfg := fileBackedConfig(t, "RecordType.Factory=ObjectFactory\nEngines.Quantity.Quantity=1\n")
	_, err := Build("quantity", "Order", "file", cfg)
	require.NoError(t, err)
}

func TestBuildCodec_UnrecognizedFormatErrors(t *testing.T) {
	cfg, err := config.Parse(strings.NewReader("Serialization.Format=protobuf\n"))
	require.NoError(t, err)
	_, err = buildCodec[int](cfg, "Int")
	require.Error(t, err)
}

func TestResolveFactory_DefaultsToConcrete(t *testing.T) {
	cfg, err := config.Parse(strings.NewReader(""))
	require.NoError(t, err)

	got := resolveFactory[int](cfg, "Int", concreteIntFactory{})
	_, ok := got.(concreteIntFactory)
	require.True(t, ok)
}

type concreteIntFactory struct{}

func (concreteIntFactory) Create() (int, error) { return 7, nil }
