package retry

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/johnny-stegall/dynamo-go/internal/config"
	"github.com/johnny-stegall/dynamo-go/internal/dynerr"
)

func TestConfigFromProperties_Defaults(t *testing.T) {
	cfg, err := config.Parse(strings.NewReader(""))
	require.NoError(t, err)

	got := ConfigFromProperties(cfg, "test-sink")
	require.Equal(t, 3, got.Attempts)
	require.Equal(t, Static, got.Backoff)
	require.Nil(t, got.FailKinds)
	require.Equal(t, []dynerr.Kind{dynerr.KindTransient}, got.RetryKinds)
	require.Equal(t, time.Duration(0), got.Sleep)
	require.False(t, got.ShowStackTrace)
	require.Equal(t, "test-sink", got.SinkName)
}

func TestConfigFromProperties_ReadsAllKeys(t *testing.T) {
	cfg, err := config.Parse(strings.NewReader(
		"Attempts=5\n" +
			"Backoff=EXPONENTIAL\n" +
			"FailKinds=config, construction\n" +
			"RetryKinds=transient\n" +
			"Sleep=250\nSleepUnit=ms\n" +
			"ShowStackTrace=true\n"))
	require.NoError(t, err)

	got := ConfigFromProperties(cfg, "kafka")
	require.Equal(t, 5, got.Attempts)
	require.Equal(t, Exponential, got.Backoff)
	require.Equal(t, []dynerr.Kind{dynerr.KindConfig, dynerr.KindConstruction}, got.FailKinds)
	require.Equal(t, []dynerr.Kind{dynerr.KindTransient}, got.RetryKinds)
	require.Equal(t, 250*time.Millisecond, got.Sleep)
	require.True(t, got.ShowStackTrace)
}

func TestConfigFromProperties_InvalidBackoffFallsBackToStatic(t *testing.T) {
	cfg, err := config.Parse(strings.NewReader("Backoff=NOT-A-POLICY\n"))
	require.NoError(t, err)

	got := ConfigFromProperties(cfg, "test-sink")
	require.Equal(t, Static, got.Backoff)
}

func TestParseKinds_EmptyReturnsNil(t *testing.T) {
	require.Nil(t, parseKinds(""))
}

func TestParseKinds_TrimsWhitespaceAroundEntries(t *testing.T) {
	got := parseKinds(" transient ,permanent,  config ")
	require.Equal(t, []dynerr.Kind{dynerr.KindTransient, dynerr.KindPermanent, dynerr.KindConfig}, got)
}
