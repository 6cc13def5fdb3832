package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecordsProduced_IncrementsPerLabel(t *testing.T) {
	before := testutil.ToFloat64(RecordsProduced.WithLabelValues("TestRecord"))
	RecordsProduced.WithLabelValues("TestRecord").Inc()
	after := testutil.ToFloat64(RecordsProduced.WithLabelValues("TestRecord"))
	require.Equal(t, before+1, after)
}

func TestRecordsFailed_LabeledBySinkAndKind(t *testing.T) {
	before := testutil.ToFloat64(RecordsFailed.WithLabelValues("test-sink", "permanent"))
	RecordsFailed.WithLabelValues("test-sink", "permanent").Inc()
	after := testutil.ToFloat64(RecordsFailed.WithLabelValues("test-sink", "permanent"))
	require.Equal(t, before+1, after)
}

func TestSampleCPU_SetsGaugeWithinPercentRange(t *testing.T) {
	SampleCPU()
	v := testutil.ToFloat64(CPUUsagePercent)
	require.GreaterOrEqual(t, v, 0.0)
	require.LessOrEqual(t, v, 100.0)
}
