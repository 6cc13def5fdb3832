package engine

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/johnny-stegall/dynamo-go/internal/config"
	"github.com/johnny-stegall/dynamo-go/internal/retry"
)

// pathRecordingSink implements sink.PathSink[testRecord] and records every
// relPath it was asked to deliver to, so the test can confirm the hourly
// engine tags each record with its own hour.
type pathRecordingSink struct {
	mu    sync.Mutex
	paths []string
}

func (s *pathRecordingSink) Send(ctx context.Context, record testRecord) error {
	return s.SendTo(ctx, record, "")
}

func (s *pathRecordingSink) SendTo(ctx context.Context, record testRecord, relPath string) error {
	s.mu.Lock()
	s.paths = append(s.paths, relPath)
	s.mu.Unlock()
	return nil
}

func (s *pathRecordingSink) Flush(ctx context.Context) error { return nil }
func (s *pathRecordingSink) Close() error                    { return nil }

func (s *pathRecordingSink) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.paths))
	copy(out, s.paths)
	return out
}

func TestHourlyRangeEngine_CoversEveryHourInRange(t *testing.T) {
	factory := &countingFactory{}
	sink := &pathRecordingSink{}
	executor := retry.New(retry.Config{Attempts: 1, Backoff: retry.Static})

	start := "2026/01/01"
	end := "2026/01/02" // exactly 24 hourly buckets: [00:00, 24:00)

	cfg, err := config.Parse(strings.NewReader(
		"StartDate=" + start + "\n" +
			"EndDate=" + end + "\n" +
			"LowerQuantity=1\nUpperQuantity=2\nThreads=4\n"))
	require.NoError(t, err)

	eng := NewHourlyRangeEngine[testRecord](factory, sink, executor, cfg, "TestRecord", "test-sink")
	require.NoError(t, eng.Produce(context.Background()))

	seenHours := map[string]bool{}
	for _, p := range sink.Paths() {
		// relPath is "yyyy/MM/dd/HH00"; the hour prefix is everything
		// before the trailing "00".
		seenHours[p[:len(p)-2]] = true
	}
	require.Len(t, seenHours, 24, "expected one bucket per hour of the range")
}

func TestHourlyRangeEngine_DefaultsToTrailingThirtyDays(t *testing.T) {
	factory := &countingFactory{}
	sink := &pathRecordingSink{}
	executor := retry.New(retry.Config{Attempts: 1, Backoff: retry.Static})

	cfg, err := config.Parse(strings.NewReader("LowerQuantity=0\nUpperQuantity=1\nThreads=2\n"))
	require.NoError(t, err)

	eng := NewHourlyRangeEngine[testRecord](factory, sink, executor, cfg, "TestRecord", "test-sink")

	now := time.Now().UTC()
	require.WithinDuration(t, now, eng.end, time.Minute)
	require.WithinDuration(t, now.Add(-30*24*time.Hour), eng.start, time.Minute)
}

func TestBucketTracker_DoneRemovesExhaustedBucket(t *testing.T) {
	tracker := newBucketTracker()
	hour := time.Date(2026, 1, 1, 3, 0, 0, 0, time.UTC)

	b1 := tracker.begin(hour)
	b2 := tracker.begin(hour)
	require.Same(t, b1, b2)
	require.Equal(t, int64(2), b1.inFlight.Load())

	tracker.done(b1)
	require.Equal(t, 1, tracker.tree.Len())

	tracker.done(b2)
	require.Equal(t, 0, tracker.tree.Len())
}
