package engine

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/johnny-stegall/dynamo-go/internal/codec"
	"github.com/johnny-stegall/dynamo-go/internal/config"
	"github.com/johnny-stegall/dynamo-go/internal/retry"
)

// jsonRecord is a replay-specific stand-in: unlike testRecord it has an
// exported field, since the replay engine round-trips records through a
// real codec rather than a fake one.
type jsonRecord struct {
	Seq int `json:"seq"`
}

type replayCountingSink struct {
	mu    sync.Mutex
	count int
}

func (s *replayCountingSink) Send(ctx context.Context, record jsonRecord) error {
	s.mu.Lock()
	s.count++
	s.mu.Unlock()
	return nil
}

func (s *replayCountingSink) Flush(ctx context.Context) error { return nil }
func (s *replayCountingSink) Close() error                    { return nil }

func TestReplayEngine_ReplaysMatchingFilesAndStopsAtBlankLine(t *testing.T) {
	dir := t.TempDir()

	// Three lines, but the blank line terminates reading for this file
	// per spec.md §4.5, so only two records should be delivered.
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "orders-2026.json"),
		[]byte("{\"seq\":1}\n{\"seq\":2}\n\n{\"seq\":3}\n"),
		0o644))

	// Does not match the "orders" filter, so it must be skipped entirely.
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "events-2026.json"),
		[]byte("{\"seq\":99}\n"),
		0o644))

	sink := &replayCountingSink{}
	executor := retry.New(retry.Config{Attempts: 1, Backoff: retry.Static})

	cfg, err := config.Parse(strings.NewReader(
		"Path=" + dir + "\nFiles=orders\nThreads=2\n"))
	require.NoError(t, err)

	eng := NewReplayEngine[jsonRecord](sink, executor, cfg, codec.AvroSchemaSource{}, "TestRecord", "test-sink")
	require.NoError(t, eng.Produce(context.Background()))

	require.Equal(t, 2, sink.count)
}

func TestReplayEngine_NoMatchingFilesIsConfigError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "unrelated.json"), []byte("{}\n"), 0o644))

	sink := &replayCountingSink{}
	executor := retry.New(retry.Config{Attempts: 1, Backoff: retry.Static})

	cfg, err := config.Parse(strings.NewReader("Path=" + dir + "\nFiles=orders\nThreads=2\n"))
	require.NoError(t, err)

	eng := NewReplayEngine[jsonRecord](sink, executor, cfg, codec.AvroSchemaSource{}, "TestRecord", "test-sink")
	require.Error(t, eng.Produce(context.Background()))
}
