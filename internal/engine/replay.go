package engine

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/johnny-stegall/dynamo-go/internal/codec"
	"github.com/johnny-stegall/dynamo-go/internal/config"
	"github.com/johnny-stegall/dynamo-go/internal/dynerr"
	"github.com/johnny-stegall/dynamo-go/internal/metrics"
	"github.com/johnny-stegall/dynamo-go/internal/retry"
	"github.com/johnny-stegall/dynamo-go/internal/sink"
)

// ReplayEngine lists files under a configured path matching a substring,
// picks a codec per file from its extension, and replays each non-empty
// line as a delivered record (spec.md §4.5).
type ReplayEngine[T any] struct {
	sink     sink.Sink[T]
	executor *retry.Executor

	path    string
	filter  string
	threads int
	avroSrc codec.AvroSchemaSource

	recordTypeName string
	sinkName       string

	poolHolder
}

// NewReplayEngine builds the engine from cfg, already sliced to the
// `Engines.Replay` prefix. Threads default to ½×CPU per spec.md §4.5.
// avroSrc is forwarded to any `.avro` file's codec construction.
func NewReplayEngine[T any](s sink.Sink[T], executor *retry.Executor, cfg *config.Config, avroSrc codec.AvroSchemaSource, recordTypeName, sinkName string) *ReplayEngine[T] {
	return &ReplayEngine[T]{
		sink:           s,
		executor:       executor,
		path:           cfg.String("Path", ""),
		filter:         cfg.String("Files", ""),
		threads:        cfg.Int("Threads", defaultWorkers(0.5)),
		avroSrc:        avroSrc,
		recordTypeName: recordTypeName,
		sinkName:       sinkName,
	}
}

// Produce lists matching files and submits one replay task per file. A
// missing path or an empty match set is a terminal configuration error,
// per spec.md §4.5.
func (e *ReplayEngine[T]) Produce(ctx context.Context) error {
	defer closeSinkLogged(e.sink, "replay-engine")

	if e.filter == "" {
		return dynerr.Newf(dynerr.KindConfig, "replay engine: Engines.Replay.Files must not be empty")
	}

	entries, err := os.ReadDir(e.path)
	if err != nil {
		return dynerr.New(dynerr.KindConfig, errors.Annotatef(err, "replay engine: listing %s", e.path))
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.Contains(entry.Name(), e.filter) {
			files = append(files, filepath.Join(e.path, entry.Name()))
		}
	}
	if len(files) == 0 {
		return dynerr.Newf(dynerr.KindConfig, "replay engine: no files under %q match %q", e.path, e.filter)
	}

	p := newPool(ctx, e.threads, e.threads*4)
	e.set(p)

	log.Info("replay engine starting",
		zap.String("path", e.path), zap.String("filter", e.filter),
		zap.Int("files", len(files)), zap.Int("threads", e.threads))

	for _, f := range files {
		file := f
		if err := p.submit(ctx, func(ctx context.Context) error {
			return e.replayFile(ctx, file)
		}); err != nil {
			log.Warn("replay engine stopped submitting early", zap.Error(err))
			break
		}
	}

	return e.Shutdown(DefaultShutdownCeiling)
}

func (e *ReplayEngine[T]) replayFile(ctx context.Context, path string) error {
	codecName, err := codec.ForExtension(filepath.Ext(path))
	if err != nil {
		log.Warn("replay engine: skipping file with unrecognized extension", zap.String("path", path), zap.Error(err))
		return nil
	}
	delim := codec.DelimiterForExtension(filepath.Ext(path))

	recordCodec, err := codec.Build[T](codecName, delim, e.avroSrc)
	if err != nil {
		return dynerr.New(dynerr.KindConstruction, errors.Annotatef(err, "replay engine: building codec for %s", path))
	}

	f, err := os.Open(path)
	if err != nil {
		return dynerr.New(dynerr.KindConstruction, errors.Annotatef(err, "replay engine: opening %s", path))
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			// An empty line terminates reading for this file, per
			// spec.md §4.5.
			break
		}

		record, decodeErr := recordCodec.Decode([]byte(line))
		if decodeErr != nil {
			log.Warn("replay engine: decode failed, skipping line", zap.String("path", path), zap.Error(decodeErr))
			continue
		}
		metrics.RecordsProduced.WithLabelValues(e.recordTypeName).Inc()

		sendErr := runTask(ctx, e.executor, func(ctx context.Context) error {
			return e.sink.Send(ctx, record)
		})
		if sendErr != nil {
			continue
		}
		metrics.RecordsDelivered.WithLabelValues(e.sinkName).Inc()
	}
	if err := scanner.Err(); err != nil {
		return dynerr.New(dynerr.KindTransient, errors.Annotatef(err, "replay engine: reading %s", path))
	}
	return nil
}

// Shutdown drains the pool with the given grace timeout.
func (e *ReplayEngine[T]) Shutdown(graceTimeout time.Duration) error {
	return e.poolHolder.shutdown(graceTimeout)
}
