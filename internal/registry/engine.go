package registry

import (
	"github.com/johnny-stegall/dynamo-go/internal/config"
	"github.com/johnny-stegall/dynamo-go/internal/dynerr"
	"github.com/johnny-stegall/dynamo-go/internal/engine"
	"github.com/johnny-stegall/dynamo-go/internal/factory"
	"github.com/johnny-stegall/dynamo-go/internal/retry"
)

// resolveFactory applies the `<RecordTypeName>Factory` naming convention
// from spec.md §6: concrete is used unless `RecordType.Factory` names the
// `ObjectFactory` sentinel, in which case every produced record is T's
// zero value.
func resolveFactory[T any](cfg *config.Config, typeName string, concrete factory.RecordFactory[T]) factory.RecordFactory[T] {
	want := cfg.String("RecordType.Factory", typeName+"Factory")
	if want == "ObjectFactory" {
		return factory.ObjectFactory[T]{}
	}
	return concrete
}

// buildPipeline constructs the sink first, then the retry executor, then
// dispatches to the named engine — spec.md §6's "construct the sink
// first, so configuration errors abort before any records are created."
func buildPipeline[T any](engineName, sinkName string, cfg *config.Config, f factory.RecordFactory[T], typeName string) (engine.Engine, error) {
	c, err := buildCodec[T](cfg, typeName)
	if err != nil {
		return nil, err
	}

	s, err := buildSink[T](sinkName, cfg, c)
	if err != nil {
		return nil, err
	}

	executor := retry.New(retry.ConfigFromProperties(cfg.Slice("Retry"), sinkName))

	switch engineName {
	case "quantity":
		return engine.NewQuantityEngine[T](f, s, executor, cfg.Slice("Engines.Quantity"), typeName, sinkName), nil
	case "hourly-range", "hourlyrange":
		return engine.NewHourlyRangeEngine[T](f, s, executor, cfg.Slice("Engines.HourlyRange"), typeName, sinkName), nil
	case "replay":
		return engine.NewReplayEngine[T](s, executor, cfg.Slice("Engines.Replay"), avroSource(cfg, typeName), typeName, sinkName), nil
	default:
		_ = s.Close()
		return nil, dynerr.Newf(dynerr.KindConfig, "unrecognized engine name %q", engineName)
	}
}
