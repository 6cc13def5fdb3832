package registry

import (
	"github.com/johnny-stegall/dynamo-go/internal/config"
	"github.com/johnny-stegall/dynamo-go/internal/dynerr"
	"github.com/johnny-stegall/dynamo-go/internal/engine"
	"github.com/johnny-stegall/dynamo-go/internal/factory"
	"github.com/johnny-stegall/dynamo-go/internal/model"
)

// Builder fully constructs a pipeline (codec, sink, retry executor,
// engine) for one record type, given the launcher's engine and sink
// tokens plus the parsed configuration.
type Builder func(engineName, sinkName string, cfg *config.Config) (engine.Engine, error)

// recordTypes is the name-based registry spec.md §6 describes for the
// launcher's second positional argument. Each entry closes over the
// concrete record type it resolves to, since Go cannot select a type
// argument at runtime.
var recordTypes = map[string]Builder{
	"TelemetryEvent": func(engineName, sinkName string, cfg *config.Config) (engine.Engine, error) {
		f := resolveFactory[model.TelemetryEvent](cfg, "TelemetryEvent", factory.NewTelemetryEventFactory())
		return buildPipeline[model.TelemetryEvent](engineName, sinkName, cfg, f, "TelemetryEvent")
	},
	"Order": func(engineName, sinkName string, cfg *config.Config) (engine.Engine, error) {
		f := resolveFactory[model.Order](cfg, "Order", factory.NewOrderFactory())
		return buildPipeline[model.Order](engineName, sinkName, cfg, f, "Order")
	},
}

// Build resolves all three launcher tokens and returns a ready-to-run
// Engine, or a KindConfig/KindConstruction error if any token is
// unregistered.
func Build(engineName, recordTypeName, sinkName string, cfg *config.Config) (engine.Engine, error) {
	builder, ok := recordTypes[recordTypeName]
	if !ok {
		return nil, dynerr.Newf(dynerr.KindConfig, "unrecognized record type name %q", recordTypeName)
	}
	return builder(engineName, sinkName, cfg)
}
