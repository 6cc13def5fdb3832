package retry

import (
	"strings"

	"github.com/johnny-stegall/dynamo-go/internal/config"
	"github.com/johnny-stegall/dynamo-go/internal/dynerr"
)

// ConfigFromProperties builds a Config from cfg's `Retry.*` keys
// (SPEC_FULL.md §6), labeling the resulting executor's metrics with
// sinkName. cfg must already be sliced to the `Retry` prefix (callers pass
// cfg.Slice("Retry")): keys are read without it, as "Attempts", "Backoff",
// and so on.
func ConfigFromProperties(cfg *config.Config, sinkName string) Config {
	backoff, err := ParseBackoff(cfg.String("Backoff", string(Static)))
	if err != nil {
		backoff = Static
	}

	return Config{
		Attempts:       cfg.Int("Attempts", 3),
		Backoff:        backoff,
		FailKinds:      parseKinds(cfg.String("FailKinds", "")),
		RetryKinds:     parseKinds(cfg.String("RetryKinds", string(dynerr.KindTransient))),
		Sleep:          cfg.Duration("Sleep", "SleepUnit", 0),
		ShowStackTrace: cfg.Bool("ShowStackTrace", false),
		SinkName:       sinkName,
	}
}

func parseKinds(raw string) []dynerr.Kind {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	kinds := make([]dynerr.Kind, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			kinds = append(kinds, dynerr.Kind(p))
		}
	}
	return kinds
}
