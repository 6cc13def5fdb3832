package retry

import (
	"crypto/rand"
	"math/big"
	"time"

	"github.com/johnny-stegall/dynamo-go/internal/dynerr"
)

// Backoff names the sleep-growth policy, per spec.md §4.4.
type Backoff string

const (
	Static      Backoff = "STATIC"
	Linear      Backoff = "LINEAR"
	Exponential Backoff = "EXPONENTIAL"
	Random      Backoff = "RANDOM"
)

// ParseBackoff validates a configured backoff name.
func ParseBackoff(s string) (Backoff, error) {
	switch Backoff(s) {
	case Static, Linear, Exponential, Random:
		return Backoff(s), nil
	default:
		return "", dynerr.Newf(dynerr.KindConfig, "unknown backoff policy %q", s)
	}
}

// SleepFor computes the sleep duration on the n-th failure (n starting at
// 1), exactly per spec.md §4.4. A general-purpose backoff library (e.g.
// cenkalti/backoff, already used one layer down for producer
// reconnection — see internal/sink) cannot express EXPONENTIAL's
// sleep×n² or RANDOM's cryptographically-drawn sleep×U[0, 2^(n+1))
// without reimplementing its internals, so this is hand-rolled.
func SleepFor(b Backoff, base time.Duration, n int) (time.Duration, error) {
	switch b {
	case Static:
		return base, nil
	case Linear:
		return base * time.Duration(n), nil
	case Exponential:
		return base * time.Duration(n*n), nil
	case Random:
		upper := int64(1) << uint(n+1) // 2^(n+1)
		draw, err := rand.Int(rand.Reader, big.NewInt(upper))
		if err != nil {
			return 0, dynerr.New(dynerr.KindTransient, err)
		}
		return base * time.Duration(draw.Int64()), nil
	default:
		return 0, dynerr.Newf(dynerr.KindConfig, "unknown backoff policy %q", b)
	}
}
