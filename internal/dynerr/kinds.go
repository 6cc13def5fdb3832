// Package dynerr declares the error-kind taxonomy shared by the retry
// executor, the sinks, and the launcher. Kinds are compared by identity,
// never by matching on error strings.
package dynerr

import "github.com/pingcap/errors"

// Kind identifies which category of failure an error belongs to. The
// retry executor's allow/deny matcher only ever inspects Kind, never the
// wrapped error's message.
type Kind string

const (
	// KindUsage marks a malformed CLI invocation.
	KindUsage Kind = "usage"
	// KindConfig marks a missing or invalid configuration value.
	KindConfig Kind = "config"
	// KindConstruction marks a failure to resolve a registered name or
	// open a sink's underlying resource.
	KindConstruction Kind = "construction"
	// KindEncoding marks a codec failure. Always non-retryable.
	KindEncoding Kind = "encoding"
	// KindTransient marks a retryable delivery failure (timeout,
	// connection reset, 5xx).
	KindTransient Kind = "transient"
	// KindPermanent marks a non-retryable delivery failure (4xx, schema
	// mismatch).
	KindPermanent Kind = "permanent"
	// KindInterrupted marks a worker-pool shutdown wait that hit its
	// timeout.
	KindInterrupted Kind = "interrupted"
)

// Classified is an error tagged with a Kind, produced by sinks and
// consumed by the retry executor.
type Classified struct {
	kind  Kind
	cause error
}

// New tags cause with kind, tracing the cause through pingcap/errors so
// the full chain survives showStackTrace logging.
func New(kind Kind, cause error) *Classified {
	return &Classified{kind: kind, cause: errors.Trace(cause)}
}

// Newf builds a Classified error from a format string, with no
// underlying cause to trace.
func Newf(kind Kind, format string, args ...interface{}) *Classified {
	return &Classified{kind: kind, cause: errors.Errorf(format, args...)}
}

func (c *Classified) Error() string {
	return c.cause.Error()
}

func (c *Classified) Unwrap() error {
	return c.cause
}

// KindOf returns the tagged failure category. Defaults to KindTransient for
// any error that was never classified, so an unclassified sink bug fails
// open to "retry a bounded number of times" rather than "retry forever"
// or "never retry".
func KindOf(err error) Kind {
	var c *Classified
	if errors.As(err, &c) {
		return c.kind
	}
	return KindTransient
}

// IsSubKind reports whether candidate is kind itself or a sub-kind of it.
// The taxonomy here is flat (no kind hierarchies beyond equality), but the
// function exists so the retry matcher's "equal to or a sub-kind of"
// language from the spec has a single place to grow into, should the
// taxonomy ever gain sub-kinds.
func IsSubKind(candidate, kind Kind) bool {
	return candidate == kind
}
