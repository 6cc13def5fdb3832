package retry

import (
	"github.com/emirpasic/gods/sets/hashset"

	"github.com/johnny-stegall/dynamo-go/internal/dynerr"
)

// Matcher decides, for one failed delivery, whether the executor should
// retry, fail fast, or exhaust. It implements the match rule from
// spec.md §4.4: an error matches a category if its kind equals or is a
// sub-kind of any kind listed in that category.
type Matcher struct {
	failKinds   *hashset.Set
	retryKinds  *hashset.Set
}

// NewMatcher builds a Matcher from the configured fail/retry kind lists.
func NewMatcher(failKinds, retryKinds []dynerr.Kind) *Matcher {
	fail := hashset.New()
	for _, k := range failKinds {
		fail.Add(k)
	}
	retryable := hashset.New()
	for _, k := range retryKinds {
		retryable.Add(k)
	}
	return &Matcher{failKinds: fail, retryKinds: retryable}
}

// Retryable reports whether err should be retried. If it matches
// failKinds, or matches neither list, it is non-retryable (fails fast).
// Otherwise it is retryable.
func (m *Matcher) Retryable(err error) bool {
	kind := dynerr.KindOf(err)

	if matches(m.failKinds, kind) {
		return false
	}
	if matches(m.retryKinds, kind) {
		return true
	}
	return false
}

func matches(set *hashset.Set, kind dynerr.Kind) bool {
	for _, v := range set.Values() {
		listed := v.(dynerr.Kind)
		if dynerr.IsSubKind(kind, listed) {
			return true
		}
	}
	return false
}
