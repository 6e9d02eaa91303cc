// Package prefixcache caches references to the interior of an adaptive radix
// tree, keyed by a fixed-width key prefix, so that repeated or skewed
// lookups can jump straight to a node instead of walking from the root.
//
// The tree owns every node; the cache only records where it last saw one.
// Whenever the tree frees, moves or restructures a node it must clear every
// prefix that may resolve to it (Insert with a Null reference) before the
// node's slot is reused. References are generation-checked arena slots, so
// a stale reference that slips through still fails Arena.Get instead of
// aliasing an unrelated node.
//
// Nothing in this package is safe for concurrent use.
package prefixcache

// PrefixCache describes types that can cache references interior to an ART.
type PrefixCache[T any] interface {
	// Enabled reports whether the tree should consult and update the cache
	// at all. It is constant for an implementation.
	Enabled() bool
	// Complete reports whether a Lookup miss proves that no node with that
	// prefix exists in the tree (rather than merely not being cached).
	// It is constant for an implementation.
	Complete() bool
	// Lookup returns the reference cached for prefix.
	Lookup(prefix []byte) (MarkedPtr[T], bool)
	// Insert records ptr for prefix. A Null ptr removes the prefix.
	Insert(prefix []byte, ptr MarkedPtr[T])
	// Replace behaves like Insert and returns the reference previously
	// cached for prefix, if any.
	Replace(prefix []byte, ptr MarkedPtr[T]) (MarkedPtr[T], bool)
	// DebugAssertUnreachable panics if ptr is still cached under any prefix.
	// It only does work when invariants are enabled.
	DebugAssertUnreachable(ptr MarkedPtr[T])
}

var (
	_ PrefixCache[struct{}] = (*NullCache[struct{}])(nil)
	_ PrefixCache[struct{}] = (*HashCache[struct{}])(nil)
)

// NullCache is the disabled PrefixCache: it never hits and ignores updates,
// so call sites can be written against PrefixCache unconditionally.
type NullCache[T any] struct{}

// NewNullCache returns a disabled cache.
func NewNullCache[T any]() *NullCache[T] { return &NullCache[T]{} }

//go:nosplit
func (*NullCache[T]) Enabled() bool { return false }

//go:nosplit
func (*NullCache[T]) Complete() bool { return false }

//go:nosplit
func (*NullCache[T]) Lookup([]byte) (MarkedPtr[T], bool) { return MarkedPtr[T]{}, false }

//go:nosplit
func (*NullCache[T]) Insert([]byte, MarkedPtr[T]) {}

//go:nosplit
func (*NullCache[T]) Replace([]byte, MarkedPtr[T]) (MarkedPtr[T], bool) {
	return MarkedPtr[T]{}, false
}

//go:nosplit
func (*NullCache[T]) DebugAssertUnreachable(MarkedPtr[T]) {}
