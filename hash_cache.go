package prefixcache

import (
	"encoding/binary"
	"fmt"
	"unsafe"
)

// PrefixWidth is the number of leading key bytes a HashCache keys on.
const PrefixWidth = 8

// PrefixKey packs the first PrefixWidth bytes of bs into a big-endian
// uint64. Shorter inputs are zero-padded; longer inputs are truncated, so
// distinct keys sharing an 8-byte prefix share a cache slot.
func PrefixKey(bs []byte) uint64 {
	if len(bs) >= PrefixWidth {
		return binary.BigEndian.Uint64(bs)
	}
	var arr [PrefixWidth]byte
	copy(arr[:], bs)
	return binary.BigEndian.Uint64(arr[:])
}

// markedEntry is a DenseTable slot: a packed prefix and the reference
// cached for it. A null ptr marks an unused slot and the tombstone word a
// deleted one; in both cases prefix is meaningless.
type markedEntry[T any] struct {
	prefix uint64
	ptr    MarkedPtr[T]
}

//go:nosplit
func (e markedEntry[T]) IsNull() bool { return e.ptr.IsNull() }

//go:nosplit
func (e markedEntry[T]) IsTombstone() bool { return e.ptr.isTombstone() }

//go:nosplit
func (e markedEntry[T]) Key() uint64 { return e.prefix }

//go:nosplit
func (markedEntry[T]) Tombstone() markedEntry[T] {
	return markedEntry[T]{ptr: MarkedPtr[T]{bits: markTombstone}}
}

func (e markedEntry[T]) String() string {
	var digits [PrefixWidth]byte
	binary.BigEndian.PutUint64(digits[:], e.prefix)
	return fmt.Sprintf("markedEntry{%v, %v}", digits, e.ptr)
}

// HashCache is the production PrefixCache. It tracks every prefix it is
// given exactly, so a miss is authoritative for prefixes of up to
// PrefixWidth bytes.
//
// The zero value is an empty cache ready to use. A HashCache must not be
// copied after first use.
type HashCache[T any] struct {
	//lint:ignore U1000 keeps the table header on its own cache line
	pad [(CacheLineSize - unsafe.Sizeof(struct {
		table        DenseTable[uint64, markedEntry[struct{}]]
		reclaimed    ReclaimChecker
		hits         uint64
		misses       uint64
		countLookups bool
	}{})%CacheLineSize) % CacheLineSize]byte

	table        DenseTable[uint64, markedEntry[T]]
	reclaimed    ReclaimChecker // WithReclaimCheck
	hits         uint64
	misses       uint64
	countLookups bool // WithStats
}

// NewHashCache creates a HashCache.
//
// Parameters:
//   - WithPresize option for initial capacity
//   - WithKeyHash option to replace the default FNV-1a hash
//   - WithStats option to count lookup hits and misses
//   - WithReclaimCheck option to validate hits against node liveness
func NewHashCache[T any](options ...func(*CacheConfig)) *HashCache[T] {
	var cfg CacheConfig
	for _, opt := range options {
		opt(&cfg)
	}
	c := &HashCache[T]{}
	c.table.Init(cfg.keyHash, cfg.sizeHint)
	c.reclaimed = cfg.reclaimed
	c.countLookups = cfg.countLookups
	return c
}

//go:nosplit
func (*HashCache[T]) Enabled() bool { return true }

//go:nosplit
func (*HashCache[T]) Complete() bool { return true }

// Lookup returns the reference cached for the first PrefixWidth bytes of
// prefix.
func (c *HashCache[T]) Lookup(prefix []byte) (MarkedPtr[T], bool) {
	e, ok := c.table.Lookup(PrefixKey(prefix))
	if c.countLookups {
		if ok {
			c.hits++
		} else {
			c.misses++
		}
	}
	if !ok {
		return MarkedPtr[T]{}, false
	}
	if invariantsEnabled && c.reclaimed != nil &&
		c.reclaimed.Reclaimed(e.ptr.Index(), e.ptr.Generation()) {
		panic(assertf("returning an expired node %v for prefix %x", e.ptr, prefix))
	}
	return e.ptr, true
}

// Insert records ptr for prefix, replacing any cached reference. A Null ptr
// deletes the prefix.
func (c *HashCache[T]) Insert(prefix []byte, ptr MarkedPtr[T]) {
	key := PrefixKey(prefix)
	if ptr.IsNull() {
		c.table.Delete(key)
		if invariantsEnabled {
			_, ok := c.table.Lookup(key)
			mustHold(!ok, "prefix %x still cached after delete", prefix)
		}
		return
	}
	c.table.Insert(markedEntry[T]{prefix: key, ptr: ptr})
}

// Replace is Insert returning the reference previously cached for prefix.
func (c *HashCache[T]) Replace(prefix []byte, ptr MarkedPtr[T]) (MarkedPtr[T], bool) {
	key := PrefixKey(prefix)
	var (
		old markedEntry[T]
		ok  bool
	)
	if ptr.IsNull() {
		old, ok = c.table.Delete(key)
	} else {
		old, ok = c.table.Insert(markedEntry[T]{prefix: key, ptr: ptr})
	}
	return old.ptr, ok
}

// DebugAssertUnreachable panics if ptr is cached under any prefix. It scans
// the whole table and is a no-op unless invariants are enabled.
func (c *HashCache[T]) DebugAssertUnreachable(ptr MarkedPtr[T]) {
	if !invariantsEnabled {
		return
	}
	if err := c.checkUnreachable(ptr); err != nil {
		panic(err)
	}
}

func (c *HashCache[T]) checkUnreachable(ptr MarkedPtr[T]) (err error) {
	if ptr.IsNull() {
		return nil
	}
	c.table.Range(func(e markedEntry[T]) bool {
		if e.ptr != ptr {
			return true
		}
		l, ok := c.table.Lookup(e.prefix)
		switch {
		case !ok:
			err = assertf("attempted to look up %v but failed", e)
		case l.ptr != e.ptr:
			err = assertf("got %v != elt %v", l, e)
		default:
			err = assertf("found %v in elt with prefix %x", ptr, e.prefix)
		}
		return false
	})
	return err
}

// Len returns the number of cached prefixes.
func (c *HashCache[T]) Len() int { return c.table.Len() }

// Range calls yield for each cached prefix (packed as by PrefixKey) and its
// reference, in no particular order, until yield returns false. The cache
// must not be modified during iteration.
func (c *HashCache[T]) Range(yield func(prefix uint64, ptr MarkedPtr[T]) bool) {
	c.table.Range(func(e markedEntry[T]) bool {
		return yield(e.prefix, e.ptr)
	})
}

// Clear drops every cached prefix, keeping the allocated buckets.
func (c *HashCache[T]) Clear() {
	c.table.Clear()
}

// Stats returns a snapshot of the cache statistics.
func (c *HashCache[T]) Stats() *CacheStats {
	return &CacheStats{
		TableStats: c.table.Stats(),
		Hits:       c.hits,
		Misses:     c.misses,
	}
}

// Verify checks the table invariants and, if a ReclaimChecker is
// configured, that no cached reference points at a freed node. It runs
// regardless of build tags and is O(n).
func (c *HashCache[T]) Verify() error {
	if err := c.table.Verify(); err != nil {
		return err
	}
	if c.reclaimed == nil {
		return nil
	}
	var err error
	c.table.Range(func(e markedEntry[T]) bool {
		if c.reclaimed.Reclaimed(e.ptr.Index(), e.ptr.Generation()) {
			err = assertf("%v refers to a reclaimed node", e)
			return false
		}
		return true
	})
	return err
}
