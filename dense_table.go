package prefixcache

import (
	"math/bits"
	"unsafe"
)

const (
	// MinGrowBuckets is the capacity below which a half-full table always
	// doubles instead of compacting its tombstones in place.
	MinGrowBuckets = 32

	// compactFraction: a half-full table of at least MinGrowBuckets slots is
	// compacted in place when tombstones occupy at least 1/compactFraction of
	// it, and doubled otherwise.
	compactFraction = 4
)

// Entry is the slot contract of a DenseTable.
//
// The zero value of E must be the null entry, i.e. report IsNull. Tombstone
// returns the deleted-slot sentinel, which must report IsTombstone and must
// not report IsNull. Key is never called on null or tombstone entries.
type Entry[K comparable, E any] interface {
	IsNull() bool
	IsTombstone() bool
	Key() K
	Tombstone() E
}

// DenseTable is a bare-bones open-addressing hash set in the style of
// Google's dense_hash_set. Slots are probed quadratically (triangular
// numbers) over a power-of-two bucket array; deleted slots become
// tombstones which keep probe chains intact and are reused by later inserts.
//
// The table is kept at most half occupied (live entries plus tombstones).
// When an insert would cross that bound, a small table or one made up
// mostly of live entries doubles; otherwise the table is compacted at the
// same capacity, dropping its tombstones.
//
// The zero value is an empty table using the default key hash. A
// DenseTable is not safe for concurrent use and must not be copied after
// first use.
type DenseTable[K comparable, E Entry[K, E]] struct {
	_           noCopy
	buckets     []E
	len         int // live entries
	set         int // live entries plus tombstones
	hash        func(K) uint64
	grows       uint32
	compactions uint32
}

// NewDenseTable creates a table hashing keys with hash (nil selects the
// default hash for K) and sized to hold sizeHint entries without growing.
func NewDenseTable[K comparable, E Entry[K, E]](
	hash func(K) uint64,
	sizeHint int,
) *DenseTable[K, E] {
	t := &DenseTable[K, E]{}
	t.Init(hash, sizeHint)
	return t
}

// Init resets the table, installing hash (nil selects the default) and
// preallocating room for sizeHint entries.
func (t *DenseTable[K, E]) Init(hash func(K) uint64, sizeHint int) {
	if hash == nil {
		hash = defaultKeyHash[K]()
	}
	t.hash = hash
	t.buckets = nil
	t.len, t.set = 0, 0
	if sizeHint > 0 {
		t.buckets = make([]E, calcTableLen(sizeHint))
	}
}

// calcTableLen returns the bucket count that keeps sizeHint entries below
// the half-full growth threshold. The result is a power of 2.
func calcTableLen(sizeHint int) int {
	return nextPowOf2(sizeHint * 2)
}

//go:nosplit
func nextProbe(hash uint64, i uint64) uint64 {
	return hash + (i+i*i)/2
}

// seek walks the probe sequence of k. It returns the index of the first
// tombstone seen (or -1) and the index of the slot that either holds k or
// is the null slot ending the chain (or -1 if every slot was probed).
func (t *DenseTable[K, E]) seek(k K) (tomb, slot int) {
	tomb = -1
	n := len(t.buckets)
	mask := uint64(n - 1)
	hash := t.hash(k)
	ix := hash
	for i := 0; i < n; {
		ix &= mask
		b := t.buckets[ix]
		i++
		switch {
		case b.IsTombstone():
			if tomb < 0 {
				tomb = int(ix)
			}
		case b.IsNull() || b.Key() == k:
			return tomb, int(ix)
		}
		ix = nextProbe(hash, uint64(i))
	}
	return tomb, -1
}

func (t *DenseTable[K, E]) lazyInit() {
	if t.hash == nil {
		t.hash = defaultKeyHash[K]()
	}
}

// Lookup returns the live entry stored under k.
func (t *DenseTable[K, E]) Lookup(k K) (e E, ok bool) {
	if len(t.buckets) == 0 {
		return e, false
	}
	t.lazyInit()
	_, slot := t.seek(k)
	if slot < 0 || t.buckets[slot].IsNull() {
		return e, false
	}
	return t.buckets[slot], true
}

// Insert stores e. If an entry with the same key is present it is replaced
// and returned with replaced set; len and set are left unchanged in that
// case.
func (t *DenseTable[K, E]) Insert(e E) (old E, replaced bool) {
	mustHold(!e.IsNull() && !e.IsTombstone(),
		"inserted entry must be live, got null=%t tombstone=%t", e.IsNull(), e.IsTombstone())
	t.lazyInit()
	if t.set >= len(t.buckets)/2 {
		t.grow()
	}
	tomb, slot := t.seek(e.Key())
	if slot < 0 {
		panic(assertf("dense table: no free slot in %d buckets (len=%d, set=%d)",
			len(t.buckets), t.len, t.set))
	}
	if t.buckets[slot].IsNull() {
		if tomb >= 0 {
			// reuse the tombstone earlier in the probe chain
			t.buckets[tomb] = e
		} else {
			t.buckets[slot] = e
			t.set++
		}
		t.len++
		return old, false
	}
	old, t.buckets[slot] = t.buckets[slot], e
	return old, true
}

// Delete removes the entry stored under k, leaving a tombstone in its slot,
// and returns it.
func (t *DenseTable[K, E]) Delete(k K) (old E, deleted bool) {
	if len(t.buckets) == 0 {
		return old, false
	}
	t.lazyInit()
	_, slot := t.seek(k)
	if slot < 0 || t.buckets[slot].IsNull() {
		return old, false
	}
	old, t.buckets[slot] = t.buckets[slot], old.Tombstone()
	t.len--
	return old, true
}

// grow makes room for one more entry: it allocates the first bucket, doubles
// the bucket array, or rehashes in place to drop tombstones.
func (t *DenseTable[K, E]) grow() {
	n := len(t.buckets)
	if n == 0 {
		t.buckets = make([]E, 1)
		t.grows++
		return
	}
	live := make([]E, 0, t.len)
	for _, b := range t.buckets {
		if !b.IsNull() && !b.IsTombstone() {
			live = append(live, b)
		}
	}
	if n < MinGrowBuckets || t.set-t.len < n/compactFraction {
		t.buckets = make([]E, n<<1)
		t.grows++
	} else {
		clear(t.buckets)
		t.compactions++
	}
	t.len, t.set = 0, 0
	for _, e := range live {
		_, slot := t.seek(e.Key())
		t.buckets[slot] = e
		t.set++
		t.len++
	}
}

// Len returns the number of live entries.
func (t *DenseTable[K, E]) Len() int { return t.len }

// Occupied returns the number of non-null slots, tombstones included.
func (t *DenseTable[K, E]) Occupied() int { return t.set }

// Cap returns the number of buckets.
func (t *DenseTable[K, E]) Cap() int { return len(t.buckets) }

// Range calls yield for every live entry in bucket order until yield
// returns false. The table must not be modified during iteration.
func (t *DenseTable[K, E]) Range(yield func(e E) bool) {
	for _, b := range t.buckets {
		if b.IsNull() || b.IsTombstone() {
			continue
		}
		if !yield(b) {
			return
		}
	}
}

// Clear removes all entries and tombstones, keeping the bucket array.
func (t *DenseTable[K, E]) Clear() {
	clear(t.buckets)
	t.len, t.set = 0, 0
}

// Stats returns occupancy and resize counters.
func (t *DenseTable[K, E]) Stats() TableStats {
	return TableStats{
		Capacity:    len(t.buckets),
		Len:         t.len,
		Occupied:    t.set,
		Tombstones:  t.set - t.len,
		Grows:       t.grows,
		Compactions: t.compactions,
	}
}

// Verify checks the table invariants with a full scan: the bucket count is
// 0 or a power of two, len <= set <= buckets, the counters match the slots,
// and every live entry is reachable through its own probe chain.
// It is O(n) and meant for tests and debugging.
func (t *DenseTable[K, E]) Verify() error {
	n := len(t.buckets)
	if n != 0 && n&(n-1) != 0 {
		return assertf("bucket count %d is not a power of two", n)
	}
	if t.len < 0 || t.len > t.set || t.set > n {
		return assertf("counters out of order: len=%d set=%d buckets=%d", t.len, t.set, n)
	}
	t.lazyInit()
	var live, set int
	for i, b := range t.buckets {
		if b.IsNull() {
			continue
		}
		set++
		if b.IsTombstone() {
			continue
		}
		live++
		if _, slot := t.seek(b.Key()); slot != i {
			return assertf("entry in bucket %d resolves to bucket %d", i, slot)
		}
	}
	if live != t.len || set != t.set {
		return assertf("counters drifted: len=%d (scanned %d) set=%d (scanned %d)",
			t.len, live, t.set, set)
	}
	return nil
}

// nextPowOf2 calculates the smallest power of 2 that is greater than or equal to n.
// Compatible with both 32-bit and 64-bit systems.
func nextPowOf2(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

const (
	fnvOffset64 = 14695981039346656037
	fnvPrime64  = 1099511628211
)

// fnv64a hashes the low size bytes of w, least significant first, with
// 64-bit FNV-1a.
//
//go:nosplit
func fnv64a(w uint64, size uintptr) uint64 {
	h := uint64(fnvOffset64)
	for i := uintptr(0); i < size; i++ {
		h ^= w & 0xff
		h *= fnvPrime64
		w >>= 8
	}
	return h
}

// HashUint64 is the default key hash of HashCache: 64-bit FNV-1a over the
// eight little-endian bytes of k.
func HashUint64(k uint64) uint64 { return fnv64a(k, 8) }

// defaultKeyHash picks FNV-1a for integer and string keys. Other key types
// must supply their own hash.
func defaultKeyHash[K comparable]() func(K) uint64 {
	var zero K
	switch any(zero).(type) {
	case uint64, int64, uint, int, uintptr, uint32, int32, uint16, int16, uint8, int8:
		size := unsafe.Sizeof(zero)
		switch size {
		case 8:
			return func(k K) uint64 { return fnv64a(*(*uint64)(unsafe.Pointer(&k)), 8) }
		case 4:
			return func(k K) uint64 { return fnv64a(uint64(*(*uint32)(unsafe.Pointer(&k))), 4) }
		case 2:
			return func(k K) uint64 { return fnv64a(uint64(*(*uint16)(unsafe.Pointer(&k))), 2) }
		default:
			return func(k K) uint64 { return fnv64a(uint64(*(*uint8)(unsafe.Pointer(&k))), 1) }
		}
	case string:
		return func(k K) uint64 {
			s := *(*string)(unsafe.Pointer(&k))
			h := uint64(fnvOffset64)
			for i := 0; i < len(s); i++ {
				h ^= uint64(s[i])
				h *= fnvPrime64
			}
			return h
		}
	default:
		return func(K) uint64 {
			panic(assertf("dense table: no default hash for key type %T", zero))
		}
	}
}

// noCopy may be added to structs which must not be copied
// after the first use. See https://golang.org/issues/8005#issuecomment-190753527
type noCopy struct{}

// Lock is a no-op used by -copylocks checker from `go vet`.
func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
