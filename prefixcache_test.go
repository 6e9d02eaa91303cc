package prefixcache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNullCache(t *testing.T) {
	c := NewNullCache[testNode]()
	require.False(t, c.Enabled())
	require.False(t, c.Complete())

	p := NewLeaf[testNode](1, 0)
	c.Insert([]byte("k"), p)
	_, ok := c.Lookup([]byte("k"))
	require.False(t, ok)

	old, ok := c.Replace([]byte("k"), p)
	require.False(t, ok)
	require.True(t, old.IsNull())
	require.NotPanics(t, func() { c.DebugAssertUnreachable(p) })
}

// toyIndex is the smallest caller of the contract: a flat "tree" of leaves
// held in an arena, with the cache short-circuiting lookups by prefix the
// way an ART would short-circuit its descent.
type toyIndex[C PrefixCache[testNode]] struct {
	arena  Arena[testNode]
	leaves map[uint64]MarkedPtr[testNode]
	cache  C
	walks  int
}

func newToyIndex[C PrefixCache[testNode]](cache C) *toyIndex[C] {
	return &toyIndex[C]{leaves: map[uint64]MarkedPtr[testNode]{}, cache: cache}
}

func (x *toyIndex[C]) insert(k uint64) {
	p := x.arena.AllocLeaf(testNode{key: k})
	if old, ok := x.leaves[k]; ok {
		if x.cache.Enabled() {
			x.cache.Insert(prefixOf(k), Null[testNode]())
			x.cache.DebugAssertUnreachable(old)
		}
		x.arena.Free(old)
	}
	x.leaves[k] = p
	if x.cache.Enabled() {
		x.cache.Insert(prefixOf(k), p)
	}
}

func (x *toyIndex[C]) remove(k uint64) bool {
	p, ok := x.leaves[k]
	if !ok {
		return false
	}
	if x.cache.Enabled() {
		prev, hit := x.cache.Replace(prefixOf(k), Null[testNode]())
		if hit && prev != p {
			panic("cache held a reference the index did not")
		}
	}
	delete(x.leaves, k)
	return x.arena.Free(p)
}

func (x *toyIndex[C]) contains(k uint64) bool {
	if x.cache.Enabled() {
		if p, ok := x.cache.Lookup(prefixOf(k)); ok {
			n, live := x.arena.Get(p)
			return live && n.key == k
		}
		if x.cache.Complete() {
			return false
		}
	}
	x.walks++
	_, ok := x.leaves[k]
	return ok
}

func testToyIndex[C PrefixCache[testNode]](t *testing.T, x *toyIndex[C]) {
	for k := uint64(0); k < 500; k++ {
		x.insert(k * 3)
	}
	for k := uint64(0); k < 500; k += 5 {
		x.insert(k * 3) // reinsert replaces the leaf node
	}
	for k := uint64(0); k < 500; k += 2 {
		require.True(t, x.remove(k*3))
	}
	for k := uint64(0); k < 1500; k++ {
		want := k%3 == 0 && (k/3)%2 == 1
		require.Equal(t, want, x.contains(k), "key %d", k)
	}
}

func TestPrefixCache_Contract(t *testing.T) {
	t.Run("hash", func(t *testing.T) {
		x := newToyIndex(NewHashCache[testNode]())
		testToyIndex(t, x)
		require.Zero(t, x.walks, "a complete cache answers every lookup")
		require.Equal(t, 250, x.cache.Len())
		require.NoError(t, x.cache.Verify())
	})
	t.Run("null", func(t *testing.T) {
		x := newToyIndex(NewNullCache[testNode]())
		testToyIndex(t, x)
		require.Equal(t, 1500, x.walks)
	})
}
