package prefixcache

import (
	"fmt"
	"math/rand/v2"
	"testing"
)

// BenchmarkHashCache_Lookup benchmarks hits on a populated cache
func BenchmarkHashCache_Lookup(b *testing.B) {
	sizes := []int{100, 1000, 10000, 100000}

	for _, size := range sizes {
		b.Run(fmt.Sprintf("size_%d", size), func(b *testing.B) {
			c := NewHashCache[testNode]()
			prefixes := make([][]byte, size)
			for i := range prefixes {
				prefixes[i] = prefixOf(rand.Uint64())
				c.Insert(prefixes[i], NewLeaf[testNode](uint32(i), 0))
			}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				c.Lookup(prefixes[i%size])
			}
		})
	}
}

// BenchmarkGoMap_Lookup is the built-in map baseline for
// BenchmarkHashCache_Lookup
func BenchmarkGoMap_Lookup(b *testing.B) {
	sizes := []int{100, 1000, 10000, 100000}

	for _, size := range sizes {
		b.Run(fmt.Sprintf("size_%d", size), func(b *testing.B) {
			m := make(map[uint64]MarkedPtr[testNode])
			prefixes := make([][]byte, size)
			for i := range prefixes {
				prefixes[i] = prefixOf(rand.Uint64())
				m[PrefixKey(prefixes[i])] = NewLeaf[testNode](uint32(i), 0)
			}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = m[PrefixKey(prefixes[i%size])]
			}
		})
	}
}

// BenchmarkHashCache_Churn benchmarks a sliding window of inserts and
// invalidations, which exercises tombstone reuse and compaction
func BenchmarkHashCache_Churn(b *testing.B) {
	const window = 4096
	c := NewHashCache[testNode]()
	prefixes := make([][]byte, window)
	for i := range prefixes {
		prefixes[i] = prefixOf(uint64(i))
		c.Insert(prefixes[i], NewLeaf[testNode](uint32(i), 0))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		slot := i % window
		c.Insert(prefixes[slot], Null[testNode]())
		prefixes[slot] = prefixOf(uint64(i + window))
		c.Insert(prefixes[slot], NewLeaf[testNode](uint32(slot), 0))
	}
}

// BenchmarkNullCache_Lookup measures the disabled path through the interface
func BenchmarkNullCache_Lookup(b *testing.B) {
	var c PrefixCache[testNode] = NewNullCache[testNode]()
	bs := prefixOf(42)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if c.Enabled() {
			c.Lookup(bs)
		}
	}
}
