package prefixcache_test

import (
	"fmt"

	"github.com/llxisdsh/prefixcache"
)

type node struct {
	key string
}

func Example() {
	var arena prefixcache.Arena[node]
	cache := prefixcache.NewHashCache[node](prefixcache.WithReclaimCheck(&arena))

	leaf := arena.AllocLeaf(node{key: "radix"})
	cache.Insert([]byte("radix"), leaf)

	if ref, ok := cache.Lookup([]byte("radix")); ok {
		n, _ := arena.Get(ref)
		fmt.Println("hit:", n.key, ref)
	}

	// invalidate before freeing, so the slot can be reused safely
	cache.Insert([]byte("radix"), prefixcache.Null[node]())
	arena.Free(leaf)

	_, ok := cache.Lookup([]byte("radix"))
	fmt.Println("cached after free:", ok)
	// Output:
	// hit: radix leaf(0@0)
	// cached after free: false
}
