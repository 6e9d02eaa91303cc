package prefixcache

import (
	"unsafe"

	"golang.org/x/sys/cpu"
)

// CacheLineSize is used to pad the HashCache header so the hot table fields
// do not share a line with the tree structure embedding the cache.
// It's automatically calculated using the `golang.org/x/sys` package.
const CacheLineSize = unsafe.Sizeof(cpu.CacheLinePad{})
