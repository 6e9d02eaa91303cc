//go:build prefixcache_opt_invariants || race

package prefixcache

// invariantsEnabled turns on the consistency assertions: lookups verify that
// a hit does not refer to a reclaimed node, deletions verify that the prefix
// now misses, and DebugAssertUnreachable scans the table.
// Enabled with the prefixcache_opt_invariants build tag or the race detector.
const invariantsEnabled = true
