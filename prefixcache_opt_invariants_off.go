//go:build !prefixcache_opt_invariants && !race

package prefixcache

const invariantsEnabled = false
