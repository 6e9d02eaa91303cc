package prefixcache

// CacheConfig defines configurable HashCache options.
type CacheConfig struct {
	sizeHint     int
	keyHash      func(uint64) uint64
	countLookups bool
	reclaimed    ReclaimChecker
}

// ReclaimChecker reports whether the node a reference was taken from has
// since been freed. *Arena satisfies it.
type ReclaimChecker interface {
	Reclaimed(index, generation uint32) bool
}

// WithPresize configures a new HashCache with enough buckets to hold
// sizeHint prefixes before the first resize. If sizeHint is zero or
// negative, the value is ignored and the table starts empty.
func WithPresize(sizeHint int) func(*CacheConfig) {
	return func(c *CacheConfig) {
		c.sizeHint = sizeHint
	}
}

// WithKeyHash replaces the default FNV-1a hash of the packed 8-byte prefix.
// The hash must be deterministic; only its low bits select buckets.
func WithKeyHash(keyHash func(key uint64) uint64) func(*CacheConfig) {
	return func(c *CacheConfig) {
		c.keyHash = keyHash
	}
}

// WithStats enables hit/miss counting in Lookup, reported by Stats.
func WithStats() func(*CacheConfig) {
	return func(c *CacheConfig) {
		c.countLookups = true
	}
}

// WithReclaimCheck installs the liveness oracle used, when invariants are
// enabled, to reject lookups that would return a reference to a freed node.
func WithReclaimCheck(r ReclaimChecker) func(*CacheConfig) {
	return func(c *CacheConfig) {
		c.reclaimed = r
	}
}
