package prefixcache

import (
	"fmt"
	"strings"
)

// TableStats is a snapshot of DenseTable occupancy.
type TableStats struct {
	// Capacity is the number of buckets.
	Capacity int
	// Len is the number of live entries.
	Len int
	// Occupied is the number of non-null buckets, i.e. Len plus Tombstones.
	Occupied int
	// Tombstones is the number of buckets holding a deleted-entry marker.
	Tombstones int
	// Grows is the number of times the bucket array was (re)allocated
	// larger.
	Grows uint32
	// Compactions is the number of in-place rehashes that dropped
	// tombstones without growing.
	Compactions uint32
}

// CacheStats is HashCache statistics.
//
// Warning: cache statistics are intended to be used for diagnostic
// purposes, not for production code.
type CacheStats struct {
	TableStats
	// Hits and Misses count Lookup results. They stay zero unless the
	// cache was created WithStats.
	Hits   uint64
	Misses uint64
}

// HitRatio returns Hits/(Hits+Misses), or 0 before the first counted lookup.
func (s *CacheStats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// ToString returns string representation of cache stats.
func (s *CacheStats) ToString() string {
	var sb strings.Builder
	sb.WriteString("CacheStats{\n")
	sb.WriteString(fmt.Sprintf("Capacity:    %d\n", s.Capacity))
	sb.WriteString(fmt.Sprintf("Len:         %d\n", s.Len))
	sb.WriteString(fmt.Sprintf("Occupied:    %d\n", s.Occupied))
	sb.WriteString(fmt.Sprintf("Tombstones:  %d\n", s.Tombstones))
	sb.WriteString(fmt.Sprintf("Grows:       %d\n", s.Grows))
	sb.WriteString(fmt.Sprintf("Compactions: %d\n", s.Compactions))
	sb.WriteString(fmt.Sprintf("Hits:        %d\n", s.Hits))
	sb.WriteString(fmt.Sprintf("Misses:      %d\n", s.Misses))
	sb.WriteString("}\n")
	return sb.String()
}
