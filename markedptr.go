package prefixcache

import (
	"fmt"
	"math"
)

const (
	markLeafBit uint64 = 1

	markIndexShift        = 1
	markIndexBits         = 32
	markIndexMask  uint64 = (1<<markIndexBits - 1) << markIndexShift

	markGenShift        = markIndexShift + markIndexBits
	markGenBits         = 64 - markGenShift
	markGenMask  uint64 = (1<<markGenBits - 1) << markGenShift

	// markTombstone is never produced by NewLeaf or NewInternal: its index
	// field decodes to MaxArenaSlots, which no arena hands out.
	markTombstone uint64 = math.MaxUint64
)

const (
	// MaxArenaSlots is the reserved slot index. Valid references address
	// slots [0, MaxArenaSlots).
	MaxArenaSlots = 1<<markIndexBits - 2
	// MaxGeneration is the largest generation a reference can carry.
	MaxGeneration = 1<<markGenBits - 1
)

// MarkedPtr is a non-owning, nullable reference to a tree node. It is either
// Null, a leaf reference or an internal node reference, and names the node
// by arena slot and slot generation rather than by address, so holding one
// never keeps the node alive.
//
// Two references are equal (==) iff tag, slot and generation agree.
// The zero value is Null.
type MarkedPtr[T any] struct {
	_    [0]*T
	bits uint64
}

// Null returns the null reference.
func Null[T any]() MarkedPtr[T] { return MarkedPtr[T]{} }

// NewLeaf returns a leaf reference to slot index at generation gen.
func NewLeaf[T any](index, gen uint32) MarkedPtr[T] {
	return MarkedPtr[T]{bits: encodeMark(index, gen) | markLeafBit}
}

// NewInternal returns an internal node reference to slot index at
// generation gen.
func NewInternal[T any](index, gen uint32) MarkedPtr[T] {
	return MarkedPtr[T]{bits: encodeMark(index, gen)}
}

func encodeMark(index, gen uint32) uint64 {
	if index >= MaxArenaSlots {
		panic(assertf("slot index %d out of range", index))
	}
	if gen > MaxGeneration {
		panic(assertf("generation %d out of range", gen))
	}
	return (uint64(index)+1)<<markIndexShift | uint64(gen)<<markGenShift
}

//go:nosplit
func (p MarkedPtr[T]) IsNull() bool { return p.bits == 0 }

//go:nosplit
func (p MarkedPtr[T]) IsLeaf() bool { return !p.isTombstone() && p.bits&markLeafBit != 0 }

//go:nosplit
func (p MarkedPtr[T]) IsInternal() bool {
	return p.bits != 0 && !p.isTombstone() && p.bits&markLeafBit == 0
}

//go:nosplit
func (p MarkedPtr[T]) isTombstone() bool { return p.bits == markTombstone }

// Index returns the arena slot addressed by p. It must not be called on a
// null reference.
func (p MarkedPtr[T]) Index() uint32 {
	return uint32((p.bits&markIndexMask)>>markIndexShift) - 1
}

// Generation returns the slot generation recorded in p.
func (p MarkedPtr[T]) Generation() uint32 {
	return uint32((p.bits & markGenMask) >> markGenShift)
}

// Bits returns the raw encoded word.
func (p MarkedPtr[T]) Bits() uint64 { return p.bits }

func (p MarkedPtr[T]) String() string {
	switch {
	case p.IsNull():
		return "null"
	case p.isTombstone():
		return "tombstone"
	case p.IsLeaf():
		return fmt.Sprintf("leaf(%d@%d)", p.Index(), p.Generation())
	default:
		return fmt.Sprintf("internal(%d@%d)", p.Index(), p.Generation())
	}
}
