package prefixcache

// Arena owns tree nodes and hands out generation-checked MarkedPtr
// references to them. Freeing a node bumps its slot generation, so every
// reference taken before the free stops resolving, even after the slot is
// reused for another node. A slot whose generation would overflow is
// retired instead of being reused.
//
// The zero value is an empty arena ready to use. An Arena is not safe for
// concurrent use.
type Arena[T any] struct {
	_     noCopy
	slots []arenaSlot[T]
	free  []uint32
	live  int
}

type arenaSlot[T any] struct {
	val  T
	gen  uint32
	used bool
}

// NewArena creates an arena with room for sizeHint nodes before its slot
// slice grows.
func NewArena[T any](sizeHint int) *Arena[T] {
	a := &Arena[T]{}
	if sizeHint > 0 {
		a.slots = make([]arenaSlot[T], 0, sizeHint)
	}
	return a
}

// AllocLeaf stores v in a free slot and returns a leaf reference to it.
func (a *Arena[T]) AllocLeaf(v T) MarkedPtr[T] {
	idx, gen := a.alloc(v)
	return NewLeaf[T](idx, gen)
}

// AllocInternal stores v in a free slot and returns an internal node
// reference to it.
func (a *Arena[T]) AllocInternal(v T) MarkedPtr[T] {
	idx, gen := a.alloc(v)
	return NewInternal[T](idx, gen)
}

func (a *Arena[T]) alloc(v T) (index, gen uint32) {
	if n := len(a.free); n > 0 {
		index = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		if uint64(len(a.slots)) >= MaxArenaSlots {
			panic(assertf("arena exhausted: %d slots in use", len(a.slots)))
		}
		index = uint32(len(a.slots))
		a.slots = append(a.slots, arenaSlot[T]{})
	}
	s := &a.slots[index]
	s.val = v
	s.used = true
	a.live++
	return index, s.gen
}

func (a *Arena[T]) slot(ref MarkedPtr[T]) *arenaSlot[T] {
	if ref.IsNull() || ref.isTombstone() {
		return nil
	}
	idx := ref.Index()
	if uint64(idx) >= uint64(len(a.slots)) {
		return nil
	}
	s := &a.slots[idx]
	if !s.used || s.gen != ref.Generation() {
		return nil
	}
	return s
}

// Get returns the node ref points at. It fails for null references and for
// references whose node has been freed, even if the slot was reused.
func (a *Arena[T]) Get(ref MarkedPtr[T]) (*T, bool) {
	s := a.slot(ref)
	if s == nil {
		return nil, false
	}
	return &s.val, true
}

// Free releases the node ref points at and invalidates every outstanding
// reference to it. It returns false if ref does not resolve to a live node.
func (a *Arena[T]) Free(ref MarkedPtr[T]) bool {
	s := a.slot(ref)
	if s == nil {
		return false
	}
	var zero T
	s.val = zero
	s.used = false
	a.live--
	if s.gen == MaxGeneration {
		// retired: no further generation could tell old references apart
		return true
	}
	s.gen++
	a.free = append(a.free, ref.Index())
	return true
}

// Reclaimed reports whether the node at slot index, generation gen, has
// been freed. It implements ReclaimChecker.
func (a *Arena[T]) Reclaimed(index, gen uint32) bool {
	if uint64(index) >= uint64(len(a.slots)) {
		return true
	}
	s := &a.slots[index]
	return !s.used || s.gen != gen
}

// Len returns the number of live nodes.
func (a *Arena[T]) Len() int { return a.live }

// Cap returns the number of slots ever allocated, retired ones included.
func (a *Arena[T]) Cap() int { return len(a.slots) }
