package store

import "iter"

const blockSize = 64

// pool stores values in fixed size blocks. Pointers returned by Get stay
// valid until the slot is deleted, and deleted slots are reused before the
// pool grows.
type pool[T any] struct {
	blocks    []*[blockSize]T
	filled    []*[blockSize]bool
	freeSlots []int
	nextIndex int
	count     int
}

// Append stores v and returns its slot.
func (p *pool[T]) Append(v T) int {
	var index int
	if len(p.freeSlots) > 0 {
		index = p.freeSlots[len(p.freeSlots)-1]
		p.freeSlots = p.freeSlots[:len(p.freeSlots)-1]
	} else {
		index = p.nextIndex
		p.nextIndex++
		if index/blockSize >= len(p.blocks) {
			p.blocks = append(p.blocks, new([blockSize]T))
			p.filled = append(p.filled, new([blockSize]bool))
		}
	}

	blockIdx := index / blockSize
	slotIdx := index % blockSize
	p.blocks[blockIdx][slotIdx] = v
	p.filled[blockIdx][slotIdx] = true
	p.count++
	return index
}

// Get returns the value in slot index, or nil if the slot is empty.
func (p *pool[T]) Get(index int) *T {
	if !p.Has(index) {
		return nil
	}
	return &p.blocks[index/blockSize][index%blockSize]
}

func (p *pool[T]) Has(index int) bool {
	if index < 0 || index/blockSize >= len(p.blocks) {
		return false
	}
	return p.filled[index/blockSize][index%blockSize]
}

// Delete empties a slot. It reports whether the slot held a value.
func (p *pool[T]) Delete(index int) bool {
	if !p.Has(index) {
		return false
	}

	blockIdx := index / blockSize
	slotIdx := index % blockSize
	var zero T
	p.blocks[blockIdx][slotIdx] = zero
	p.filled[blockIdx][slotIdx] = false
	p.freeSlots = append(p.freeSlots, index)
	p.count--
	return true
}

func (p *pool[T]) Len() int {
	return p.count
}

// Reset drops every value but keeps the first block allocated.
func (p *pool[T]) Reset() {
	if len(p.blocks) > 1 {
		p.blocks = p.blocks[:1]
		p.filled = p.filled[:1]
	}
	for i := range p.blocks {
		*p.blocks[i] = [blockSize]T{}
		*p.filled[i] = [blockSize]bool{}
	}
	p.freeSlots = p.freeSlots[:0]
	p.nextIndex = 0
	p.count = 0
}

// Iter yields occupied slots in ascending order.
func (p *pool[T]) Iter() iter.Seq[int] {
	return func(yield func(int) bool) {
		for i := 0; i < p.nextIndex; i++ {
			if p.filled[i/blockSize][i%blockSize] {
				if !yield(i) {
					return
				}
			}
		}
	}
}
