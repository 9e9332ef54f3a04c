/*
 * Copyright 2025 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package ringalloc

import (
	"fmt"
	"math/bits"
	"unsafe"
)

const (
	buddyHeaderSize = 8
	buddyMagic      uint32 = 0xBADF00D

	// DefaultMinBlockSize is the default minimum block size (8KB).
	DefaultMinBlockSize = 8 * 1024
	// DefaultMaxBlockSize is the default maximum block size (512KB).
	DefaultMaxBlockSize = 512 * 1024
)

// BuddyAllocator is a power-of-two buddy allocator over one fixed arena.
// A ring's slot array is power-of-two sized by construction, but each block
// also carries an 8-byte header, so such a request lands one order above its
// own size: the block is twice the slot array, or minBlockSize if that is
// larger. Close gives the block straight back to its free list.
type BuddyAllocator struct {
	arena      []byte
	arenaStart unsafe.Pointer

	// freeLists[i] holds offsets of free blocks of order i (size minBlockSize<<i).
	freeLists [][]int

	needsCoalesce bool

	minBlockSize  int
	minBlockShift int
	maxBlockSize  int
	maxBlockOrder int
}

var _ Allocator = (*BuddyAllocator)(nil)

// NewBuddyAllocator creates a buddy allocator with default block sizes
// (8KB min, 512KB max) over a freshly made arena of the given size, which
// must be a multiple of DefaultMaxBlockSize.
func NewBuddyAllocator(arenaSize int) (*BuddyAllocator, error) {
	return NewBuddyAllocatorWithBlockSize(make([]byte, arenaSize), DefaultMinBlockSize, DefaultMaxBlockSize)
}

// NewBuddyAllocatorWithBlockSize creates a buddy allocator with custom block sizes.
// Both minBlock and maxBlock must be powers of two, minBlock <= maxBlock,
// and len(arena) must be a multiple of maxBlock.
func NewBuddyAllocatorWithBlockSize(arena []byte, minBlock, maxBlock int) (*BuddyAllocator, error) {
	if minBlock <= 0 || (minBlock&(minBlock-1)) != 0 {
		return nil, fmt.Errorf("ringalloc: minBlockSize must be a power of two, got %d", minBlock)
	}
	if maxBlock <= 0 || (maxBlock&(maxBlock-1)) != 0 {
		return nil, fmt.Errorf("ringalloc: maxBlockSize must be a power of two, got %d", maxBlock)
	}
	if minBlock > maxBlock {
		return nil, fmt.Errorf("ringalloc: minBlockSize (%d) must be <= maxBlockSize (%d)", minBlock, maxBlock)
	}
	if minBlock <= buddyHeaderSize {
		return nil, fmt.Errorf("ringalloc: minBlockSize must be > header size (%d), got %d", buddyHeaderSize, minBlock)
	}

	totalSize := len(arena)
	if totalSize < maxBlock || totalSize%maxBlock != 0 {
		return nil, fmt.Errorf("ringalloc: arena size must be a multiple of %d bytes and >= %d, got %d",
			maxBlock, maxBlock, totalSize)
	}

	minShift := bits.TrailingZeros(uint(minBlock))
	maxShift := bits.TrailingZeros(uint(maxBlock))
	maxOrder := maxShift - minShift
	numRootBlocks := totalSize / maxBlock

	a := &BuddyAllocator{
		arena:         arena,
		arenaStart:    unsafe.Pointer(&arena[0]),
		minBlockSize:  minBlock,
		minBlockShift: minShift,
		maxBlockSize:  maxBlock,
		maxBlockOrder: maxOrder,
		freeLists:     make([][]int, maxOrder+1),
	}

	for i := 0; i <= maxOrder; i++ {
		a.freeLists[i] = make([]int, 0, numRootBlocks)
	}
	for i := 0; i < numRootBlocks; i++ {
		a.freeLists[maxOrder] = append(a.freeLists[maxOrder], i*maxBlock)
	}

	return a, nil
}

// Alloc allocates a zeroed block of memory of at least size bytes.
func (a *BuddyAllocator) Alloc(size int) ([]byte, error) {
	if size <= 0 || size > a.maxBlockSize-buddyHeaderSize {
		return nil, fmt.Errorf("ringalloc: invalid size %d", size)
	}
	order := a.getOrderForSize(size + buddyHeaderSize)

	if freeList := a.freeLists[order]; len(freeList) > 0 {
		n := len(freeList) - 1
		offset := freeList[n]
		a.freeLists[order] = freeList[:n]
		return a.commit(offset, order, size), nil
	}
	return a.allocSlow(size, order)
}

func (a *BuddyAllocator) allocSlow(size, order int) ([]byte, error) {
	foundOrder := -1
	for o := order + 1; o <= a.maxBlockOrder; o++ {
		if len(a.freeLists[o]) > 0 {
			foundOrder = o
			break
		}
	}

	if foundOrder == -1 {
		if !a.needsCoalesce {
			return nil, ErrOutOfMemory
		}
		foundOrder = a.coalesceUntil(order)
		if foundOrder == -1 {
			a.needsCoalesce = false
			return nil, ErrOutOfMemory
		}
	}

	freeList := a.freeLists[foundOrder]
	n := len(freeList) - 1
	offset := freeList[n]
	a.freeLists[foundOrder] = freeList[:n]

	// Split until we reach required order: the left half keeps the
	// original offset, the right half goes onto the next lower order's list.
	for foundOrder > order {
		foundOrder--
		right := offset + (a.minBlockSize << foundOrder)
		a.freeLists[foundOrder] = append(a.freeLists[foundOrder], right)
	}

	return a.commit(offset, order, size), nil
}

func (a *BuddyAllocator) commit(offset, order, size int) []byte {
	ptr := unsafe.Add(a.arenaStart, offset)
	blockSize := a.minBlockSize << order
	block := unsafe.Slice((*byte)(ptr), blockSize)
	for i := range block {
		block[i] = 0
	}
	*(*uint32)(ptr) = buddyMagic
	*(*uint32)(unsafe.Add(ptr, 4)) = uint32(size)
	return unsafe.Slice((*byte)(unsafe.Add(ptr, buddyHeaderSize)), blockSize-buddyHeaderSize)[:size]
}

// Free returns a block to the allocator. Panics if the block doesn't
// belong to this allocator or was already freed.
//
// The block must be the exact slice returned by Alloc: reslicing before
// calling Free corrupts the offset calculation.
func (a *BuddyAllocator) Free(block []byte) {
	size := cap(block)
	if size == 0 {
		return
	}
	if size > a.maxBlockSize {
		panic("ringalloc: invalid block size")
	}
	dataPtr := *(*uintptr)(unsafe.Pointer(&block))
	offset := int(dataPtr-uintptr(a.arenaStart)) - buddyHeaderSize
	if offset < 0 || offset >= len(a.arena) {
		panic("ringalloc: block not in arena")
	}

	headerPtr := unsafe.Add(a.arenaStart, offset)
	magicPtr := (*uint32)(headerPtr)
	if *magicPtr != buddyMagic {
		panic("ringalloc: double free or invalid block")
	}

	storedSize := *(*uint32)(unsafe.Add(headerPtr, 4))
	if int(storedSize) > size {
		panic("ringalloc: corrupted size")
	}

	totalBlockSize := size + buddyHeaderSize
	order := a.getOrderForSize(totalBlockSize)
	if offset&(totalBlockSize-1) != 0 {
		panic("ringalloc: misaligned block")
	}

	*magicPtr = 0
	a.freeLists[order] = append(a.freeLists[order], offset)
	if order < a.maxBlockOrder {
		a.needsCoalesce = true
	}
}

// Available returns the total free bytes available for allocation.
func (a *BuddyAllocator) Available() int {
	total := 0
	for order, freeList := range a.freeLists {
		blockSize := a.minBlockSize << order
		total += len(freeList) * (blockSize - buddyHeaderSize)
	}
	return total
}

// coalesceUntil merges adjacent free buddy blocks until a block of at
// least targetOrder is available, returning its order, or -1.
func (a *BuddyAllocator) coalesceUntil(targetOrder int) int {
	for order := 0; order < targetOrder; order++ {
		freeList := a.freeLists[order]
		if len(freeList) < 2 {
			continue
		}
		for i := 1; i < len(freeList); i++ {
			for j := i; j > 0 && freeList[j] < freeList[j-1]; j-- {
				freeList[j], freeList[j-1] = freeList[j-1], freeList[j]
			}
		}

		blockSize := a.minBlockSize << order
		n := 0
		for i := 0; i < len(freeList); {
			offset := freeList[i]
			if i+1 < len(freeList) && freeList[i+1] == offset^blockSize {
				a.freeLists[order+1] = append(a.freeLists[order+1], offset&^blockSize)
				i += 2
			} else {
				freeList[n] = offset
				n++
				i++
			}
		}
		a.freeLists[order] = freeList[:n]
	}

	for o := targetOrder; o <= a.maxBlockOrder; o++ {
		if len(a.freeLists[o]) > 0 {
			return o
		}
	}
	return -1
}

// Reset clears all allocations and returns the allocator to its initial state.
func (a *BuddyAllocator) Reset() {
	for i := 0; i < a.maxBlockOrder; i++ {
		a.freeLists[i] = a.freeLists[i][:0]
	}
	numRoots := len(a.arena) / a.maxBlockSize
	a.freeLists[a.maxBlockOrder] = a.freeLists[a.maxBlockOrder][:0]
	for i := 0; i < numRoots; i++ {
		a.freeLists[a.maxBlockOrder] = append(a.freeLists[a.maxBlockOrder], i*a.maxBlockSize)
	}
	a.needsCoalesce = false
}

func (a *BuddyAllocator) getOrderForSize(size int) int {
	if size <= a.minBlockSize {
		return 0
	}
	return bits.Len(uint(size-1)) - a.minBlockShift
}
