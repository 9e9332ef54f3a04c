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
	"sync"
	"unsafe"
)

const (
	poolFooterLen = 8

	poolFooterMagicMask = uint64(0xFFFFFFFFFFFFFFC0)
	poolFooterIndexMask = uint64(0x000000000000003F)
	poolFooterMagic     = uint64(0xBADC0DEBADC0DEC0)
)

// PoolAllocator is a size-classed sync.Pool allocator: each power-of-two
// size class above minBlockSize gets its own sync.Pool, so repeated
// construction/destruction of similarly sized rings reuses memory instead
// of round-tripping through the runtime allocator every time. Unlike
// BitmapAllocator and BuddyAllocator it has no single fixed arena and no
// Available/Reset notion of total capacity: it borrows from (and returns
// to) the Go heap via its pools, bounded only by how much the process
// lets sync.Pool retain.
//
// A block's class is tagged in a footer at the end of its capacity. Free
// finds the block through its start and capacity, so a block resliced only
// in length (b[:n]) is accepted, while one resliced at the front (b[i:])
// panics.
type PoolAllocator struct {
	mu           sync.Mutex
	pools        []*sync.Pool
	classOf      map[int]int
	minBlockSize int
	maxBlockSize int
}

var _ Allocator = (*PoolAllocator)(nil)

// NewPoolAllocator builds a PoolAllocator with size classes doubling from
// minBlockSize up to and including maxBlockSize, both of which must be
// powers of two with minBlockSize > poolFooterLen.
func NewPoolAllocator(minBlockSize, maxBlockSize int) (*PoolAllocator, error) {
	if minBlockSize <= poolFooterLen || minBlockSize&(minBlockSize-1) != 0 {
		return nil, fmt.Errorf("ringalloc: minBlockSize must be a power of two > %d, got %d", poolFooterLen, minBlockSize)
	}
	if maxBlockSize < minBlockSize || maxBlockSize&(maxBlockSize-1) != 0 {
		return nil, fmt.Errorf("ringalloc: maxBlockSize must be a power of two >= minBlockSize, got %d", maxBlockSize)
	}

	a := &PoolAllocator{
		minBlockSize: minBlockSize,
		maxBlockSize: maxBlockSize,
		classOf:      make(map[int]int),
	}
	idx := 0
	for sz := minBlockSize; sz <= maxBlockSize; sz <<= 1 {
		size := sz
		a.pools = append(a.pools, &sync.Pool{
			New: func() interface{} {
				b := make([]byte, size)
				return &b[0]
			},
		})
		a.classOf[bits.Len(uint(size))] = idx
		idx++
	}
	return a, nil
}

func (a *PoolAllocator) classFor(total int) (int, bool) {
	if total <= a.minBlockSize {
		return 0, true
	}
	i, ok := a.classOf[bits.Len(uint(total))]
	if !ok {
		return 0, false
	}
	if total&(total-1) != 0 {
		i++
		if i >= len(a.pools) {
			return 0, false
		}
	}
	return i, true
}

// Alloc returns a zeroed block of at least size bytes from the matching
// size class.
func (a *PoolAllocator) Alloc(size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("ringalloc: invalid size %d", size)
	}
	total := size + poolFooterLen
	class, ok := a.classFor(total)
	if !ok {
		return nil, ErrOutOfMemory
	}

	a.mu.Lock()
	pool := a.pools[class]
	a.mu.Unlock()

	classSize := a.minBlockSize << class
	p := pool.Get().(*byte)
	block := unsafe.Slice(p, classSize)
	for i := range block {
		block[i] = 0
	}
	*(*uint64)(unsafe.Add(unsafe.Pointer(p), classSize-poolFooterLen)) = poolFooterMagic | uint64(class)
	return block[:size], nil
}

// Free returns block to the pool it was allocated from. Panics if block
// was not returned by this allocator's Alloc or has already been freed.
func (a *PoolAllocator) Free(block []byte) {
	c := cap(block)
	if c == 0 {
		return
	}
	if c&(c-1) != 0 || c < a.minBlockSize {
		panic("ringalloc: block not allocated by this pool")
	}
	footer := *(*uint64)(unsafe.Add(unsafe.Pointer(&block[:c][0]), c-poolFooterLen))
	if footer&poolFooterMagicMask != poolFooterMagic {
		panic("ringalloc: double free or invalid block")
	}
	class := int(footer & poolFooterIndexMask)
	if class < 0 || class >= len(a.pools) || a.minBlockSize<<class != c {
		panic("ringalloc: corrupted footer")
	}

	*(*uint64)(unsafe.Add(unsafe.Pointer(&block[:c][0]), c-poolFooterLen)) = 0

	a.mu.Lock()
	pool := a.pools[class]
	a.mu.Unlock()
	pool.Put(&block[:c][0])
}
