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

package ring

import (
	"fmt"
	"unsafe"

	"github.com/go-ring/ringkit/ringalloc"
)

// Word is the set of pointer-width, pointer-free scalar types eligible for
// arena-backed slot storage via NewArena. Excluding real Go pointers and
// interfaces keeps the arena's raw byte backing store safe for the garbage
// collector to ignore: nothing in it is ever a live reference it must scan.
type Word interface {
	~int32 | ~uint32 | ~int64 | ~uint64 | ~uintptr
}

// ArenaRing is a Ring[T] whose slot storage was carved out of an
// ringalloc.Allocator arena instead of a plain Go-managed slice. Close
// returns that storage to the allocator it came from.
type ArenaRing[T Word] struct {
	Ring[T]
	alloc ringalloc.Allocator
	block []byte
}

// NewArena constructs a Ring[T] whose slot array lives in memory obtained
// from alloc instead of a runtime-managed slice, exercising the allocator
// contract spec.md §4.C describes ("an external allocator that returns
// zeroable, suitably aligned memory") for the dominant part of a ring's
// footprint. The cursor header stays ordinary Go-allocated memory so the
// atomic operations in cursor.go keep the alignment guarantees the Go
// runtime already provides for heap values.
func NewArena[T Word](count uint32, flags Flags, alloc ringalloc.Allocator, opts ...Option[T]) (*ArenaRing[T], error) {
	cfg := newConfig[T](opts)

	s, err := computeSizing(count, flags)
	if err != nil {
		err = fmt.Errorf("ring: NewArena(count=%d, flags=%v): %w", count, flags, err)
		cfg.logger.Errorf("ring: construction failed: %v", err)
		return nil, err
	}

	slotBytes := int(uintptr(s.size) * slotSize[T]())
	block, err := alloc.Alloc(slotBytes)
	if err != nil {
		err = fmt.Errorf("ring: NewArena: allocator failed for %d bytes: %w", slotBytes, err)
		cfg.logger.Errorf("ring: construction failed: %v", err)
		return nil, err
	}

	ar := &ArenaRing[T]{alloc: alloc, block: block}
	ar.flags = flags
	ar.size = s.size
	ar.mask = s.size - 1
	ar.capacity = s.capacity
	ar.prod = cursor{single: flags.spEnq()}
	ar.cons = cursor{single: flags.scDeq()}
	ar.slots = unsafe.Slice((*T)(unsafe.Pointer(&block[0])), s.size)
	return ar, nil
}

// Close releases the arena block back to the allocator it came from.
func (ar *ArenaRing[T]) Close() {
	ar.slots = nil
	ar.alloc.Free(ar.block)
	ar.block = nil
}
