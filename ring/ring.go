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

import "fmt"

// Ring is a bounded, lock-free, multi-producer/multi-consumer FIFO queue of
// pointer-width payload handles of type T. A Ring must be built with New (or
// Init) and is safe for concurrent use by multiple goroutines on each side,
// subject to the single/multi mode each side was constructed with.
//
// The zero Ring is not usable; always construct through New or Init.
type Ring[T any] struct {
	flags    Flags
	size     uint32
	mask     uint32
	capacity uint32

	prod cursor
	cons cursor

	slots []T
}

// MemSize reports the byte size a Ring[T] built from (count, flags) would
// occupy, per the same validation computeSizing applies in New/Init. It
// fails with ErrInvalidSize under exactly the same conditions New does,
// so a caller sizing an external allocation ahead of construction will
// never disagree with New about whether count is acceptable.
func MemSize[T any](count uint32, flags Flags) (uintptr, error) {
	s, err := computeSizing(count, flags)
	if err != nil {
		return 0, err
	}
	return memSize[T](s), nil
}

// Init validates (count, flags) and resets r to a freshly constructed,
// empty ring in place: size/mask/capacity/flags are set, both cursor
// blocks are zeroed, and prod.single/cons.single are set from SPEnq/SCDeq.
// Init allocates r.slots itself, sized to the power-of-two size it
// computes; New calls Init on a freshly allocated Ring.
func Init[T any](r *Ring[T], count uint32, flags Flags) error {
	s, err := computeSizing(count, flags)
	if err != nil {
		return fmt.Errorf("ring: Init(count=%d, flags=%v): %w", count, flags, err)
	}
	r.flags = flags
	r.size = s.size
	r.mask = s.size - 1
	r.capacity = s.capacity
	r.prod = cursor{single: flags.spEnq()}
	r.cons = cursor{single: flags.scDeq()}
	r.slots = make([]T, s.size)
	return nil
}

// New constructs a Ring[T] sized per (count, flags). Without ExactSize,
// count must be a power of two in [2, RingSizeMask]; with ExactSize,
// count is the exact usable capacity and storage is rounded up internally.
// A validation failure is logged through the configured Logger (default:
// the standard log package) and returned wrapping ErrInvalidSize.
func New[T any](count uint32, flags Flags, opts ...Option[T]) (*Ring[T], error) {
	cfg := newConfig[T](opts)
	r := &Ring[T]{}
	if err := Init(r, count, flags); err != nil {
		cfg.logger.Errorf("ring: construction failed: %v", err)
		return nil, err
	}
	return r, nil
}

// Close releases r's backing storage. After Close, r must not be used by
// any goroutine; quiescence (no concurrent enqueuer/dequeuer) is the
// caller's responsibility, matching the ring's non-blocking, non-owning
// lifecycle contract.
func (r *Ring[T]) Close() {
	var zero T
	for i := range r.slots {
		r.slots[i] = zero
	}
	r.slots = nil
}

// Capacity returns the maximum number of entries the ring may hold
// simultaneously.
func (r *Ring[T]) Capacity() uint32 {
	return r.capacity
}

// Count returns the current number of occupied slots. Like FreeCount,
// Full, and Empty, this is a snapshot: its truth is immediately stale
// under concurrent access.
func (r *Ring[T]) Count() uint32 {
	prodTail := loadFence(&r.prod.tail)
	consTail := loadFence(&r.cons.tail)
	c := uint32(int32(prodTail - consTail))
	if c > r.capacity {
		c = r.capacity
	}
	return c
}

// FreeCount returns the number of slots currently available for
// enqueueing.
func (r *Ring[T]) FreeCount() uint32 {
	return r.capacity - r.Count()
}

// Full reports whether the ring currently has no free slots.
func (r *Ring[T]) Full() bool {
	return r.FreeCount() == 0
}

// Empty reports whether the ring currently holds no entries.
func (r *Ring[T]) Empty() bool {
	return r.Count() == 0
}
