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

// Package ringstat helps property tests check the ring's "no loss, no
// duplication" invariant (spec.md §8) in O(1) space instead of
// materializing the full producer and consumer multisets. A Checksum
// accumulates an order-independent digest over a stream of items; two
// Checksums built from the same multiset, fed in any order and split any
// way across goroutines, compare equal.
package ringstat

import (
	"sync/atomic"
	"unsafe"
)

const (
	fnvOffset64 = uint64(14695981039346656037)
	fnvPrime64  = uint64(1099511628211)
)

// fold computes a fast, non-cross-platform FNV-1a variant over b, eight
// bytes per round. The result is never stored or compared across
// processes, only used in-memory as a cheap multiset fingerprint, so the
// per-arch variance that rules out a portable hash here doesn't matter.
func fold(b []byte) uint64 {
	h := fnvOffset64
	n := len(b)
	i := 0
	for m := n &^ 7; i < m; i += 8 {
		h ^= *(*uint64)(unsafe.Pointer(&b[i]))
		h *= fnvPrime64
	}
	for ; i < n; i++ {
		h ^= uint64(b[i])
		h *= fnvPrime64
	}
	return h
}

// Checksum accumulates a commutative digest: addition over individual
// item hashes, which, unlike XOR, does not let two equal-quantity
// loss/duplication pairs cancel each other out. It is safe for concurrent
// use by multiple goroutines.
type Checksum struct {
	sum   uint64
	count uint64
}

// AddBytes folds b's hash into the checksum.
func (c *Checksum) AddBytes(b []byte) {
	atomic.AddUint64(&c.sum, fold(b))
	atomic.AddUint64(&c.count, 1)
}

// AddString folds s's hash into the checksum.
func (c *Checksum) AddString(s string) {
	c.AddBytes([]byte(s))
}

// Count returns the number of items folded into the checksum so far.
func (c *Checksum) Count() uint64 {
	return atomic.LoadUint64(&c.count)
}

// Equal reports whether c and other were built from equal multisets, up
// to hash collision. Two checksums with a different Count are never equal.
func (c *Checksum) Equal(other *Checksum) bool {
	return atomic.LoadUint64(&c.sum) == atomic.LoadUint64(&other.sum) &&
		c.Count() == other.Count()
}

// Add folds item's raw memory representation into c. T should be a plain,
// pointer-free value (the same Word-like shape a ring's payload handles
// have); it is hashed by its bit pattern, not by any notion of equality.
func Add[T any](c *Checksum, item T) {
	p := unsafe.Pointer(&item)
	b := unsafe.Slice((*byte)(p), unsafe.Sizeof(item))
	c.AddBytes(b)
}
