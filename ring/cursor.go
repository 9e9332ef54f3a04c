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
	"runtime"
	"sync/atomic"
	"unsafe"
)

// cacheLinePad is the assumed CPU cache line size. prod and cons are each
// padded out to this width, so cons's head/tail sit a full cache line after
// prod's and the two sides' counters never share a line. The blocks are not
// aligned to cache-line boundaries: the end of prod's padding and the start
// of cons can fall on the same line.
const cacheLinePad = 64

// cursor is one side (producer or consumer) of a ring: a head/tail pair
// plus the side's dispatch mode. head counts reservations issued on this
// side, tail counts completions published on this side. Both wrap at
// 2^32; distances are computed with int32 two's-complement subtraction.
type cursor struct {
	head   uint32
	tail   uint32
	single bool

	_ [cacheLinePad - 4 - 4 - 1]byte
}

// This assertion fails to compile if cursor's size drifts from a single
// cache line.
var _ [0]byte = [unsafe.Sizeof(cursor{}) - cacheLinePad]byte{}

// moveHeadShared advances head by up to n, capped by availSlack - (head -
// otherTail), using a CAS loop. availSlack is r.capacity for the producer
// side (free = capacity - (prod.head - cons.tail)) and 0 for the consumer
// side (occupied = prod.tail - cons.head = 0 - (cons.head - prod.tail)):
// one formula covers both sides of §4.E's symmetric reserve step. It
// returns the pre-advance head snapshot and the number of slots actually
// reserved. fixed selects all-or-nothing behavior: if the capped amount
// is less than n, it reserves 0 instead of partially reserving.
func (c *cursor) moveHeadShared(n uint32, fixed bool, availSlack uint32, otherTail *uint32) (snapshot uint32, nReserved uint32) {
	for {
		oldHead := atomic.LoadUint32(&c.head)
		otherT := loadFence(otherTail)

		avail := availSlack - uint32(int32(oldHead-otherT))
		nToDo := n
		if nToDo > avail {
			if fixed {
				return oldHead, 0
			}
			nToDo = avail
		}
		if nToDo == 0 {
			return oldHead, 0
		}

		newHead := oldHead + nToDo
		if atomic.CompareAndSwapUint32(&c.head, oldHead, newHead) {
			return oldHead, nToDo
		}
	}
}

// moveHeadExclusive is the single-caller analogue of moveHeadShared: no
// CAS is needed since the caller guarantees no concurrent use of this side.
func (c *cursor) moveHeadExclusive(n uint32, fixed bool, availSlack uint32, otherTail *uint32) (snapshot uint32, nReserved uint32) {
	oldHead := c.head
	otherT := loadFence(otherTail)

	avail := availSlack - uint32(int32(oldHead-otherT))
	nToDo := n
	if nToDo > avail {
		if fixed {
			return oldHead, 0
		}
		nToDo = avail
	}
	if nToDo == 0 {
		return oldHead, 0
	}

	c.head = oldHead + nToDo
	return oldHead, nToDo
}

// publishTail waits until tail reaches snapshot, then advances it to
// snapshot+n. This is the central serialisation point: publication happens
// in reservation order, not completion order. In exclusive mode there is
// at most one publisher so the wait never spins.
func (c *cursor) publishTail(snapshot, n uint32) {
	if c.single {
		storeFence(&c.tail, snapshot+n)
		return
	}
	spins := 0
	for atomic.LoadUint32(&c.tail) != snapshot {
		spins++
		if spins >= 16 {
			runtime.Gosched()
			spins = 0
		}
	}
	storeFence(&c.tail, snapshot+n)
}
