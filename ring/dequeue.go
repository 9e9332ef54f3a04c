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

// DequeueBulk reserves and publishes exactly len(out) slots, or none: it
// fills all of out from the ring or, if occupancy is insufficient,
// transfers nothing and returns 0.
func (r *Ring[T]) DequeueBulk(out []T) (n uint32) {
	return r.dequeue(out, true)
}

// DequeueBurst reserves and publishes as many entries as are currently
// available, up to len(out), and returns the number actually transferred.
func (r *Ring[T]) DequeueBurst(out []T) (n uint32) {
	return r.dequeue(out, false)
}

// Dequeue is the single-item convenience wrapper over DequeueBulk.
func (r *Ring[T]) Dequeue() (item T, ok bool) {
	var buf [1]T
	if r.DequeueBulk(buf[:]) == 1 {
		return buf[0], true
	}
	return item, false
}

func (r *Ring[T]) dequeue(out []T, fixed bool) uint32 {
	if len(out) == 0 {
		return 0
	}
	var snapshot, nReserved uint32
	if r.cons.single {
		snapshot, nReserved = r.cons.moveHeadExclusive(uint32(len(out)), fixed, 0, &r.prod.tail)
	} else {
		snapshot, nReserved = r.cons.moveHeadShared(uint32(len(out)), fixed, 0, &r.prod.tail)
	}
	if nReserved == 0 {
		return 0
	}

	// Load fence: every read below is ordered after the reservation above,
	// so it observes payload writes published by the producer before it
	// advanced prod.tail past the slots being read here.
	loadFence(&r.cons.head)

	var zero T
	for i := uint32(0); i < nReserved; i++ {
		idx := (snapshot + i) & r.mask
		out[i] = r.slots[idx]
		r.slots[idx] = zero
	}

	r.cons.publishTail(snapshot, nReserved)
	return nReserved
}
